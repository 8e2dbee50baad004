// Package metrics собирает метрики Prometheus для сервиса.
// Используется собственный реестр (не глобальный), чтобы тесты могли
// создавать независимые экземпляры.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waitlist"

// Metrics — набор метрик приложения.
type Metrics struct {
	registry *prometheus.Registry

	FeedEmitted      *prometheus.CounterVec
	FeedTickFailures prometheus.Counter
	FeedEvicted      prometheus.Counter
	FeedSize         prometheus.Gauge

	ChestOpens       *prometheus.CounterVec
	ChestRewardCents *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
}

// New создаёт реестр и регистрирует все метрики, включая runtime Go и процесса.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		FeedEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_emitted_total",
			Help:      "Количество записанных событий ленты по типу",
		}, []string{"kind"}),
		FeedTickFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_tick_failures_total",
			Help:      "Тики ленты, закончившиеся ошибкой записи",
		}),
		FeedEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_evicted_total",
			Help:      "Удалённые старые записи ленты",
		}),
		FeedSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_size",
			Help:      "Текущий размер ленты после последней записи",
		}),
		ChestOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chest_opens_total",
			Help:      "Открытия сундука по таблице (first/standard)",
		}, []string{"table"}),
		ChestRewardCents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chest_reward_cents_total",
			Help:      "Сумма выданных наград в центах",
		}, []string{"table"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP-запросы по маршруту и статусу",
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(
		m.FeedEmitted,
		m.FeedTickFailures,
		m.FeedEvicted,
		m.FeedSize,
		m.ChestOpens,
		m.ChestRewardCents,
		m.HTTPRequests,
	)
	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry возвращает реестр (для тестов).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// TableLabel переводит признак первого открытия в метку таблицы.
func TableLabel(isFirst bool) string {
	if isFirst {
		return "first"
	}
	return "standard"
}
