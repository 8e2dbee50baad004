package feed

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/metrics"
)

// Store — хранилище ленты, нужное планировщику.
type Store interface {
	Insert(ctx context.Context, ev Event) error
	Count(ctx context.Context) (int64, error)
	// DeleteOldest удаляет n самых старых записей и возвращает число удалённых.
	DeleteOldest(ctx context.Context, n int64) (int64, error)
}

// Invalidator сбрасывает кэш чтения после новой записи.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// SchedulerOptions — параметры планировщика, не относящиеся к ритму.
type SchedulerOptions struct {
	Cap          int64         // максимальный размер ленты
	ErrorBackoff time.Duration // пауза после ошибки записи
	Now          func() time.Time
}

// Scheduler — фоновый генератор ленты. Единственный владелец State.
// Tick вызывается периодически (cron); одновременно выполняется не больше одного тика.
type Scheduler struct {
	engine  *Engine
	state   *State
	store   Store
	cache   Invalidator
	metrics *metrics.Metrics
	opts    SchedulerOptions
	busy    atomic.Bool
}

// NewScheduler создаёт планировщик. cache и m могут быть nil.
func NewScheduler(engine *Engine, store Store, cache Invalidator, m *metrics.Metrics, opts SchedulerOptions) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ErrorBackoff <= 0 {
		opts.ErrorBackoff = 30 * time.Second
	}
	return &Scheduler{
		engine:  engine,
		state:   NewState(opts.Now()),
		store:   store,
		cache:   cache,
		metrics: m,
		opts:    opts,
	}
}

// Tick — один шаг планировщика.
// Если предыдущий тик ещё пишет в базу или время следующего события не наступило, ничего не делает.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	defer s.busy.Store(false)

	now := s.opts.Now()
	if now.Before(s.state.NextWinAt) {
		return
	}

	d := s.engine.Decide(s.state, now)
	if d.Win == nil {
		s.state.NextWinAt = now.Add(d.Delay)
		if d.Kind == KindLull {
			log.WithField("recheck", d.Delay).Debug("[FEED] Затишье")
		}
		return
	}

	if err := s.emit(ctx, *d.Win, now); err != nil {
		log.WithError(err).WithField("kind", d.Kind).Warn("[FEED] Ошибка записи выигрыша, пауза")
		s.state.NextWinAt = now.Add(s.opts.ErrorBackoff)
		if s.metrics != nil {
			s.metrics.FeedTickFailures.Inc()
		}
		return
	}
	s.state.NextWinAt = now.Add(d.Delay)

	log.WithFields(log.Fields{
		"kind":     d.Kind,
		"username": d.Win.Username,
		"amount":   d.Win.Amount().StringFixed(2),
		"country":  d.Win.Country.Code,
		"next_in":  d.Delay,
	}).Debug("[FEED] Выигрыш записан")
}

// emit пишет событие и поддерживает размер ленты не больше Cap.
// Ошибка удаления старых записей не считается ошибкой тика: событие уже записано.
func (s *Scheduler) emit(ctx context.Context, w Win, now time.Time) error {
	if err := s.store.Insert(ctx, NewEvent(w, now)); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if s.metrics != nil {
		s.metrics.FeedEmitted.WithLabelValues(string(w.Kind)).Inc()
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.WithError(err).Debug("[FEED] Не удалось сбросить кэш")
		}
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		log.WithError(err).Warn("[FEED] Не удалось посчитать записи ленты")
		return nil
	}
	if count > s.opts.Cap {
		deleted, err := s.store.DeleteOldest(ctx, count-s.opts.Cap)
		if err != nil {
			log.WithError(err).Warn("[FEED] Не удалось удалить старые записи")
			return nil
		}
		count -= deleted
		if s.metrics != nil {
			s.metrics.FeedEvicted.Add(float64(deleted))
		}
	}
	if s.metrics != nil {
		s.metrics.FeedSize.Set(float64(count))
	}
	return nil
}

// State возвращает состояние ритма. Только для чтения вне тика.
func (s *Scheduler) State() *State {
	return s.state
}
