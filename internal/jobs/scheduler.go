// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: тик ленты выигрышей
// и ежечасную чистку просроченных кодов привязки Telegram.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// FeedTicker — один шаг генератора ленты.
type FeedTicker interface {
	Tick(ctx context.Context)
}

// NonceExpirer помечает просроченные коды привязки.
type NonceExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron         *cron.Cron
	feed         FeedTicker
	nonces       NonceExpirer
	tickInterval time.Duration
}

// NewScheduler создаёт планировщик задач в UTC.
// feed и nonces могут быть nil, тогда соответствующая задача не ставится.
func NewScheduler(feed FeedTicker, tickInterval time.Duration, nonces NonceExpirer) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	return &Scheduler{
		cron:         c,
		feed:         feed,
		nonces:       nonces,
		tickInterval: tickInterval,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.feed != nil {
		spec := fmt.Sprintf("@every %s", s.tickInterval)
		if _, err := s.cron.AddFunc(spec, func() { s.feed.Tick(ctx) }); err != nil {
			return fmt.Errorf("не удалось запланировать тик ленты: %w", err)
		}
	}

	if s.nonces != nil {
		if _, err := s.cron.AddFunc("0 * * * *", func() { s.expireNonces(ctx) }); err != nil {
			return fmt.Errorf("не удалось запланировать чистку кодов: %w", err)
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"jobs":          len(s.cron.Entries()),
		"feed_interval": s.tickInterval,
	}).Info("Планировщик задач запущен (UTC)")
	return nil
}

func (s *Scheduler) expireNonces(ctx context.Context) {
	n, err := s.nonces.ExpireStale(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка чистки кодов привязки")
		return
	}
	if n > 0 {
		log.WithField("expired", n).Info("[CRON] Просроченные коды привязки помечены")
	}
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
