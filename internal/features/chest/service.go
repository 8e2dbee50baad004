// Package chest — service.go проверяет допуск и разыгрывает награду.
package chest

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/common"
	"zoggy.app/waitlist/internal/features/users"
	"zoggy.app/waitlist/internal/metrics"
)

// Store — транзакционное открытие сундука.
type Store interface {
	WithLockedUser(ctx context.Context, userID int64, fn func(u *users.User) (*Credit, error)) error
}

// Drawer разыгрывает награду в центах.
type Drawer interface {
	Draw(isFirstOpen bool) int64
}

// Service открывает сундуки.
type Service struct {
	store    Store
	drawer   Drawer
	metrics  *metrics.Metrics
	cooldown time.Duration
	now      func() time.Time
}

// NewService создаёт сервис. m может быть nil.
func NewService(store Store, drawer Drawer, m *metrics.Metrics, cooldown time.Duration) *Service {
	return &Service{store: store, drawer: drawer, metrics: m, cooldown: cooldown, now: time.Now}
}

// CheckGates проверяет допуск по порядку: email, Telegram-канал, перезарядка.
func CheckGates(u *users.User, now time.Time, cooldown time.Duration) error {
	if !u.EmailVerified {
		return common.ErrEmailNotVerified
	}
	if !u.TelegramJoinedOK {
		return common.ErrTelegramRequired
	}
	if u.LastOpenAt != nil {
		if next := u.LastOpenAt.Add(cooldown); now.Before(next) {
			return &common.CooldownError{NextAt: next}
		}
	}
	return nil
}

// Open открывает сундук пользователя.
func (s *Service) Open(ctx context.Context, userID int64) (*Result, error) {
	var res Result
	err := s.store.WithLockedUser(ctx, userID, func(u *users.User) (*Credit, error) {
		now := s.now()
		if err := CheckGates(u, now, s.cooldown); err != nil {
			return nil, err
		}

		isFirst := !u.FirstChestOpened
		cents := s.drawer.Draw(isFirst)
		res = Result{Cents: cents, IsFirst: isFirst, NextChestAt: now.Add(s.cooldown)}
		return &Credit{Cents: cents, IsFirst: isFirst, At: now}, nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		label := metrics.TableLabel(res.IsFirst)
		s.metrics.ChestOpens.WithLabelValues(label).Inc()
		s.metrics.ChestRewardCents.WithLabelValues(label).Add(float64(res.Cents))
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"cents":   res.Cents,
		"first":   res.IsFirst,
	}).Info("Сундук открыт")
	return &res, nil
}
