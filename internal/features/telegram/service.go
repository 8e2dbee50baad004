package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/common"
)

// Store — хранилище кодов привязки.
type Store interface {
	Create(ctx context.Context, userID int64, nonce string) error
	FindByNonce(ctx context.Context, nonce string) (*Nonce, error)
	LatestOpenByTgUser(ctx context.Context, tgUserID int64) (*Nonce, error)
	Bind(ctx context.Context, id int64, tg TgUser) error
	SetStatus(ctx context.Context, id int64, status Status) error
	Verify(ctx context.Context, n *Nonce, tg TgUser, at time.Time) error
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MembershipChecker отвечает, состоит ли Telegram-пользователь в канале.
type MembershipChecker interface {
	IsMember(ctx context.Context, tgUserID int64) (bool, error)
}

// Service — логика привязки Telegram.
type Service struct {
	store       Store
	botUsername string
	enabled     bool
	ttl         time.Duration
	now         func() time.Time
}

// NewService создаёт сервис. при enabled == false бот не настроен, ссылки не выдаются.
func NewService(store Store, botUsername string, enabled bool, ttl time.Duration) *Service {
	return &Service{
		store:       store,
		botUsername: botUsername,
		enabled:     enabled && botUsername != "",
		ttl:         ttl,
		now:         time.Now,
	}
}

// CreateDeeplink выдаёт ссылку https://t.me/<bot>?start=auth_<nonce>.
func (s *Service) CreateDeeplink(ctx context.Context, userID int64) (string, error) {
	if !s.enabled {
		return "", common.ErrTelegramDisabled
	}
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := s.store.Create(ctx, userID, nonce); err != nil {
		return "", err
	}
	log.WithField("user_id", userID).Debug("[TG] Выдана ссылка привязки")
	return fmt.Sprintf("https://t.me/%s?start=%s%s", s.botUsername, startPayloadPref, nonce), nil
}

// HandleStart обрабатывает /start с полезной нагрузкой auth_<nonce>.
func (s *Service) HandleStart(ctx context.Context, payload string, tg TgUser, members MembershipChecker) (Outcome, error) {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, startPayloadPref) {
		return OutcomeNoPayload, nil
	}

	n, err := s.store.FindByNonce(ctx, strings.TrimPrefix(payload, startPayloadPref))
	if errors.Is(err, common.ErrNonceNotFound) {
		return OutcomeExpired, nil
	}
	if err != nil {
		return OutcomeIgnored, err
	}
	if n.Status == StatusVerified || n.Status == StatusExpired {
		return OutcomeExpired, nil
	}
	if out, err := s.expireIfStale(ctx, n); out != OutcomeIgnored || err != nil {
		return out, err
	}

	if err := s.store.Bind(ctx, n.ID, tg); err != nil {
		return OutcomeIgnored, fmt.Errorf("ошибка привязки: %w", err)
	}
	n.Status = StatusIdentified

	inChannel, err := members.IsMember(ctx, tg.ID)
	if err != nil {
		// Бот не админ канала или неверный ID: просим вступить через заявку.
		log.WithError(err).WithField("tg_user_id", tg.ID).Warn("[TG] Не удалось проверить членство")
		return OutcomeAskToJoin, nil
	}
	if !inChannel {
		return OutcomeAskToJoin, nil
	}
	return s.verify(ctx, n, tg)
}

// HandleJoinRequest вызывается после одобрения заявки в канал.
func (s *Service) HandleJoinRequest(ctx context.Context, tg TgUser) (Outcome, error) {
	n, err := s.store.LatestOpenByTgUser(ctx, tg.ID)
	if errors.Is(err, common.ErrNonceNotFound) {
		return OutcomeGreeting, nil
	}
	if err != nil {
		return OutcomeIgnored, err
	}
	if out, err := s.expireIfStale(ctx, n); out != OutcomeIgnored || err != nil {
		return out, err
	}
	return s.verify(ctx, n, tg)
}

func (s *Service) expireIfStale(ctx context.Context, n *Nonce) (Outcome, error) {
	if !n.Expired(s.now(), s.ttl) {
		return OutcomeIgnored, nil
	}
	if err := s.store.SetStatus(ctx, n.ID, StatusExpired); err != nil {
		return OutcomeIgnored, fmt.Errorf("ошибка пометки кода: %w", err)
	}
	return OutcomeExpired, nil
}

func (s *Service) verify(ctx context.Context, n *Nonce, tg TgUser) (Outcome, error) {
	err := s.store.Verify(ctx, n, tg, s.now())
	if errors.Is(err, common.ErrUserNotFound) {
		return OutcomeSessionError, nil
	}
	if err != nil {
		return OutcomeSessionError, err
	}
	log.WithFields(log.Fields{
		"user_id":    n.UserID,
		"tg_user_id": tg.ID,
	}).Info("[TG] Членство в канале подтверждено")
	return OutcomeVerified, nil
}

// ExpireStale помечает просроченными все незавершённые коды старше TTL.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	return s.store.ExpireBefore(ctx, s.now().Add(-s.ttl))
}
