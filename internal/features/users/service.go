// Package users — service.go содержит бизнес-логику регистрации и входа.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/auth"
	"zoggy.app/waitlist/internal/common"
)

// maxCodeAttempts — сколько раз перегенерировать коды при коллизии.
const maxCodeAttempts = 5

// Store — операции над пользователями, нужные сервису.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	IncrementReferralCount(ctx context.Context, code string) error
	CountSignupsFromIP(ctx context.Context, ip string, since time.Time) (int, error)
	MarkVerified(ctx context.Context, id int64) error
	CountAhead(ctx context.Context, u *User) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	TopReferrers(ctx context.Context, limit int) ([]*User, error)
}

// Mailer отправляет письма пользователям.
type Mailer interface {
	SendVerification(ctx context.Context, email, link string) error
}

// Options — параметры сервиса из конфигурации.
type Options struct {
	PublicBaseURL     string
	SessionTTL        time.Duration
	VerificationTTL   time.Duration
	MaxSignupsPerIP   int
	AllowSelfReferral bool
	ChestCooldown     time.Duration
}

// Service управляет пользователями.
type Service struct {
	store  Store
	tokens *auth.Manager
	mailer Mailer
	opts   Options
	now    func() time.Time
}

// NewService создаёт сервис пользователей.
func NewService(store Store, tokens *auth.Manager, mailer Mailer, opts Options) *Service {
	return &Service{store: store, tokens: tokens, mailer: mailer, opts: opts, now: time.Now}
}

// Signup регистрирует пользователя и отправляет письмо с подтверждением.
//
// Неизвестный реферальный код молча отбрасывается; пригласившему
// увеличивается счётчик только после успешного создания записи.
func (s *Service) Signup(ctx context.Context, email, ref string, meta Meta) (*User, error) {
	email = common.NormalizeEmail(email)
	if email == "" {
		return nil, common.ErrEmailRequired
	}
	if !common.ValidEmail(email) {
		return nil, common.ErrEmailInvalid
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrEmailExists
	} else if !errors.Is(err, common.ErrUserNotFound) {
		return nil, err
	}

	since := s.now().Add(-24 * time.Hour)
	count, err := s.store.CountSignupsFromIP(ctx, meta.IP, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки лимита регистраций: %w", err)
	}
	if count >= s.opts.MaxSignupsPerIP {
		log.WithFields(log.Fields{"ip": meta.IP, "count": count}).Warn("Превышен лимит регистраций с IP")
		return nil, common.ErrTooManySignups
	}

	referredBy, err := s.resolveReferral(ctx, ref)
	if err != nil {
		return nil, err
	}

	var user *User
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		user, err = s.newUser(email, referredBy, meta)
		if err != nil {
			return nil, err
		}
		err = s.store.Create(ctx, user)
		if !errors.Is(err, errCodeTaken) {
			break
		}
		log.WithField("attempt", attempt+1).Debug("Коллизия кода, генерируем заново")
	}
	if err != nil {
		return nil, err
	}

	if user.ReferredBy != nil {
		if err := s.store.IncrementReferralCount(ctx, *user.ReferredBy); err != nil {
			log.WithError(err).WithField("ref", *user.ReferredBy).Error("Не удалось засчитать реферала")
		}
	}

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"email":    common.MaskEmail(user.Email),
		"referred": user.ReferredBy != nil,
	}).Info("Новый пользователь зарегистрирован")

	if err := s.sendVerification(ctx, user); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("Не удалось отправить письмо подтверждения")
	}
	return user, nil
}

func (s *Service) newUser(email string, referredBy *string, meta Meta) (*User, error) {
	referralCode, err := common.NewReferralCode()
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации реферального кода: %w", err)
	}
	claimCode, err := common.NewClaimCode()
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации claim-кода: %w", err)
	}

	// Ссылка на собственный код возможна только при коллизии генерации.
	if referredBy != nil && *referredBy == referralCode && !s.opts.AllowSelfReferral {
		referredBy = nil
	}

	return &User{
		Email:        email,
		ReferralCode: referralCode,
		ReferredBy:   referredBy,
		ClaimCode:    claimCode,
		SignupIP:     meta.IP,
		SignupUA:     meta.UA,
		DeviceID:     meta.DeviceID,
	}, nil
}

// resolveReferral возвращает код пригласившего, если он существует.
func (s *Service) resolveReferral(ctx context.Context, ref string) (*string, error) {
	if ref == "" {
		return nil, nil
	}
	exists, err := s.store.ReferralCodeExists(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки реферального кода: %w", err)
	}
	if !exists {
		log.WithField("ref", ref).Debug("Неизвестный реферальный код, игнорируем")
		return nil, nil
	}
	return &ref, nil
}

func (s *Service) sendVerification(ctx context.Context, u *User) error {
	token, err := s.tokens.IssueVerification(u.ID, s.opts.VerificationTTL)
	if err != nil {
		return err
	}
	link := s.opts.PublicBaseURL + "/verify-email?token=" + url.QueryEscape(token)
	return s.mailer.SendVerification(ctx, u.Email, link)
}

// Signin выдаёт сессию подтверждённому пользователю.
func (s *Service) Signin(ctx context.Context, email string) (*Session, error) {
	email = common.NormalizeEmail(email)
	if email == "" {
		return nil, common.ErrEmailRequired
	}
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}
	token, err := s.tokens.IssueSession(u.ID, u.AuthVersion, s.opts.SessionTTL)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// VerifyEmail подтверждает email по токену из письма.
// alreadyVerified == true, если email был подтверждён раньше.
func (s *Service) VerifyEmail(ctx context.Context, token string) (alreadyVerified bool, err error) {
	if token == "" {
		return false, common.ErrInvalidToken
	}
	claims, err := s.tokens.Parse(token, auth.TypeVerification)
	if err != nil {
		return false, common.ErrInvalidToken
	}
	u, err := s.store.GetByID(ctx, claims.UserID)
	if err != nil {
		return false, err
	}
	if u.EmailVerified {
		return true, nil
	}
	if err := s.store.MarkVerified(ctx, u.ID); err != nil {
		return false, fmt.Errorf("ошибка подтверждения email: %w", err)
	}
	log.WithField("user_id", u.ID).Info("Email подтверждён")
	return false, nil
}

// ResendVerification повторно отправляет письмо подтверждения.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)
	if email == "" {
		return common.ErrEmailRequired
	}
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return common.ErrEmailAlreadyVerified
	}
	return s.sendVerification(ctx, u)
}

// Authenticate проверяет сессионный токен и возвращает актуального пользователя.
// Токен с устаревшей auth_version отклоняется.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Parse(token, auth.TypeSession)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	u, err := s.store.GetByID(ctx, claims.UserID)
	if errors.Is(err, common.ErrUserNotFound) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if u.AuthVersion != claims.AuthVersion {
		return nil, common.ErrInvalidToken
	}
	return u, nil
}

// Dashboard собирает сводку: позиция в очереди, всего участников, перезарядка сундука.
func (s *Service) Dashboard(ctx context.Context, u *User) (*Dashboard, error) {
	ahead, err := s.store.CountAhead(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("ошибка расчёта позиции: %w", err)
	}
	total, err := s.store.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return &Dashboard{
		User:            u,
		Position:        ahead + 1,
		Total:           total,
		CooldownSeconds: u.CooldownSeconds(s.now(), s.opts.ChestCooldown),
	}, nil
}

// ReferralLink возвращает ссылку-приглашение пользователя.
func (s *Service) ReferralLink(u *User) string {
	return s.opts.PublicBaseURL + "?ref=" + url.QueryEscape(u.ReferralCode)
}

// Leaderboard — топ-10 по рефералам с замаскированными email.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	top, err := s.store.TopReferrers(ctx, 10)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(top))
	for i, u := range top {
		out = append(out, LeaderboardEntry{
			Rank:      i + 1,
			User:      common.MaskEmail(u.Email),
			Referrals: u.ReferralCount,
		})
	}
	return out, nil
}

// ChestCooldown возвращает перезарядку сундука (нужна обработчикам для nextChestAt).
func (s *Service) ChestCooldown() time.Duration {
	return s.opts.ChestCooldown
}

// Now — текущее время сервиса.
func (s *Service) Now() time.Time {
	return s.now()
}
