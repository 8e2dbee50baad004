// Package admin — service.go содержит логику входа администратора и выгрузок.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"zoggy.app/waitlist/internal/auth"
	"zoggy.app/waitlist/internal/common"
)

// Store — операции, нужные сервису админки.
type Store interface {
	LogAttempt(ctx context.Context, ip string, success bool) error
	CountFailures(ctx context.Context, ip string, since time.Time) (int, error)
	ListUsers(ctx context.Context, emailLike string) ([]UserRow, error)
	ListReferrers(ctx context.Context) ([]ReferrerRow, error)
	ClaimCodes(ctx context.Context) ([]ClaimCodeRow, error)
}

// Options — параметры входа.
type Options struct {
	PasswordHash string
	SessionTTL   time.Duration
	MaxAttempts  int
}

// Service управляет админ-панелью.
type Service struct {
	store  Store
	tokens *auth.Manager
	opts   Options
	now    func() time.Time
}

// NewService создаёт сервис админ-панели.
func NewService(store Store, tokens *auth.Manager, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Service{store: store, tokens: tokens, opts: opts, now: time.Now}
}

// Login проверяет пароль администратора с использованием Argon2id и выдаёт токен.
// Включает защиту от brute-force: MaxAttempts неудачных попыток с IP = блокировка на 1 час.
func (s *Service) Login(ctx context.Context, ip, password string) (string, error) {
	attempts, err := s.store.CountFailures(ctx, ip, s.now().Add(-time.Hour))
	if err != nil {
		return "", err
	}
	if attempts >= s.opts.MaxAttempts {
		log.WithField("ip", ip).Warn("Вход в админку заблокирован: превышен лимит попыток")
		return "", common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.opts.PasswordHash)

	if err := s.store.LogAttempt(ctx, ip, match); err != nil {
		log.WithError(err).Warn("Не удалось записать попытку входа")
	}

	if !match {
		return "", common.ErrWrongPassword
	}

	log.WithField("ip", ip).Info("Администратор вошёл в панель")
	return s.tokens.IssueAdmin(s.opts.SessionTTL)
}

// Authorize проверяет админский токен.
func (s *Service) Authorize(token string) error {
	claims, err := s.tokens.Parse(token, auth.TypeAdmin)
	if err != nil || claims.Role != auth.RoleAdmin {
		return common.ErrInvalidToken
	}
	return nil
}

// Users — список участников для админки.
func (s *Service) Users(ctx context.Context, emailLike string) ([]UserRow, error) {
	rows, err := s.store.ListUsers(ctx, emailLike)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].TotalCredits = common.FormatCents(rows[i].Cents)
	}
	return rows, nil
}

// Referrers — участники с приглашёнными.
func (s *Service) Referrers(ctx context.Context) ([]ReferrerRow, error) {
	return s.store.ListReferrers(ctx)
}

var claimCodesHeader = []string{"email", "claim_code", "credits_usd", "referral_code", "referrals", "email_verified"}

// ExportClaimCodes пишет CSV с claim-кодами всех участников.
func (s *Service) ExportClaimCodes(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.store.ClaimCodes(ctx)
	if err != nil {
		return 0, err
	}
	if err := WriteClaimCodesCSV(w, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// WriteClaimCodesCSV — RFC 4180 CSV с заголовком.
func WriteClaimCodesCSV(w io.Writer, rows []ClaimCodeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(claimCodesHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Email,
			r.ClaimCode,
			common.FormatCents(r.Cents),
			r.ReferralCode,
			strconv.Itoa(r.Referrals),
			strconv.FormatBool(r.EmailVerified),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравниваем в постоянном времени
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// HashPassword кодирует пароль в формат, который понимает verifyArgon2id.
func HashPassword(password string, salt []byte) string {
	const (
		memory      = 64 * 1024
		iterations  = 3
		parallelism = 2
		keyLen      = 32
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}
