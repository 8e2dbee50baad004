// Package admin — repository.go работает с таблицей admin_login_attempts
// и читает users для выгрузок.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// maxListRows — ограничение размера списков в админке.
const maxListRows = 1000

// Repository работает с админ-таблицами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// LogAttempt записывает попытку входа.
func (r *Repository) LogAttempt(ctx context.Context, ip string, success bool) error {
	query := `INSERT INTO admin_login_attempts (ip, success) VALUES ($1, $2)`
	_, err := r.db.Exec(ctx, query, ip, success)
	return err
}

// CountFailures возвращает количество неудачных попыток с IP начиная с since.
func (r *Repository) CountFailures(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE ip = $1 AND success = FALSE AND attempt_time >= $2
	`
	var count int
	err := r.db.QueryRow(ctx, query, ip, since).Scan(&count)
	return count, err
}

// ListUsers — последние участники (новые первыми), опционально с подстрокой email.
func (r *Repository) ListUsers(ctx context.Context, emailLike string) ([]UserRow, error) {
	query := `
		SELECT email, cents, claim_code, email_verified, telegram_joined_ok, referral_count, created_at
		FROM users
		WHERE $1 = '' OR email ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, escapeLike(emailLike), maxListRows)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения участников: %w", err)
	}
	defer rows.Close()

	var out []UserRow
	for rows.Next() {
		var u UserRow
		if err := rows.Scan(&u.Email, &u.Cents, &u.ClaimCode, &u.EmailVerified,
			&u.TelegramVerified, &u.Referrals, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListReferrers — участники с хотя бы одним приглашённым, по убыванию.
func (r *Repository) ListReferrers(ctx context.Context) ([]ReferrerRow, error) {
	query := `
		SELECT email, referral_count
		FROM users
		WHERE referral_count > 0
		ORDER BY referral_count DESC, created_at ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, maxListRows)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рефереров: %w", err)
	}
	defer rows.Close()

	var out []ReferrerRow
	for rows.Next() {
		var rr ReferrerRow
		if err := rows.Scan(&rr.User, &rr.ReferralsCount); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ClaimCodes — все участники, старые первыми.
func (r *Repository) ClaimCodes(ctx context.Context) ([]ClaimCodeRow, error) {
	query := `
		SELECT email, claim_code, cents, referral_code, referral_count, email_verified
		FROM users
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка выгрузки claim-кодов: %w", err)
	}
	defer rows.Close()

	var out []ClaimCodeRow
	for rows.Next() {
		var c ClaimCodeRow
		if err := rows.Scan(&c.Email, &c.ClaimCode, &c.Cents, &c.ReferralCode, &c.Referrals, &c.EmailVerified); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// escapeLike экранирует спецсимволы LIKE, чтобы фильтр был буквальной подстрокой.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
}
