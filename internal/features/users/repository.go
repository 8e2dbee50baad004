// Package users — repository.go работает с таблицей users.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"zoggy.app/waitlist/internal/common"
)

// errCodeTaken — сгенерированный реферальный или claim-код уже занят.
var errCodeTaken = errors.New("код уже занят")

const uniqueViolation = "23505"

// userColumns — порядок колонок для scanUser.
const userColumns = `
	id, email, email_verified, created_at,
	referral_code, referred_by, referral_count,
	cents, first_chest_opened, last_open_at, open_count,
	claim_code, telegram_user_id, telegram_username, telegram_joined_ok,
	signup_ip, signup_ua, device_id, suspicious, suspicious_reason, auth_version
`

// Repository работает с таблицей users.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ScanUser читает строку с колонками userColumns.
func ScanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.EmailVerified, &u.CreatedAt,
		&u.ReferralCode, &u.ReferredBy, &u.ReferralCount,
		&u.Cents, &u.FirstChestOpened, &u.LastOpenAt, &u.OpenCount,
		&u.ClaimCode, &u.TelegramUserID, &u.TelegramUsername, &u.TelegramJoinedOK,
		&u.SignupIP, &u.SignupUA, &u.DeviceID, &u.Suspicious, &u.SuspiciousReason, &u.AuthVersion,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Columns возвращает список колонок для SELECT (используется другими пакетами).
func Columns() string { return userColumns }

// Create вставляет пользователя и заполняет ID, CreatedAt, AuthVersion.
func (r *Repository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, referral_code, referred_by, claim_code, signup_ip, signup_ua, device_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, auth_version
	`
	err := r.db.QueryRow(ctx, query,
		u.Email, u.ReferralCode, u.ReferredBy, u.ClaimCode, u.SignupIP, u.SignupUA, u.DeviceID,
	).Scan(&u.ID, &u.CreatedAt, &u.AuthVersion)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "users_email_key" {
			return common.ErrEmailExists
		}
		return errCodeTaken
	}
	if err != nil {
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return ScanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail возвращает пользователя по email (email хранится в нижнем регистре).
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return ScanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// ReferralCodeExists проверяет, что код принадлежит какому-то пользователю.
func (r *Repository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE referral_code = $1)`, code).Scan(&exists)
	return exists, err
}

// IncrementReferralCount увеличивает счётчик приглашений владельца кода.
func (r *Repository) IncrementReferralCount(ctx context.Context, code string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET referral_count = referral_count + 1 WHERE referral_code = $1`, code)
	if err != nil {
		return fmt.Errorf("ошибка обновления счётчика рефералов: %w", err)
	}
	return nil
}

// CountSignupsFromIP — регистрации с IP начиная с since.
func (r *Repository) CountSignupsFromIP(ctx context.Context, ip string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE signup_ip = $1 AND created_at >= $2`, ip, since,
	).Scan(&n)
	return n, err
}

// MarkVerified помечает email подтверждённым.
func (r *Repository) MarkVerified(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET email_verified = TRUE WHERE id = $1`, id)
	return err
}

// CountAhead — сколько пользователей стоят выше в очереди:
// больше рефералов, либо столько же и зарегистрированы раньше.
func (r *Repository) CountAhead(ctx context.Context, u *User) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM users
		WHERE referral_count > $1
		   OR (referral_count = $1 AND created_at < $2)
	`, u.ReferralCount, u.CreatedAt).Scan(&n)
	return n, err
}

// CountAll — всего пользователей.
func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// TopReferrers — подтверждённые пользователи с наибольшим числом рефералов.
func (r *Repository) TopReferrers(ctx context.Context, limit int) ([]*User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email_verified = TRUE
		ORDER BY referral_count DESC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения лидеров: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := ScanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
