package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zoggy.app/waitlist/internal/common"
)

const nonceColumns = `id, nonce, status, user_id, tg_user_id, tg_username, created_at, verified_at`

// Repository работает с таблицей telegram_nonces и telegram-полями users.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanNonce(row pgx.Row) (*Nonce, error) {
	var n Nonce
	var status string
	err := row.Scan(&n.ID, &n.Nonce, &status, &n.UserID, &n.TgUserID, &n.TgUsername, &n.CreatedAt, &n.VerifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNonceNotFound
	}
	if err != nil {
		return nil, err
	}
	n.Status = Status(status)
	return &n, nil
}

// Create сохраняет новый код привязки (status = pending).
func (r *Repository) Create(ctx context.Context, userID int64, nonce string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO telegram_nonces (nonce, status, user_id) VALUES ($1, $2, $3)`,
		nonce, string(StatusPending), userID,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания кода привязки: %w", err)
	}
	return nil
}

// FindByNonce ищет код по значению.
func (r *Repository) FindByNonce(ctx context.Context, nonce string) (*Nonce, error) {
	row := r.db.QueryRow(ctx, `SELECT `+nonceColumns+` FROM telegram_nonces WHERE nonce = $1`, nonce)
	return scanNonce(row)
}

// LatestOpenByTgUser — самый свежий pending/identified код Telegram-пользователя.
func (r *Repository) LatestOpenByTgUser(ctx context.Context, tgUserID int64) (*Nonce, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+nonceColumns+`
		FROM telegram_nonces
		WHERE tg_user_id = $1 AND status IN ('pending', 'identified')
		ORDER BY created_at DESC
		LIMIT 1
	`, tgUserID)
	return scanNonce(row)
}

// Bind привязывает Telegram-пользователя к коду (status = identified).
func (r *Repository) Bind(ctx context.Context, id int64, tg TgUser) error {
	_, err := r.db.Exec(ctx, `
		UPDATE telegram_nonces
		SET tg_user_id = $2, tg_username = NULLIF($3, ''), status = $4
		WHERE id = $1
	`, id, tg.ID, tg.Username, string(StatusIdentified))
	return err
}

// SetStatus меняет статус кода.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.db.Exec(ctx, `UPDATE telegram_nonces SET status = $2 WHERE id = $1`, id, string(status))
	return err
}

// Verify в одной транзакции отмечает код подтверждённым и записывает
// Telegram-данные пользователю. ErrUserNotFound, если пользователя нет.
func (r *Repository) Verify(ctx context.Context, n *Nonce, tg TgUser, at time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE telegram_nonces SET status = $2, verified_at = $3 WHERE id = $1`,
		n.ID, string(StatusVerified), at,
	); err != nil {
		return fmt.Errorf("ошибка обновления кода: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET telegram_user_id = $2, telegram_username = NULLIF($3, ''), telegram_joined_ok = TRUE
		WHERE id = $1
	`, n.UserID, tg.ID, tg.Username)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return tx.Commit(ctx)
}

// ExpireBefore помечает просроченными незавершённые коды, созданные раньше cutoff.
func (r *Repository) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE telegram_nonces
		SET status = 'expired'
		WHERE status IN ('pending', 'identified') AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
