package feed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository работает с таблицей fake_wins.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert записывает событие ленты.
func (r *Repository) Insert(ctx context.Context, ev Event) error {
	query := `
		INSERT INTO fake_wins (username, amount, avatar, country_code, country_name, country_flag, created_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		ev.Username, ev.Amount.StringFixed(2), ev.Avatar,
		ev.Country.Code, ev.Country.Name, ev.Country.Flag, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи выигрыша: %w", err)
	}
	return nil
}

// Count возвращает размер ленты.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM fake_wins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта ленты: %w", err)
	}
	return n, nil
}

// DeleteOldest удаляет n самых старых записей (по created_at, затем id).
func (r *Repository) DeleteOldest(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	query := `
		DELETE FROM fake_wins
		WHERE id IN (
			SELECT id FROM fake_wins
			ORDER BY created_at ASC, id ASC
			LIMIT $1
		)
	`
	tag, err := r.db.Exec(ctx, query, n)
	if err != nil {
		return 0, fmt.Errorf("ошибка удаления старых выигрышей: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Latest возвращает n последних записей, новые первыми.
func (r *Repository) Latest(ctx context.Context, n int) ([]Event, error) {
	query := `
		SELECT id, username, amount::text, avatar, country_code, country_name, country_flag, created_at
		FROM fake_wins
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ленты: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, n)
	for rows.Next() {
		var ev Event
		var amount string
		if err := rows.Scan(
			&ev.ID, &ev.Username, &amount, &ev.Avatar,
			&ev.Country.Code, &ev.Country.Name, &ev.Country.Flag, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки ленты: %w", err)
		}
		if ev.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("некорректная сумма %q: %w", amount, err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
