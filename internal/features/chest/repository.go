// Package chest — repository.go выполняет открытие сундука в одной транзакции.
package chest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"zoggy.app/waitlist/internal/features/users"
)

// Repository работает с таблицами users и chest_opens.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// WithLockedUser блокирует строку пользователя (SELECT … FOR UPDATE), передаёт её в fn
// и, если fn вернул начисление, применяет его и пишет запись журнала.
// Параллельные открытия одного пользователя выполняются строго по очереди.
func (r *Repository) WithLockedUser(ctx context.Context, userID int64, fn func(u *users.User) (*Credit, error)) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	u, err := users.ScanUser(tx.QueryRow(ctx,
		`SELECT `+users.Columns()+` FROM users WHERE id = $1 FOR UPDATE`, userID,
	))
	if err != nil {
		return err
	}

	credit, err := fn(u)
	if err != nil {
		return err
	}
	if credit == nil {
		return nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET cents = cents + $2,
		    first_chest_opened = TRUE,
		    last_open_at = $3,
		    open_count = open_count + 1
		WHERE id = $1
	`, userID, credit.Cents, credit.At); err != nil {
		return fmt.Errorf("ошибка начисления награды: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO chest_opens (user_id, amount_cents, is_first_chest, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, credit.Cents, credit.IsFirst, credit.At); err != nil {
		return fmt.Errorf("ошибка записи в журнал открытий: %w", err)
	}

	return tx.Commit(ctx)
}
