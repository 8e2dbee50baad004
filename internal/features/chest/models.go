// Package chest реализует ежедневный сундук: проверку допуска, розыгрыш
// награды и начисление её на баланс пользователя вместе с записью в журнал.
package chest

import "time"

// OpenRecord — запись журнала открытий (только добавление).
type OpenRecord struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	AmountCents  int64     `db:"amount_cents"`
	IsFirstChest bool      `db:"is_first_chest"`
	CreatedAt    time.Time `db:"created_at"`
}

// Credit — начисление, которое репозиторий применяет к заблокированной строке пользователя.
type Credit struct {
	Cents   int64
	IsFirst bool
	At      time.Time
}

// Result — итог открытия сундука.
type Result struct {
	Cents       int64
	IsFirst     bool
	NextChestAt time.Time
}
