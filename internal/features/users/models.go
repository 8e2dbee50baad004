// Package users управляет участниками листа ожидания: регистрацией,
// подтверждением email, сессиями, позицией в очереди и рефералами.
// models.go описывает структуры данных таблицы users.
package users

import "time"

// User — участник листа ожидания.
type User struct {
	ID            int64     `db:"id"`
	Email         string    `db:"email"`
	EmailVerified bool      `db:"email_verified"`
	CreatedAt     time.Time `db:"created_at"`

	ReferralCode  string  `db:"referral_code"` // собственный код, например hT7d9a
	ReferredBy    *string `db:"referred_by"`   // код пригласившего
	ReferralCount int     `db:"referral_count"`

	Cents            int64      `db:"cents"` // баланс в центах
	FirstChestOpened bool       `db:"first_chest_opened"`
	LastOpenAt       *time.Time `db:"last_open_at"`
	OpenCount        int        `db:"open_count"`

	ClaimCode string `db:"claim_code"` // код получения на запуске

	TelegramUserID   *int64  `db:"telegram_user_id"`
	TelegramUsername *string `db:"telegram_username"`
	TelegramJoinedOK bool    `db:"telegram_joined_ok"`

	SignupIP         string  `db:"signup_ip"`
	SignupUA         string  `db:"signup_ua"`
	DeviceID         string  `db:"device_id"`
	Suspicious       bool    `db:"suspicious"`
	SuspiciousReason *string `db:"suspicious_reason"`

	AuthVersion int `db:"auth_version"` // увеличение отзывает все сессии
}

// NextChestAt возвращает время, когда сундук снова доступен.
// Если сундук ещё не открывался, возвращает now.
func (u *User) NextChestAt(now time.Time, cooldown time.Duration) time.Time {
	if u.LastOpenAt == nil {
		return now
	}
	return u.LastOpenAt.Add(cooldown)
}

// CooldownSeconds — сколько секунд осталось до следующего сундука (не меньше 0).
func (u *User) CooldownSeconds(now time.Time, cooldown time.Duration) int64 {
	if u.LastOpenAt == nil {
		return 0
	}
	left := u.LastOpenAt.Add(cooldown).Sub(now)
	if left <= 0 {
		return 0
	}
	return int64(left / time.Second)
}

// Meta — данные запроса, сохраняемые при регистрации.
type Meta struct {
	IP       string
	UA       string
	DeviceID string
}

// Session — результат входа.
type Session struct {
	Token string
	User  *User
}

// Dashboard — сводка для личного кабинета.
type Dashboard struct {
	User            *User
	Position        int64
	Total           int64
	CooldownSeconds int64
}

// LeaderboardEntry — строка таблицы лидеров.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	User      string `json:"user"` // замаскированный email
	Referrals int    `json:"referrals"`
}
