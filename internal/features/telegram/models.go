// Package telegram связывает аккаунт участника с Telegram и проверяет
// членство в канале: одноразовые ссылки-приглашения боту, /start,
// автоматическое одобрение заявок на вступление.
package telegram

import "time"

// Status — состояние одноразового кода привязки.
type Status string

const (
	StatusPending    Status = "pending"    // ссылка выдана, бот ещё не видел пользователя
	StatusIdentified Status = "identified" // пользователь нажал /start, ждём вступления
	StatusVerified   Status = "verified"
	StatusExpired    Status = "expired"
)

// Nonce — строка таблицы telegram_nonces.
type Nonce struct {
	ID         int64      `db:"id"`
	Nonce      string     `db:"nonce"`
	Status     Status     `db:"status"`
	UserID     int64      `db:"user_id"`
	TgUserID   *int64     `db:"tg_user_id"`
	TgUsername *string    `db:"tg_username"`
	CreatedAt  time.Time  `db:"created_at"`
	VerifiedAt *time.Time `db:"verified_at"`
}

// Expired — код старше ttl.
func (n *Nonce) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(n.CreatedAt) > ttl
}

// TgUser — отправитель апдейта.
type TgUser struct {
	ID       int64
	Username string
}

// Outcome — результат обработки апдейта, бот превращает его в ответ.
type Outcome int

const (
	OutcomeIgnored      Outcome = iota
	OutcomeNoPayload            // /start без auth_
	OutcomeExpired              // код не найден или просрочен
	OutcomeAskToJoin            // привязан, но ещё не в канале
	OutcomeVerified             // членство подтверждено
	OutcomeSessionError         // пользователь сайта пропал
	OutcomeGreeting             // вступил без ссылки с сайта
)

// Сообщения бота.
const (
	MsgNoPayload     = "Please tap “Connect Telegram” on the website to link your account."
	MsgExpired       = "Link expired. Please try again from the website."
	MsgAskToJoin     = "✅ Telegram connected.\nTap below to request access — I will approve you automatically."
	MsgVerified      = "🎉 Approved! Return to the site to open your chest!"
	MsgSessionError  = "Link expired or session error. Please tap Connect Telegram again on the website."
	MsgGreeting      = "You’re in! Return to the site to continue."
	JoinButtonLabel  = "👉 Request to join"
	startPayloadPref = "auth_"
)
