// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях сервиса.
// Эти ошибки позволяют HTTP-обработчикам различать типы проблем
// и отдавать клиенту стабильные коды ошибок.
package common

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки пользователей и авторизации
var (
	// ErrEmailRequired — email не передан
	ErrEmailRequired = errors.New("email обязателен")
	// ErrEmailInvalid — email синтаксически некорректен
	ErrEmailInvalid = errors.New("некорректный email")
	// ErrEmailExists — пользователь с таким email уже зарегистрирован
	ErrEmailExists = errors.New("email уже зарегистрирован")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrEmailNotVerified — email ещё не подтверждён
	ErrEmailNotVerified = errors.New("email не подтверждён")
	// ErrEmailAlreadyVerified — email уже подтверждён
	ErrEmailAlreadyVerified = errors.New("email уже подтверждён")
	// ErrTooManySignups — слишком много регистраций с одного IP за сутки
	ErrTooManySignups = errors.New("слишком много регистраций с этого IP")
	// ErrInvalidToken — токен не прошёл проверку или истёк
	ErrInvalidToken = errors.New("недействительный или истёкший токен")
)

// Ошибки сундука
var (
	// ErrTelegramRequired — пользователь не подтвердил членство в канале
	ErrTelegramRequired = errors.New("нужно вступить в Telegram-канал")
	// ErrCooldownActive — сундук уже открывался в последние 24 часа
	ErrCooldownActive = errors.New("сундук ещё на перезарядке")
)

// CooldownError оборачивает ErrCooldownActive и несёт время следующего открытия.
type CooldownError struct {
	NextAt time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s до %s", ErrCooldownActive, e.NextAt.UTC().Format(time.RFC3339))
}

// Unwrap позволяет проверять errors.Is(err, ErrCooldownActive).
func (e *CooldownError) Unwrap() error {
	return ErrCooldownActive
}

// Ошибки Telegram-привязки
var (
	// ErrTelegramDisabled — бот не настроен
	ErrTelegramDisabled = errors.New("telegram не настроен")
	// ErrNonceNotFound — одноразовый код привязки не найден
	ErrNonceNotFound = errors.New("код привязки не найден")
	// ErrNonceExpired — код привязки просрочен
	ErrNonceExpired = errors.New("код привязки просрочен")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
