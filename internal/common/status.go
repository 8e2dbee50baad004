package common

import (
	"errors"
	"net/http"
)

// ErrorStatus сопоставляет ошибку с HTTP-статусом и кодом ошибки API.
// Неизвестные ошибки дают 500 server_error.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrEmailRequired):
		return http.StatusBadRequest, "email_required"
	case errors.Is(err, ErrEmailInvalid):
		return http.StatusBadRequest, "email_invalid"
	case errors.Is(err, ErrEmailExists):
		return http.StatusBadRequest, "email_already_exists"
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, ErrEmailNotVerified):
		return http.StatusForbidden, "email_not_verified"
	case errors.Is(err, ErrEmailAlreadyVerified):
		return http.StatusBadRequest, "email_already_verified"
	case errors.Is(err, ErrTooManySignups):
		return http.StatusTooManyRequests, "too_many_signups_from_ip"
	case errors.Is(err, ErrInvalidToken):
		return http.StatusBadRequest, "invalid_or_expired_token"
	case errors.Is(err, ErrTelegramRequired):
		return http.StatusForbidden, "telegram_required"
	case errors.Is(err, ErrCooldownActive):
		return http.StatusTooManyRequests, "cooldown_active"
	case errors.Is(err, ErrTelegramDisabled):
		return http.StatusServiceUnavailable, "telegram_not_configured"
	case errors.Is(err, ErrNonceNotFound):
		return http.StatusNotFound, "nonce_not_found"
	case errors.Is(err, ErrNonceExpired):
		return http.StatusGone, "nonce_expired"
	case errors.Is(err, ErrWrongPassword):
		return http.StatusUnauthorized, "invalid_password"
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too_many_attempts"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
