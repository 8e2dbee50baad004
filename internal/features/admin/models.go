// Package admin реализует админ-панель с парольной аутентификацией:
// вход по Argon2id-хешу, просмотр участников и выгрузка claim-кодов в CSV.
// models.go описывает строки выдачи и попытки входа.
package admin

import "time"

// LoginAttempt — попытка входа (для защиты от brute-force).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	IP          string    `db:"ip"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// UserRow — строка списка участников.
type UserRow struct {
	Email            string    `json:"email"`
	Cents            int64     `json:"-"`
	TotalCredits     string    `json:"totalCredits"`
	ClaimCode        string    `json:"claimCode"`
	EmailVerified    bool      `json:"emailVerified"`
	TelegramVerified bool      `json:"telegramVerified"`
	Referrals        int       `json:"referrals"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ReferrerRow — участник с приглашёнными.
type ReferrerRow struct {
	User           string `json:"user"`
	ReferralsCount int    `json:"referralsCount"`
}

// ClaimCodeRow — строка выгрузки claim-кодов.
type ClaimCodeRow struct {
	Email         string
	ClaimCode     string
	Cents         int64
	ReferralCode  string
	Referrals     int
	EmailVerified bool
}
