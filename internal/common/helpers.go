// Package common содержит общие утилиты, используемые во всём проекте:
// форматирование денег, маскирование email, генерацию кодов.
package common

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shopspring/decimal"
)

// Алфавиты без визуально похожих символов (0/O, 1/l/I).
const (
	referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	claimAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	claimPrefix      = "ZOGGY-"
)

// CentsToDollars переводит центы в доллары с двумя знаками после запятой.
//
// Пример: CentsToDollars(1050) → 10.50
func CentsToDollars(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCents форматирует центы как "10.50" (без знака валюты).
func FormatCents(cents int64) string {
	return CentsToDollars(cents).StringFixed(2)
}

// FormatUSD форматирует центы как "$10.50".
func FormatUSD(cents int64) string {
	return "$" + FormatCents(cents)
}

// MaskEmail скрывает середину локальной части адреса.
//
// Примеры:
//
//	MaskEmail("marta@example.com") → "ma***@example.com"
//	MaskEmail("a@b.io")            → "a***@b.io"
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	local, domain := email[:at], email[at:]
	keep := 2
	if len(local) < keep {
		keep = len(local)
	}
	return local[:keep] + "***" + domain
}

// NewReferralCode генерирует короткий реферальный код из 6 символов.
func NewReferralCode() (string, error) {
	return gonanoid.Generate(referralAlphabet, 6)
}

// NewClaimCode генерирует код получения вида ZOGGY-XXXXXXXX.
func NewClaimCode() (string, error) {
	code, err := gonanoid.Generate(claimAlphabet, 8)
	if err != nil {
		return "", err
	}
	return claimPrefix + code, nil
}

// NormalizeEmail приводит email к нижнему регистру и убирает пробелы.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail — грубая синтаксическая проверка: одна @, непустые части, точка в домене.
func ValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1 && !strings.ContainsAny(email, " \t\r\n")
}
