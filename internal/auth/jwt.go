// Package auth выпускает и проверяет JWT-токены сервиса:
// сессии пользователей, ссылки подтверждения email и сессии админки.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Типы токенов. Токен одного типа нельзя использовать вместо другого.
const (
	TypeSession      = "session"
	TypeVerification = "email_verification"
	TypeAdmin        = "admin"
)

// RoleAdmin — роль администратора.
const RoleAdmin = "admin"

// ErrWrongType — токен валиден, но выпущен для другой цели.
var ErrWrongType = errors.New("неверный тип токена")

// Claims — полезная нагрузка токена.
type Claims struct {
	UserID      int64  `json:"uid,omitempty"`
	AuthVersion int    `json:"v,omitempty"`
	Type        string `json:"type"`
	Role        string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Manager подписывает токены HS256.
type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewManager создаёт менеджер токенов.
func NewManager(secret, issuer string) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// IssueSession выпускает сессию пользователя. Смена auth_version у пользователя
// отзывает все ранее выданные сессии.
func (m *Manager) IssueSession(userID int64, authVersion int, ttl time.Duration) (string, error) {
	return m.issue(&Claims{UserID: userID, AuthVersion: authVersion, Type: TypeSession}, ttl)
}

// IssueVerification выпускает токен для ссылки подтверждения email.
func (m *Manager) IssueVerification(userID int64, ttl time.Duration) (string, error) {
	return m.issue(&Claims{UserID: userID, Type: TypeVerification}, ttl)
}

// IssueAdmin выпускает токен админки.
func (m *Manager) IssueAdmin(ttl time.Duration) (string, error) {
	return m.issue(&Claims{Type: TypeAdmin, Role: RoleAdmin}, ttl)
}

func (m *Manager) issue(claims *Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись, срок и тип токена.
func (m *Manager) Parse(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type != wantType {
		return nil, ErrWrongType
	}
	return claims, nil
}
