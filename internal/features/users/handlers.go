// Package users — handlers.go содержит HTTP-обработчики регистрации, входа и кабинета.
package users

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/common"
	"zoggy.app/waitlist/internal/server/middleware"
)

const contextUserKey = "currentUser"

// Handler обрабатывает HTTP-запросы пользователей.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RespondError пишет ошибку в формате {"error": "<code>"}.
func RespondError(c *gin.Context, err error) {
	status, code := common.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("route", c.FullPath()).Error("Ошибка обработки запроса")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

// RequireSession пропускает только запросы с действующей сессией
// (Authorization: Bearer <token>) и кладёт пользователя в контекст.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no_token"})
			return
		}
		u, err := h.service.Authenticate(c.Request.Context(), token)
		if errors.Is(err, common.ErrInvalidToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad_token"})
			return
		}
		if err != nil {
			RespondError(c, err)
			return
		}
		c.Set(contextUserKey, u)
		c.Next()
	}
}

// CurrentUser возвращает пользователя, положенного RequireSession.
func CurrentUser(c *gin.Context) *User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*User)
	return u
}

type emailRequest struct {
	Email string `json:"email"`
	Ref   string `json:"ref"`
}

// Signup — POST /api/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, common.ErrEmailRequired)
		return
	}
	ip, ua, device := middleware.RequestMeta(c)
	u, err := h.service.Signup(c.Request.Context(), req.Email, strings.TrimSpace(req.Ref), Meta{IP: ip, UA: ua, DeviceID: device})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Signup successful. Please verify your email.",
		"referralCode": u.ReferralCode,
	})
}

// Signin — POST /api/auth/signin
func (h *Handler) Signin(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, common.ErrEmailRequired)
		return
	}
	session, err := h.service.Signin(c.Request.Context(), req.Email)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": session.Token,
		"user": gin.H{
			"email":        session.User.Email,
			"claimCode":    session.User.ClaimCode,
			"totalCredits": common.FormatCents(session.User.Cents),
		},
	})
}

// VerifyEmail — GET /api/auth/verify-email?token=
func (h *Handler) VerifyEmail(c *gin.Context) {
	already, err := h.service.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		RespondError(c, err)
		return
	}
	msg := "Email verified successfully!"
	if already {
		msg = "Email already verified"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// ResendVerification — POST /api/auth/resend-verification
func (h *Handler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, common.ErrEmailRequired)
		return
	}
	if err := h.service.ResendVerification(c.Request.Context(), req.Email); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification email resent."})
}

// Me — GET /api/me
func (h *Handler) Me(c *gin.Context) {
	u := CurrentUser(c)
	now := h.service.Now()

	var lastOpen *string
	if u.LastOpenAt != nil {
		s := u.LastOpenAt.UTC().Format(time.RFC3339)
		lastOpen = &s
	}
	c.JSON(http.StatusOK, gin.H{
		"email":            u.Email,
		"totalCredits":     common.FormatCents(u.Cents),
		"claimCode":        u.ClaimCode,
		"nextChestAt":      u.NextChestAt(now, h.service.ChestCooldown()).UTC().Format(time.RFC3339),
		"lastChestOpenAt":  lastOpen,
		"telegramVerified": u.TelegramJoinedOK,
		"emailVerified":    u.EmailVerified,
	})
}

// Dashboard — GET /api/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context(), CurrentUser(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	u := d.User
	c.JSON(http.StatusOK, gin.H{
		"email":        u.Email,
		"referralCode": u.ReferralCode,
		"claimCode":    u.ClaimCode,
		"referrals":    u.ReferralCount,
		"position":     d.Position,
		"total":        d.Total,
		"cents":        u.Cents,
		"balance":      common.FormatCents(u.Cents),
		"telegram": gin.H{
			"linked":   u.TelegramUserID != nil,
			"verified": u.TelegramJoinedOK,
		},
		"lastOpenAt":      u.LastOpenAt,
		"openCount":       u.OpenCount,
		"cooldownSeconds": d.CooldownSeconds,
	})
}

// Referrals — GET /api/referrals
func (h *Handler) Referrals(c *gin.Context) {
	u := CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"referralLink":   h.service.ReferralLink(u),
		"referralsCount": u.ReferralCount,
	})
}

// Leaderboard — GET /api/leaderboard/top10
func (h *Handler) Leaderboard(c *gin.Context) {
	entries, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
