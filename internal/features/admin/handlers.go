// Package admin — handlers.go содержит HTTP-обработчики админ-панели.
package admin

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/common"
	"zoggy.app/waitlist/internal/server/middleware"
)

// Handler обрабатывает запросы админки.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func respondError(c *gin.Context, err error) {
	status, code := common.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("route", c.FullPath()).Error("Ошибка админки")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

// RequireAdmin пропускает только запросы с админским токеном.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no_token"})
			return
		}
		if err := h.service.Authorize(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad_token"})
			return
		}
		c.Next()
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login — POST /api/admin/login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		respondError(c, common.ErrWrongPassword)
		return
	}
	ip, _, _ := middleware.RequestMeta(c)
	token, err := h.service.Login(c.Request.Context(), ip, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Users — GET /api/admin/users?email=
func (h *Handler) Users(c *gin.Context) {
	rows, err := h.service.Users(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []UserRow{}
	}
	c.JSON(http.StatusOK, rows)
}

// Referrals — GET /api/admin/referrals
func (h *Handler) Referrals(c *gin.Context) {
	rows, err := h.service.Referrers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []ReferrerRow{}
	}
	c.JSON(http.StatusOK, rows)
}

// ClaimCodesCSV — GET /api/admin/exports/claim-codes.csv
func (h *Handler) ClaimCodesCSV(c *gin.Context) {
	var buf bytes.Buffer
	n, err := h.service.ExportClaimCodes(c.Request.Context(), &buf)
	if err != nil {
		respondError(c, err)
		return
	}
	log.WithField("rows", n).Info("Выгрузка claim-кодов")
	c.Header("Content-Disposition", `attachment; filename="claim-codes.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
