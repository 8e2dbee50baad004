package telegram

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"zoggy.app/waitlist/internal/features/users"
)

// Handler — HTTP-обработчики привязки Telegram.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Deeplink — GET /api/telegram/deeplink
func (h *Handler) Deeplink(c *gin.Context) {
	link, err := h.service.CreateDeeplink(c.Request.Context(), users.CurrentUser(c).ID)
	if err != nil {
		users.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link": link})
}

// VerifyStatus — GET /api/telegram/verify-status
func (h *Handler) VerifyStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"telegramVerified": users.CurrentUser(c).TelegramJoinedOK})
}
