// Package chest — handlers.go содержит HTTP-обработчик открытия сундука.
package chest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"zoggy.app/waitlist/internal/common"
	"zoggy.app/waitlist/internal/features/users"
)

// Handler обрабатывает HTTP-запросы сундука.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Open — POST /api/chest/open
func (h *Handler) Open(c *gin.Context) {
	u := users.CurrentUser(c)
	res, err := h.service.Open(c.Request.Context(), u.ID)

	var cooldown *common.CooldownError
	if errors.As(err, &cooldown) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "cooldown_active",
			"nextChestAt": cooldown.NextAt.UTC().Format(time.RFC3339),
		})
		return
	}
	if err != nil {
		users.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reward":      common.FormatUSD(res.Cents),
		"cents":       res.Cents,
		"nextChestAt": res.NextChestAt.UTC().Format(time.RFC3339),
	})
}
