package feed

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Handler отдаёт ленту последних выигрышей.
type Handler struct {
	service *Service
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type winView struct {
	Username string          `json:"username"`
	Amount   json.RawMessage `json:"amount"` // число с двумя знаками, без потери точности
	Avatar   string          `json:"avatar"`
	Country  Country         `json:"country"`
	At       time.Time       `json:"at"`
}

// LastWins — GET /api/last-wins?limit=
func (h *Handler) LastWins(c *gin.Context) {
	n, _ := strconv.Atoi(c.Query("limit"))
	events, err := h.service.Latest(c.Request.Context(), n)
	if err != nil {
		log.WithError(err).Error("[FEED] Ошибка чтения ленты")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	out := make([]winView, 0, len(events))
	for _, e := range events {
		out = append(out, winView{
			Username: e.Username,
			Amount:   json.RawMessage(e.Amount.StringFixed(2)),
			Avatar:   e.Avatar,
			Country:  e.Country,
			At:       e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
