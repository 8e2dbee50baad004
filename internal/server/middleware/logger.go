package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/metrics"
)

// Logger логирует каждый запрос: метод, маршрут, статус, длительность, IP.
// Если m != nil, запрос учитывается в метриках.
func Logger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"route":    route,
			"status":   status,
			"duration": time.Since(start).Round(time.Millisecond),
			"ip":       c.ClientIP(),
		})
		switch {
		case status >= 500:
			entry.Error("HTTP-запрос завершился ошибкой")
		case status >= 400:
			entry.Info("HTTP-запрос отклонён")
		default:
			entry.Debug("HTTP-запрос")
		}

		if m != nil {
			m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		}
	}
}
