// Package middleware содержит промежуточные обработчики HTTP:
// контекст запроса, логирование, восстановление после паники и rate-limiting.
package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	contextIPKey     = "reqIP"
	contextUAKey     = "reqUA"
	contextDeviceKey = "reqDevice"
)

// CaptureContext сохраняет IP, User-Agent и X-Device-Id в контексте запроса.
func CaptureContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextIPKey, c.ClientIP())
		c.Set(contextUAKey, c.GetHeader("User-Agent"))
		c.Set(contextDeviceKey, c.GetHeader("X-Device-Id"))
		c.Next()
	}
}

// RequestMeta возвращает IP, User-Agent и идентификатор устройства.
// Если CaptureContext не подключён, IP берётся напрямую из запроса.
func RequestMeta(c *gin.Context) (ip, ua, deviceID string) {
	ip = c.GetString(contextIPKey)
	if ip == "" {
		ip = c.ClientIP()
	}
	return ip, c.GetString(contextUAKey), c.GetString(contextDeviceKey)
}
