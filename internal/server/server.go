// Package server собирает gin-роутер и управляет жизненным циклом HTTP-сервера.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/features/admin"
	"zoggy.app/waitlist/internal/features/chest"
	"zoggy.app/waitlist/internal/features/feed"
	"zoggy.app/waitlist/internal/features/telegram"
	"zoggy.app/waitlist/internal/features/users"
	"zoggy.app/waitlist/internal/metrics"
	"zoggy.app/waitlist/internal/server/middleware"
)

// Handlers — обработчики фич, подключаемые к роутеру.
type Handlers struct {
	Users    *users.Handler
	Chest    *chest.Handler
	Telegram *telegram.Handler
	Feed     *feed.Handler
	Admin    *admin.Handler
}

// Options — общая инфраструктура роутера.
type Options struct {
	Metrics     *metrics.Metrics
	AuthLimiter *middleware.RateLimiter // лимит на auth-маршруты и вход в админку
	Health      func(ctx context.Context) error
}

// NewRouter регистрирует все маршруты API.
func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(opts.Metrics), middleware.Recovery(), middleware.CaptureContext())

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/health", health(opts.Health))
	api.GET("/last-wins", h.Feed.LastWins)
	api.GET("/leaderboard/top10", h.Users.Leaderboard)

	limited := []gin.HandlerFunc{}
	if opts.AuthLimiter != nil {
		limited = append(limited, opts.AuthLimiter.Middleware())
	}

	authGroup := api.Group("/auth", limited...)
	authGroup.POST("/signup", h.Users.Signup)
	authGroup.POST("/signin", h.Users.Signin)
	authGroup.GET("/verify-email", h.Users.VerifyEmail)
	authGroup.POST("/resend-verification", h.Users.ResendVerification)

	session := api.Group("", h.Users.RequireSession())
	session.GET("/me", h.Users.Me)
	session.GET("/dashboard", h.Users.Dashboard)
	session.GET("/referrals", h.Users.Referrals)
	session.POST("/chest/open", h.Chest.Open)
	session.GET("/telegram/deeplink", h.Telegram.Deeplink)
	session.GET("/telegram/verify-status", h.Telegram.VerifyStatus)

	adminGroup := api.Group("/admin")
	adminGroup.POST("/login", append(limited, h.Admin.Login)...)
	protected := adminGroup.Group("", h.Admin.RequireAdmin())
	protected.GET("/users", h.Admin.Users)
	protected.GET("/referrals", h.Admin.Referrals)
	protected.GET("/exports/claim-codes.csv", h.Admin.ClaimCodesCSV)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})
	return r
}

func health(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				log.WithError(err).Warn("Health check не прошёл")
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// Server — HTTP-сервер с мягкой остановкой.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

// New создаёт сервер на порту port.
func New(port string, handler http.Handler, shutdownTimeout time.Duration) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

// Run слушает порт до отмены ctx, затем дожидается активных запросов.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.srv.Addr).Info("HTTP-сервер запущен")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	log.Info("HTTP-сервер останавливается...")
	return s.srv.Shutdown(shutdownCtx)
}
