// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, Redis, репозитории, сервисы,
// обработчики, HTTP-роутер, Telegram-бота и планировщик задач.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/auth"
	"zoggy.app/waitlist/internal/config"
	"zoggy.app/waitlist/internal/db/postgres"
	"zoggy.app/waitlist/internal/features/admin"
	"zoggy.app/waitlist/internal/features/chest"
	"zoggy.app/waitlist/internal/features/feed"
	"zoggy.app/waitlist/internal/features/rewards"
	"zoggy.app/waitlist/internal/features/telegram"
	"zoggy.app/waitlist/internal/features/users"
	"zoggy.app/waitlist/internal/jobs"
	"zoggy.app/waitlist/internal/metrics"
	"zoggy.app/waitlist/internal/server"
	"zoggy.app/waitlist/internal/server/middleware"
)

// App содержит все компоненты приложения.
type App struct {
	Server    *server.Server
	Scheduler *jobs.Scheduler
	Bot       *telegram.Bot // nil, если Telegram не настроен
	DB        *pgxpool.Pool
	Redis     *redis.Client // nil, если REDIS_ADDR не задан

	limiter *middleware.RateLimiter
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	a := &App{DB: pool}

	// === 2. Redis (кэш ленты) ===
	if cfg.RedisAddr != "" {
		rdb, err := newRedis(ctx, cfg)
		if err != nil {
			log.WithError(err).Warn("Redis недоступен, лента читается напрямую из БД")
		} else {
			a.Redis = rdb
		}
	}

	// === 3. Таблицы наград ===
	tables, err := rewards.LoadTables(cfg.RewardTablesPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка загрузки таблиц наград: %w", err)
	}

	// === 4. Общая инфраструктура ===
	m := metrics.New()
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer)

	// === 5. Репозитории ===
	userRepo := users.NewRepository(pool)
	chestRepo := chest.NewRepository(pool)
	feedRepo := feed.NewRepository(pool)
	telegramRepo := telegram.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 6. Telegram Bot API (необязателен) ===
	var botAPI *tgbotapi.BotAPI
	botUsername := cfg.TelegramBotUsername
	if cfg.TelegramEnabled() {
		botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.WithError(err).Error("Ошибка создания Telegram API, привязка Telegram отключена")
		} else {
			botAPI.Debug = cfg.AppEnv == "development" && cfg.AppLogLevel == "trace"
			if botUsername == "" {
				botUsername = botAPI.Self.UserName
			}
			log.Infof("Авторизован как @%s", botAPI.Self.UserName)
		}
	}

	// === 7. Сервисы ===
	userService := users.NewService(userRepo, tokens, users.NewMailer(cfg), users.Options{
		PublicBaseURL:     cfg.PublicBaseURL,
		SessionTTL:        cfg.SessionTTL,
		VerificationTTL:   cfg.VerificationTTL,
		MaxSignupsPerIP:   cfg.MaxSignupsPerIPPerDay,
		AllowSelfReferral: cfg.AllowSelfRef,
		ChestCooldown:     cfg.ChestCooldown,
	})
	chestService := chest.NewService(chestRepo, rewards.NewDrawer(tables, nil), m, cfg.ChestCooldown)
	telegramService := telegram.NewService(telegramRepo, botUsername, botAPI != nil, cfg.TelegramNonceTTL)
	adminService := admin.NewService(adminRepo, tokens, admin.Options{
		PasswordHash: cfg.AdminPasswordHash,
		SessionTTL:   cfg.AdminSessionTTL,
		MaxAttempts:  cfg.AdminMaxAttempts,
	})

	var cache *feed.Cache
	var invalidator feed.Invalidator
	if a.Redis != nil {
		cache = feed.NewCache(a.Redis, cfg.FeedCacheTTL)
		invalidator = cache
	}
	feedService := feed.NewService(feedRepo, cache, cfg.FeedReadDefault, cfg.FeedReadMax)

	// === 8. HTTP ===
	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	router := server.NewRouter(server.Handlers{
		Users:    users.NewHandler(userService),
		Chest:    chest.NewHandler(chestService),
		Telegram: telegram.NewHandler(telegramService),
		Feed:     feed.NewHandler(feedService),
		Admin:    admin.NewHandler(adminService),
	}, server.Options{
		Metrics:     m,
		AuthLimiter: a.limiter,
		Health:      pool.Ping,
	})
	a.Server = server.New(cfg.HTTPPort, router, cfg.ShutdownTimeout)

	// === 9. Бот ===
	if botAPI != nil {
		a.Bot = telegram.NewBot(botAPI, cfg, telegramService)
	}

	// === 10. Планировщик задач ===
	var feedTicker jobs.FeedTicker
	if cfg.FeedEnabled {
		engine := feed.NewEngine(feed.CadenceFromConfig(cfg), feed.DefaultTiers(), rand.New(rand.NewSource(time.Now().UnixNano())))
		feedTicker = feed.NewScheduler(engine, feedRepo, invalidator, m, feed.SchedulerOptions{
			Cap:          cfg.FeedCap,
			ErrorBackoff: cfg.FeedErrorBackoff,
		})
	}
	var expirer jobs.NonceExpirer
	if botAPI != nil {
		expirer = telegramService
	}
	a.Scheduler = jobs.NewScheduler(feedTicker, cfg.FeedTickInterval, expirer)

	return a, nil
}

// newRedis подключается к Redis, повторяя ping с экспоненциальной паузой.
func newRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	err := backoff.Retry(func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("Redis недоступен, повторяем...")
			return err
		}
		return nil
	}, b)
	if err != nil {
		client.Close()
		return nil, err
	}
	log.WithField("addr", cfg.RedisAddr).Info("Подключение к Redis установлено")
	return client, nil
}

// Close освобождает ресурсы: rate limiter, Redis, пул БД.
func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
