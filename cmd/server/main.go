// Package main — точка входа сервиса листа ожидания.
// Загружает конфигурацию, инициализирует приложение и запускает HTTP-сервер,
// планировщик ленты и Telegram-бота.
// Поддерживает graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/app"
	"zoggy.app/waitlist/internal/config"
)

func main() {
	setupLogging()

	log.Info("=== Сервис запускается ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.AppEnv == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	// Контекст отменяется по Ctrl+C / docker stop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.Close()

	if err := application.Scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Не удалось запустить планировщик")
	}
	defer application.Scheduler.Stop()

	if application.Bot != nil {
		go application.Bot.Start(ctx)
	} else {
		log.Warn("Telegram не настроен, бот не запущен")
	}

	log.Info("=== Сервис готов к работе ===")

	if err := application.Server.Run(ctx); err != nil {
		log.WithError(err).Error("HTTP-сервер завершился с ошибкой")
	}

	log.Info("=== Сервис остановлен ===")
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
