// Package postgres управляет подключением к базе данных PostgreSQL.
// Используется пул соединений pgxpool для эффективной работы
// с несколькими горутинами одновременно.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"zoggy.app/waitlist/internal/config"
)

// NewPool создаёт пул соединений и ждёт, пока база ответит на ping.
// В docker-compose сервис может стартовать раньше PostgreSQL, поэтому
// ping повторяется с экспоненциальной паузой.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 8), ctx)
	err = backoff.Retry(func() error {
		if err := pool.Ping(ctx); err != nil {
			log.WithError(err).Warn("PostgreSQL недоступен, повторяем...")
			return err
		}
		return nil
	}, b)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	log.WithFields(log.Fields{
		"host": cfg.DBHost,
		"db":   cfg.DBName,
	}).Info("Подключение к PostgreSQL установлено")
	return pool, nil
}
