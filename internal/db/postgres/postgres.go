// Package postgres — подключение к PostgreSQL и миграции схемы.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/config"
)

// NewPool создаёт пул соединений с PostgreSQL и проверяет доступность
// базы. БД в docker-compose может подниматься дольше бота, поэтому
// пинг повторяется с паузами.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	const attempts = 10
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			log.WithFields(log.Fields{
				"host": cfg.DBHost,
				"db":   cfg.DBName,
			}).Info("Подключение к PostgreSQL установлено")
			return pool, nil
		}
		log.WithError(err).Warnf("PostgreSQL недоступен, попытка %d/%d", i, attempts)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("PostgreSQL недоступен после %d попыток: %w", attempts, err)
}
