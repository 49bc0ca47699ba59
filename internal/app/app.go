// Package app собирает приложение: конфигурация, база, Telegram API,
// сервисы, обработчики, планировщик.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/bot"
	"github.com/vodka-429/pidor-bot-2/internal/config"
	"github.com/vodka-429/pidor-bot-2/internal/db/postgres"
	"github.com/vodka-429/pidor-bot-2/internal/features/coins"
	"github.com/vodka-429/pidor-bot-2/internal/features/game"
	"github.com/vodka-429/pidor-bot-2/internal/features/players"
	"github.com/vodka-429/pidor-bot-2/internal/jobs"
)

// App — собранное приложение.
type App struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	bot       *bot.Bot
	scheduler *jobs.Scheduler
}

// New собирает приложение: подключается к базе, применяет миграции,
// авторизуется в Telegram и связывает все компоненты.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool, migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	api.Debug = cfg.AppEnv == "development"
	log.WithField("bot", api.Self.UserName).Info("Авторизация в Telegram успешна")

	playersSvc := players.NewService(players.NewRepository(pool))
	playersHandler := players.NewHandler(playersSvc, api)

	var coinsSvc *coins.Service
	var coinsHandler *coins.Handler
	var rewarder game.Rewarder
	if cfg.FeatureCoinsEnabled {
		coinsSvc = coins.NewService(coins.NewRepository(pool), playersSvc, cfg)
		coinsHandler = coins.NewHandler(coinsSvc, api, cfg)
		rewarder = coinsSvc
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	gameSvc := game.NewService(game.NewRepository(pool), playersSvc, rewarder, cfg, rng)
	gameHandler := game.NewHandler(gameSvc, api, cfg)

	return &App{
		cfg:       cfg,
		pool:      pool,
		bot:       bot.New(api, cfg, playersSvc, playersHandler, gameHandler, coinsHandler),
		scheduler: jobs.NewScheduler(cfg, api, gameSvc),
	}, nil
}

// Run запускает планировщик и цикл приёма апдейтов; блокируется
// до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}
	a.bot.Run(ctx)
	return nil
}

// Shutdown освобождает ресурсы приложения.
func (a *App) Shutdown() {
	a.scheduler.Stop()
	a.pool.Close()
	log.Info("Приложение остановлено")
}
