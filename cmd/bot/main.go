// Телеграм-бот «Пидор дня»: ежедневный розыгрыш, учёт пропущенных
// дней и финальное взвешенное голосование в конце года.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/vodka-429/pidor-bot-2/internal/app"
	"github.com/vodka-429/pidor-bot-2/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Ошибка загрузки конфигурации")
	}

	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Ошибка инициализации приложения")
	}
	defer a.Shutdown()

	if err := a.Run(ctx); err != nil {
		log.WithError(err).Fatal("Ошибка работы приложения")
	}
}

func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.AppLogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if cfg.AppEnv == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}
