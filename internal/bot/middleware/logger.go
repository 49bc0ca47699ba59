// Package middleware — logger.go: логирование входящих апдейтов.
package middleware

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Logger пишет в лог команду/кнопку и время обработки.
func Logger() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, update tgbotapi.Update) {
			start := time.Now()

			fields := log.Fields{"update_id": update.UpdateID}
			switch {
			case update.Message != nil:
				fields["chat_id"] = update.Message.Chat.ID
				fields["user_id"] = update.Message.From.ID
				if update.Message.IsCommand() {
					fields["command"] = update.Message.Command()
				}
			case update.CallbackQuery != nil:
				fields["user_id"] = update.CallbackQuery.From.ID
				fields["callback"] = update.CallbackQuery.Data
				if update.CallbackQuery.Message != nil {
					fields["chat_id"] = update.CallbackQuery.Message.Chat.ID
				}
			}

			next(ctx, update)

			fields["duration"] = time.Since(start).String()
			log.WithFields(fields).Debug("Апдейт обработан")
		}
	}
}
