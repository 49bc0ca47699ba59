// Package middleware — recovery.go: паника в обработчике одного
// апдейта не должна ронять весь бот.
package middleware

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Recovery перехватывает панику обработчика и пишет её в лог.
func Recovery() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, update tgbotapi.Update) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"panic": r,
						"stack": string(debug.Stack()),
					}).Error("Паника при обработке апдейта")
				}
			}()
			next(ctx, update)
		}
	}
}
