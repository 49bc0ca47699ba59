// Package middleware — цепочка обработки апдейтов Telegram.
package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandlerFunc — обработчик одного апдейта.
type HandlerFunc func(ctx context.Context, update tgbotapi.Update)

// Middleware оборачивает обработчик.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain собирает цепочку: первый middleware — внешний.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
