// Package middleware — ratelimit.go: защита от спама командами.
// Скользящее окно на пользователя; превышение молча отбрасывается,
// чтобы бот сам не заспамил чат отказами.
package middleware

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

type rateLimiter struct {
	mu       sync.Mutex
	hits     map[int64][]time.Time
	limit    int
	window   time.Duration
	lastTidy time.Time
}

// RateLimit ограничивает каждому пользователю limit команд за window.
func RateLimit(limit int, window time.Duration) Middleware {
	rl := &rateLimiter{
		hits:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, update tgbotapi.Update) {
			// лимитируются только команды; кнопки голосования не трогаем,
			// иначе переголосование в горячем споре упрётся в лимит
			if update.Message == nil || !update.Message.IsCommand() {
				next(ctx, update)
				return
			}
			if !rl.allow(update.Message.From.ID) {
				log.WithFields(log.Fields{
					"user_id": update.Message.From.ID,
					"command": update.Message.Command(),
				}).Warn("Команда отброшена rate limiter-ом")
				return
			}
			next(ctx, update)
		}
	}
}

func (rl *rateLimiter) allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	if now.Sub(rl.lastTidy) > rl.window {
		for id, ts := range rl.hits {
			if len(ts) == 0 || ts[len(ts)-1].Before(cutoff) {
				delete(rl.hits, id)
			}
		}
		rl.lastTidy = now
	}

	ts := rl.hits[userID]
	fresh := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.hits[userID] = fresh
		return false
	}
	rl.hits[userID] = append(fresh, now)
	return true
}
