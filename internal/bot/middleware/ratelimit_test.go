package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := &rateLimiter{
		hits:   make(map[int64][]time.Time),
		limit:  3,
		window: time.Minute,
	}

	for i := 0; i < 3; i++ {
		assert.True(t, rl.allow(1), "запрос %d должен пройти", i+1)
	}
	assert.False(t, rl.allow(1), "четвёртый запрос в окне отбрасывается")

	// лимит у каждого пользователя свой
	assert.True(t, rl.allow(2))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := &rateLimiter{
		hits:   make(map[int64][]time.Time),
		limit:  2,
		window: time.Minute,
	}

	old := time.Now().Add(-2 * time.Minute)
	rl.hits[1] = []time.Time{old, old}

	// старые запросы выпали из окна
	assert.True(t, rl.allow(1))
}
