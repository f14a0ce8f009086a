package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter()
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(ctx, "login:1.2.3.4", 3, time.Minute))
	}
	assert.False(t, l.Allow(ctx, "login:1.2.3.4", 3, time.Minute))
	assert.True(t, l.Allow(ctx, "login:5.6.7.8", 3, time.Minute), "keys are independent")

	now = now.Add(time.Minute)
	assert.True(t, l.Allow(ctx, "login:1.2.3.4", 3, time.Minute), "window resets")
}

func TestMemoryLimiterDisabled(t *testing.T) {
	l := NewMemoryLimiter()
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow(context.Background(), "k", 0, time.Minute))
	}
}
