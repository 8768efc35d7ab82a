package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPLimiterBurstAndRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(60) // one token per second, burst 30
	l.now = func() time.Time { return now }

	for i := 0; i < 30; i++ {
		assert.True(t, l.allow("1.2.3.4"), "request %d", i)
	}
	assert.False(t, l.allow("1.2.3.4"))
	// Other clients have their own bucket.
	assert.True(t, l.allow("5.6.7.8"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"))
}

func TestIPLimiterForgetsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(1)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("a"))
	assert.Len(t, l.limiters, 1)

	now = now.Add(limiterTTL + time.Second)
	assert.True(t, l.allow("b"))
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "b")
}

func TestNewIPLimiterClampsRate(t *testing.T) {
	l := newIPLimiter(0)
	assert.Equal(t, 1, l.burst)
}
