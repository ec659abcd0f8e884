package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowEnforcesLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("r-1"), "request %d within limit", i+1)
	}
	assert.False(t, limiter.Allow("r-1"))
}

func TestAllowKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	assert.True(t, limiter.Allow("r-1"))
	assert.False(t, limiter.Allow("r-1"))
	assert.True(t, limiter.Allow("r-2"))
}

func TestAllowWindowExpiryReadmits(t *testing.T) {
	limiter := NewRateLimiter(2, 50*time.Millisecond)

	assert.True(t, limiter.Allow("r-1"))
	assert.True(t, limiter.Allow("r-1"))
	assert.False(t, limiter.Allow("r-1"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, limiter.Allow("r-1"))
}

func TestResetClearsWindow(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	assert.True(t, limiter.Allow("r-1"))
	assert.False(t, limiter.Allow("r-1"))

	limiter.Reset("r-1")
	assert.True(t, limiter.Allow("r-1"))
}
