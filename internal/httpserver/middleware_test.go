package httpserver

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterConcurrentFirstRequests(t *testing.T) {
	for range 20 {
		rl := newRateLimiter(0.001, 1)

		var allowed atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if rl.allow("10.0.0.1") {
					allowed.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), allowed.Load())
	}
}

func TestRateLimiterSeparatesClients(t *testing.T) {
	rl := newRateLimiter(0.001, 1)
	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	assert.True(t, rl.allow("10.0.0.2"))
	assert.Same(t, rl.limiterFor("10.0.0.2"), rl.limiterFor("10.0.0.2"))
}
