package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_WindowEnforcement(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(time.Second)
	t0 := time.Now()

	// First message from a fresh identity always passes
	req.True(limiter.TryAccept("alice", t0))

	// Second message inside the window is rejected without consuming it
	req.False(limiter.TryAccept("alice", t0.Add(500*time.Millisecond)))

	// After the window has elapsed the next message passes
	req.True(limiter.TryAccept("alice", t0.Add(1100*time.Millisecond)))
}

func TestRateLimiter_IdentitiesAreIndependent(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(time.Second)
	t0 := time.Now()

	req.True(limiter.TryAccept("alice", t0))
	req.True(limiter.TryAccept("bob", t0))
	req.False(limiter.TryAccept("alice", t0.Add(10*time.Millisecond)))
	req.False(limiter.TryAccept("bob", t0.Add(10*time.Millisecond)))
}

func TestRateLimiter_NoDoubleAcceptInsideWindow(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(time.Second)
	t0 := time.Now()

	// Many concurrent attempts at the same instant: exactly one wins.
	var wg sync.WaitGroup
	accepted := make(chan struct{}, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.TryAccept("alice", t0) {
				accepted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(accepted)

	req.Len(accepted, 1)
}
