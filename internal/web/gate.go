package web

import (
	"context"
	"errors"
	"sync"
	"time"
)

// errBusy is returned when every processing slot is taken and the wait
// timeout expires. Callers get a 503 and should retry.
var errBusy = errors.New("too many concurrent uploads, please try again later")

// gateWait is how long a request waits for a slot before giving up.
const gateWait = 10 * time.Second

// uploadGate caps how many upload batches are processed at once. CSV
// parsing holds whole files in memory, so unbounded parallelism can
// exhaust it long before the rate limiter kicks in.
type uploadGate struct {
	slots chan struct{}

	mu     sync.Mutex
	active int
}

func newUploadGate(max int) *uploadGate {
	if max <= 0 {
		max = 1
	}
	return &uploadGate{slots: make(chan struct{}, max)}
}

// acquire claims a slot, waiting up to gateWait. The caller must release
// the slot when processing finishes.
func (g *uploadGate) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, gateWait)
	defer cancel()

	select {
	case g.slots <- struct{}{}:
		g.mu.Lock()
		g.active++
		g.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errBusy
	}
}

func (g *uploadGate) release() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	<-g.slots
}

func (g *uploadGate) activeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// drain blocks until no batches are in flight or the context expires.
// Called during shutdown so in-progress uploads can commit.
func (g *uploadGate) drain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if g.activeCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
