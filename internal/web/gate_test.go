package web

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestUploadGate_AcquireRelease(t *testing.T) {
	g := newUploadGate(2)
	ctx := context.Background()

	if got := g.activeCount(); got != 0 {
		t.Errorf("initial activeCount = %d, want 0", got)
	}

	if err := g.acquire(ctx); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := g.acquire(ctx); err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}
	if got := g.activeCount(); got != 2 {
		t.Errorf("activeCount = %d, want 2", got)
	}

	g.release()
	g.release()

	if got := g.activeCount(); got != 0 {
		t.Errorf("final activeCount = %d, want 0", got)
	}
}

func TestUploadGate_ContextCancelWhileWaiting(t *testing.T) {
	g := newUploadGate(1)
	if err := g.acquire(context.Background()); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("acquire did not return after cancellation")
	}

	g.release()
}

func TestUploadGate_NeverExceedsCap(t *testing.T) {
	const max = 3
	g := newUploadGate(max)

	var wg sync.WaitGroup
	var mu sync.Mutex
	peak := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.acquire(context.Background()); err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			defer g.release()

			mu.Lock()
			if n := g.activeCount(); n > peak {
				peak = n
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if peak > max {
		t.Errorf("peak concurrency %d exceeds cap %d", peak, max)
	}
	if got := g.activeCount(); got != 0 {
		t.Errorf("final activeCount = %d, want 0", got)
	}
}

func TestUploadGate_Drain(t *testing.T) {
	g := newUploadGate(2)
	ctx := context.Background()

	g.acquire(ctx)
	g.acquire(ctx)

	done := make(chan error, 1)
	go func() {
		done <- g.drain(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("drain returned while batches were active")
	case <-time.After(50 * time.Millisecond):
	}

	g.release()
	g.release()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("drain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("drain did not complete after release")
	}
}

func TestUploadGate_DrainTimeout(t *testing.T) {
	g := newUploadGate(1)
	g.acquire(context.Background())
	defer g.release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := g.drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}
