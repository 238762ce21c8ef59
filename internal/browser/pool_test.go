package browser

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoolAcquireRelease(t *testing.T) {
	pool := NewPool(2, 50*time.Millisecond)
	ctx := context.Background()

	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire returned error: %v", err)
	}
	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire returned error: %v", err)
	}
	if got := pool.InUse(); got != 2 {
		t.Fatalf("InUse = %d, want 2", got)
	}

	if err := pool.Acquire(ctx); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("Acquire on full pool = %v, want ErrPoolExhausted", err)
	}

	pool.Release()
	if err := pool.Acquire(ctx); err != nil {
		t.Fatalf("Acquire after Release returned error: %v", err)
	}
}

func TestPoolAcquireHonorsContext(t *testing.T) {
	pool := NewPool(1, time.Minute)
	if err := pool.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Acquire with cancelled context = %v, want context.Canceled", err)
	}
}

func TestPoolWaitsForFreeSlot(t *testing.T) {
	pool := NewPool(1, time.Second)
	if err := pool.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- pool.Acquire(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	pool.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("waiting Acquire returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiting Acquire did not complete after Release")
	}
}
