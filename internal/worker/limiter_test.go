package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_IndependentHosts(t *testing.T) {
	l := NewLimiter(1, 1) // 1 req/s, burst 1

	ctx := context.Background()
	start := time.Now()
	if err := l.Wait(ctx, "https://a.example.com/page"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := l.Wait(ctx, "https://b.example.com/page"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	// Different hosts draw from different budgets, so neither blocks
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("independent hosts should not block each other, took %v", elapsed)
	}
}

func TestLimiter_SameHostBlocks(t *testing.T) {
	l := NewLimiter(0.001, 1) // effectively one request, then a long wait

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://a.example.com/one"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if err := l.Wait(ctx, "https://a.example.com/two"); err == nil {
		t.Error("second Wait on the same host should hit the deadline")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.SetHostRate("fast.example.com", 1000, 10)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx, "https://fast.example.com/"); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestLimiter_BadURL(t *testing.T) {
	l := NewLimiter(1, 1)
	if err := l.Wait(context.Background(), "://not-a-url"); err == nil {
		t.Error("expected an error for an unparseable URL")
	}
}
