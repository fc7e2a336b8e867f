package context

import (
	"context"
	"testing"
	"time"
)

func TestIsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if IsCanceled(ctx) {
		t.Error("fresh context should not be canceled")
	}

	cancel()
	if !IsCanceled(ctx) {
		t.Error("canceled context should report canceled")
	}
}

func TestIsTimedOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	<-ctx.Done()
	if !IsTimedOut(ctx) {
		t.Error("expired context should report timed out")
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	if IsTimedOut(ctx2) {
		t.Error("canceled context should not report timed out")
	}
}

func TestSleep(t *testing.T) {
	t.Run("completes", func(t *testing.T) {
		start := time.Now()
		if err := Sleep(context.Background(), 10*time.Millisecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
			t.Errorf("returned after %v, want >= 10ms", elapsed)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := Sleep(ctx, time.Second); err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("zero duration", func(t *testing.T) {
		if err := Sleep(context.Background(), 0); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
