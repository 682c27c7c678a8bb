package shutdown

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewCoordinator(t *testing.T) {
	coord, ctx := New()

	if coord == nil {
		t.Fatal("New should return a coordinator")
	}
	if ctx == nil {
		t.Fatal("New should return a context")
	}
	if coord.gracePeriod != DefaultGracePeriod {
		t.Errorf("Default grace period = %v, want %v", coord.gracePeriod, DefaultGracePeriod)
	}
}

func TestWithGracePeriod(t *testing.T) {
	customPeriod := 10 * time.Second
	coord, _ := New(WithGracePeriod(customPeriod))

	if coord.gracePeriod != customPeriod {
		t.Errorf("Grace period = %v, want %v", coord.gracePeriod, customPeriod)
	}
}

func TestShutdownOnlyOnce(t *testing.T) {
	callCount := 0
	coord, _ := New()
	coord.RegisterCleanup("counter", func(context.Context) error {
		callCount++
		return nil
	})

	coord.Shutdown("first")
	coord.Shutdown("second")
	coord.Shutdown("third")

	if callCount != 1 {
		t.Errorf("Cleanup called %d times, want 1", callCount)
	}
	if coord.ShutdownReason() != "first" {
		t.Errorf("ShutdownReason = %q, want %q", coord.ShutdownReason(), "first")
	}
}

func TestShutdownCancelsContext(t *testing.T) {
	coord, ctx := New()

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be done before shutdown")
	default:
	}

	coord.Shutdown("test")

	select {
	case <-ctx.Done():
		// Expected
	case <-time.After(time.Second):
		t.Fatal("Context should be canceled after shutdown")
	}
}

func TestShutdownChan(t *testing.T) {
	coord, _ := New()

	select {
	case <-coord.ShutdownChan():
		t.Fatal("ShutdownChan should not be closed before shutdown")
	default:
	}

	coord.Shutdown("test")

	select {
	case <-coord.ShutdownChan():
		// Expected
	case <-time.After(time.Second):
		t.Fatal("ShutdownChan should be closed after shutdown")
	}
}

func TestIsShuttingDown(t *testing.T) {
	coord, _ := New()

	if coord.IsShuttingDown() {
		t.Error("IsShuttingDown should be false before shutdown")
	}

	coord.Shutdown("test")

	if !coord.IsShuttingDown() {
		t.Error("IsShuttingDown should be true after shutdown")
	}
}

func TestShutdownReason(t *testing.T) {
	coord, _ := New()

	if coord.ShutdownReason() != "" {
		t.Error("ShutdownReason should be empty before shutdown")
	}

	coord.Shutdown("test reason")

	if coord.ShutdownReason() != "test reason" {
		t.Errorf("ShutdownReason = %q, want %q", coord.ShutdownReason(), "test reason")
	}
}

func TestCleanupLIFOOrder(t *testing.T) {
	coord, _ := New(WithGracePeriod(time.Second))

	var mu sync.Mutex
	var order []int

	for i := 1; i <= 3; i++ {
		coord.RegisterCleanup(fmt.Sprintf("cleanup-%d", i), func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}

	coord.Shutdown("test")

	mu.Lock()
	defer mu.Unlock()

	expected := []int{3, 2, 1}
	if len(order) != len(expected) {
		t.Fatalf("Cleanup count = %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("Cleanup order[%d] = %d, want %d", i, order[i], v)
		}
	}
}

func TestCleanupErrorDoesNotStopOthers(t *testing.T) {
	coord, _ := New(WithGracePeriod(time.Second))

	ran := false
	coord.RegisterCleanup("runs second", func(context.Context) error {
		ran = true
		return nil
	})
	coord.RegisterCleanup("fails first", func(context.Context) error {
		return fmt.Errorf("cleanup broke")
	})

	coord.Shutdown("test")

	if !ran {
		t.Error("Cleanup after a failing one should still run")
	}
}

func TestCleanupTimeout(t *testing.T) {
	coord, _ := New(WithGracePeriod(50 * time.Millisecond))

	sawCancel := make(chan struct{})
	coord.RegisterCleanup("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			close(sawCancel)
			return ctx.Err()
		}
	})

	start := time.Now()
	coord.Shutdown("test")

	if elapsed := time.Since(start); elapsed >= time.Second {
		t.Errorf("Shutdown blocked for %v, want return at grace period", elapsed)
	}

	select {
	case <-sawCancel:
		// Expected
	case <-time.After(time.Second):
		t.Fatal("Cleanup context should be canceled at grace period")
	}
}
