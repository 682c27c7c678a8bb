// Package shutdown provides graceful shutdown coordination for the
// daemon. It handles OS signals (SIGINT, SIGTERM) and runs registered
// cleanups with a grace period.
package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultGracePeriod is the default time allowed for cleanup operations.
const DefaultGracePeriod = 5 * time.Second

// CleanupFunc is a named cleanup run during shutdown. It receives a
// context that is canceled when the grace period expires.
type CleanupFunc struct {
	Name string
	Func func(ctx context.Context) error
}

// Coordinator manages graceful shutdown.
type Coordinator struct {
	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	gracePeriod  time.Duration
	cleanupFuncs []CleanupFunc

	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
	shutdownReason string

	log *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithGracePeriod sets the time allowed for cleanup before giving up.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Coordinator) {
		c.gracePeriod = d
	}
}

// WithLogger sets the logger used for shutdown progress and cleanup
// errors.
func WithLogger(log *zap.Logger) Option {
	return func(c *Coordinator) {
		c.log = log
	}
}

// New creates a new shutdown Coordinator.
// The returned context is canceled when shutdown is triggered.
func New(opts ...Option) (*Coordinator, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		ctx:          ctx,
		cancel:       cancel,
		gracePeriod:  DefaultGracePeriod,
		shutdownChan: make(chan struct{}),
		log:          zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, ctx
}

// RegisterCleanup adds a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first
// called). This is safe to call from multiple goroutines.
func (c *Coordinator) RegisterCleanup(name string, fn func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, CleanupFunc{Name: name, Func: fn})
}

// HandleSignals starts listening for SIGINT and SIGTERM.
// The first signal triggers graceful shutdown; a second forces exit.
func (c *Coordinator) HandleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		c.Shutdown(fmt.Sprintf("received signal %v", sig))

		<-sigChan
		os.Exit(1)
	}()
}

// Shutdown initiates graceful shutdown with the given reason. It cancels
// the context and runs cleanups within the grace period. Safe to call
// multiple times; only the first call has effect.
func (c *Coordinator) Shutdown(reason string) {
	c.shutdownOnce.Do(func() {
		c.mu.Lock()
		c.shutdownReason = reason
		cleanups := make([]CleanupFunc, len(c.cleanupFuncs))
		copy(cleanups, c.cleanupFuncs)
		c.mu.Unlock()

		close(c.shutdownChan)
		c.log.Info("shutting down", zap.String("reason", reason))

		c.cancel()
		c.runCleanups(cleanups)
	})
}

// runCleanups executes all cleanup functions with a timeout.
func (c *Coordinator) runCleanups(cleanups []CleanupFunc) {
	if len(cleanups) == 0 {
		return
	}

	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), c.gracePeriod)
	defer cleanupCancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		// LIFO order
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanup := cleanups[i]
			if err := cleanup.Func(cleanupCtx); err != nil {
				c.log.Warn("cleanup failed",
					zap.String("cleanup", cleanup.Name),
					zap.Error(err))
			}
		}
	}()

	select {
	case <-done:
	case <-cleanupCtx.Done():
		c.log.Warn("cleanup timed out", zap.Duration("grace_period", c.gracePeriod))
	}
}

// ShutdownChan returns a channel that's closed when shutdown begins.
func (c *Coordinator) ShutdownChan() <-chan struct{} {
	return c.shutdownChan
}

// IsShuttingDown reports whether shutdown has been initiated.
func (c *Coordinator) IsShuttingDown() bool {
	select {
	case <-c.shutdownChan:
		return true
	default:
		return false
	}
}

// Context returns the coordinator's context.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// ShutdownReason returns the reason for shutdown, or empty string if not
// shut down.
func (c *Coordinator) ShutdownReason() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shutdownReason
}
