// Package core glues the daemon together: a single event loop that
// serializes all state access, a scheduler feeding it, the entity
// builder, and the handling of host configuration updates.
package core

import (
	"context"
)

// Loop is the daemon's event loop. All mutation of locations, entities
// and config entries happens on the loop goroutine, so callbacks never
// race each other.
type Loop struct {
	tasks chan func()
}

// NewLoop creates an event loop. Run must be called for submitted tasks
// to execute.
func NewLoop() *Loop {
	return &Loop{tasks: make(chan func(), 64)}
}

// Run processes submitted tasks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Submit queues fn for execution on the loop goroutine. Safe to call
// from any goroutine.
func (l *Loop) Submit(fn func()) {
	l.tasks <- fn
}

// Do runs fn on the loop goroutine and waits for it to finish. Used by
// handlers that need a result before responding. Must not be called
// from loop context.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.tasks <- func() {
		defer close(done)
		fn()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
