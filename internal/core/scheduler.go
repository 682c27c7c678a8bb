package core

import (
	"time"
)

// Scheduler fires callbacks at absolute times, delivering them on the
// event loop so scheduled work is serialized with everything else.
type Scheduler struct {
	loop *Loop
}

// NewScheduler creates a scheduler feeding the given loop.
func NewScheduler(loop *Loop) *Scheduler {
	return &Scheduler{loop: loop}
}

// At schedules fn to run on the loop at or shortly after t. The
// returned cancel function stops the callback if it has not been
// delivered to the loop yet.
func (s *Scheduler) At(t time.Time, fn func()) (cancel func()) {
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	timer := time.AfterFunc(d, func() {
		s.loop.Submit(fn)
	})
	return func() {
		timer.Stop()
	}
}
