// Package entity implements the sun entities published to the host and
// the per-entity binding that keeps them current when the host's
// location changes.
package entity

import (
	"time"

	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/sun2-go/internal/location"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// Scheduler schedules a callback at an absolute time. The returned
// function cancels the callback if it has not fired yet.
type Scheduler interface {
	At(t time.Time, fn func()) (cancel func())
}

// Publisher sends entity state to the host for rendering.
type Publisher interface {
	PublishState(entityID string, update types.StateUpdate) error
}

// Driver is implemented by each concrete entity kind.
type Driver interface {
	// Recompute recalculates and publishes the entity's state for the
	// given instant, expressed in the entity's resolved timezone.
	Recompute(now time.Time)
	// ScheduleUpdates establishes the entity's own update schedule.
	// Entities without a fixed schedule implement it as a no-op.
	ScheduleUpdates()
}

// Binding resolves an entity's location and keeps its state current.
// It starts unbound; the first Update call resolves location data and,
// for entities using the host default, subscribes to change broadcasts.
type Binding struct {
	entityID  string
	locParams *types.LocParams
	store     *location.Store
	notifier  *location.Notifier
	sched     Scheduler
	pub       Publisher
	log       *zap.Logger

	driver       Driver
	locData      *location.Data
	unsubscribe  func()
	cancelUpdate func()
	scheduleGen  uint64
	removed      bool
}

// BindingConfig collects the collaborators a binding needs.
type BindingConfig struct {
	EntityID  string
	LocParams *types.LocParams
	Store     *location.Store
	Notifier  *location.Notifier
	Scheduler Scheduler
	Publisher Publisher
	Log       *zap.Logger
}

// NewBinding creates an unbound binding. The driver must be attached
// with SetDriver before the first Update.
func NewBinding(cfg BindingConfig) *Binding {
	return &Binding{
		entityID:  cfg.EntityID,
		locParams: cfg.LocParams,
		store:     cfg.Store,
		notifier:  cfg.Notifier,
		sched:     cfg.Scheduler,
		pub:       cfg.Publisher,
		log:       cfg.Log.Named(cfg.EntityID),
	}
}

// SetDriver attaches the concrete entity behavior.
func (b *Binding) SetDriver(d Driver) {
	b.driver = d
}

// EntityID returns the host entity ID this binding publishes to.
func (b *Binding) EntityID() string {
	return b.entityID
}

// Loc returns the currently resolved location data, or nil while unbound.
func (b *Binding) Loc() *location.Data {
	return b.locData
}

// Update transitions the binding to bound on first call, then recomputes
// the entity's state. Bound entities using the host default location are
// subscribed to location-change broadcasts.
func (b *Binding) Update() error {
	if b.removed {
		return nil
	}
	if b.locData == nil {
		data, err := b.store.GetOrCreate(b.locParams)
		if err != nil {
			return err
		}
		b.locData = data
		if b.locParams == nil {
			b.unsubscribe = b.notifier.Subscribe(b.onLocationChanged)
		}
		b.driver.ScheduleUpdates()
	}
	b.driver.Recompute(time.Now().In(b.locData.TZ))
	return nil
}

// onLocationChanged swaps in the new default location, re-establishes the
// update schedule, and republishes state. Invocations after Remove are
// no-ops.
func (b *Binding) onLocationChanged(data *location.Data) {
	if b.removed {
		return
	}
	b.CancelScheduled()
	b.locData = data
	b.driver.ScheduleUpdates()
	b.driver.Recompute(time.Now().In(b.locData.TZ))
}

// ScheduleAt schedules fn via the host scheduler, remembering the cancel
// handle so a location change or teardown can revoke it. The callback is
// suppressed after Remove. A callback whose timer fired before a cancel
// can still arrive afterwards; the generation check drops it so it
// cannot run stale work or orphan the cancel handle of a newer schedule.
func (b *Binding) ScheduleAt(t time.Time, fn func()) {
	b.CancelScheduled()
	gen := b.scheduleGen
	b.cancelUpdate = b.sched.At(t, func() {
		if b.removed || gen != b.scheduleGen {
			return
		}
		b.cancelUpdate = nil
		fn()
	})
}

// CancelScheduled cancels any pending scheduled recompute and
// invalidates callbacks already in flight.
func (b *Binding) CancelScheduled() {
	b.scheduleGen++
	if b.cancelUpdate != nil {
		b.cancelUpdate()
		b.cancelUpdate = nil
	}
}

// Remove tears the binding down: pending updates are canceled and the
// location subscription is released. Safe to call more than once.
func (b *Binding) Remove() {
	if b.removed {
		return
	}
	b.removed = true
	b.CancelScheduled()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

// publish sends state to the host, logging rather than propagating
// failures so one render miss never breaks the update cycle.
func (b *Binding) publish(update types.StateUpdate) {
	if err := b.pub.PublishState(b.entityID, update); err != nil {
		b.log.Warn("state publish failed", zap.Error(err))
	}
}
