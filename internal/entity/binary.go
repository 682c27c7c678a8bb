package entity

import (
	"time"

	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// AboveHorizonSensor is a binary sensor that is "on" while the sun is
// above the horizon. It schedules its own flip at the next rise or set
// instead of polling.
type AboveHorizonSensor struct {
	*Binding

	friendlyName string
}

// NewAboveHorizonSensor builds the binary sensor and attaches it to the
// binding.
func NewAboveHorizonSensor(b *Binding, friendlyName string) *AboveHorizonSensor {
	s := &AboveHorizonSensor{Binding: b, friendlyName: friendlyName}
	b.SetDriver(s)
	return s
}

// nextChange returns the next rise or set strictly after now, looking at
// today and tomorrow. During polar day or night there may be none.
func (s *AboveHorizonSensor) nextChange(now time.Time) (time.Time, bool) {
	loc := s.Loc().Loc
	obsElv := s.Loc().ObserverElevation

	for dayOffset := 0; dayOffset <= 1; dayOffset++ {
		date := now.AddDate(0, 0, dayOffset)
		rise, riseOK := loc.Sunrise(date, obsElv)
		set, setOK := loc.Sunset(date, obsElv)
		if riseOK && rise.After(now) {
			if setOK && set.After(now) && set.Before(rise) {
				return set, true
			}
			return rise, true
		}
		if setOK && set.After(now) {
			return set, true
		}
	}
	return time.Time{}, false
}

// Recompute publishes on/off by the sun's current elevation, with the
// next flip time as an attribute when one exists.
func (s *AboveHorizonSensor) Recompute(now time.Time) {
	state := "off"
	if s.Loc().Loc.Elevation(now) > 0 {
		state = "on"
	}

	attrs := map[string]any{"friendly_name": s.friendlyName}
	if change, ok := s.nextChange(now); ok {
		attrs["next_change"] = change.Format(time.RFC3339)
	}

	s.publish(types.StateUpdate{State: state, Attributes: attrs})
}

// ScheduleUpdates schedules the flip at the next rise or set. With no
// upcoming change (polar day/night) it falls back to the next midnight
// so the next_change attribute stays current.
func (s *AboveHorizonSensor) ScheduleUpdates() {
	now := time.Now().In(s.Loc().TZ)
	next, ok := s.nextChange(now)
	if !ok {
		next = nextMidnight(now)
	}
	s.ScheduleAt(next.Add(time.Second), func() {
		s.ScheduleUpdates()
		s.Recompute(time.Now().In(s.Loc().TZ))
	})
}
