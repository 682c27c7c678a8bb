package entity

import (
	"fmt"
	"time"

	"github.com/home-assistant-blueprints/sun2-go/internal/astro"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// stateNone is published when an event does not occur on a given day.
const stateNone = "none"

// nextMidnight returns the next local midnight after t.
func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// EventSensor is a point-in-time sensor for a single named solar event
// (sunrise, sunset, dawn, dusk, solar noon, solar midnight, or a
// time-at-elevation crossing). Its value is the event time for the
// current local day; it refreshes itself just after each midnight.
type EventSensor struct {
	*Binding

	// query carries the event name and its fixed parameters; Date and
	// ObserverElevation are filled per recompute.
	query        astro.EventQuery
	friendlyName string
	uniqueID     string
}

// NewEventSensor builds an event sensor and attaches it to the binding.
func NewEventSensor(b *Binding, query astro.EventQuery, friendlyName, uniqueID string) *EventSensor {
	s := &EventSensor{Binding: b, query: query, friendlyName: friendlyName, uniqueID: uniqueID}
	b.SetDriver(s)
	return s
}

// UniqueID identifies the sensor for registry bookkeeping.
func (s *EventSensor) UniqueID() string {
	return s.uniqueID
}

// eventOn resolves the sensor's event for the local day containing date.
func (s *EventSensor) eventOn(date time.Time) (time.Time, bool) {
	q := s.query
	q.Date = date
	q.ObserverElevation = s.Loc().ObserverElevation
	return s.Loc().Loc.EventTime(q)
}

func formatEvent(t time.Time, ok bool) string {
	if !ok {
		return stateNone
	}
	return astro.NearestSecond(t).Format(time.RFC3339)
}

// Recompute publishes the event time for the day containing now,
// with yesterday/tomorrow attributes for context.
func (s *EventSensor) Recompute(now time.Time) {
	today, todayOK := s.eventOn(now)
	yesterday, yesterdayOK := s.eventOn(now.AddDate(0, 0, -1))
	tomorrow, tomorrowOK := s.eventOn(now.AddDate(0, 0, 1))

	s.publish(types.StateUpdate{
		State: formatEvent(today, todayOK),
		Attributes: map[string]any{
			"friendly_name": s.friendlyName,
			"device_class":  "timestamp",
			"yesterday":     formatEvent(yesterday, yesterdayOK),
			"tomorrow":      formatEvent(tomorrow, tomorrowOK),
		},
	})
}

// ScheduleUpdates refreshes the sensor just after the next local midnight.
func (s *EventSensor) ScheduleUpdates() {
	next := nextMidnight(time.Now().In(s.Loc().TZ))
	s.ScheduleAt(next, func() {
		s.ScheduleUpdates()
		s.Recompute(time.Now().In(s.Loc().TZ))
	})
}

// DefaultElevationInterval is how often the elevation sensor refreshes.
const DefaultElevationInterval = 5 * time.Minute

// ElevationSensor reports the current solar elevation in degrees.
type ElevationSensor struct {
	*Binding

	friendlyName string
	interval     time.Duration
}

// NewElevationSensor builds an elevation sensor and attaches it to the
// binding. A non-positive interval selects DefaultElevationInterval.
func NewElevationSensor(b *Binding, friendlyName string, interval time.Duration) *ElevationSensor {
	if interval <= 0 {
		interval = DefaultElevationInterval
	}
	s := &ElevationSensor{Binding: b, friendlyName: friendlyName, interval: interval}
	b.SetDriver(s)
	return s
}

// Recompute publishes the solar elevation at now, with the day's
// rise/set times as context attributes.
func (s *ElevationSensor) Recompute(now time.Time) {
	loc := s.Loc().Loc
	rise, riseOK := loc.Sunrise(now, s.Loc().ObserverElevation)
	set, setOK := loc.Sunset(now, s.Loc().ObserverElevation)

	attrs := map[string]any{
		"friendly_name":       s.friendlyName,
		"unit_of_measurement": "°",
		"today_sunrise":       formatEvent(rise, riseOK),
		"today_sunset":        formatEvent(set, setOK),
	}
	if riseOK && setOK {
		attrs["daylight"] = astro.HoursToHMS(set.Sub(rise).Hours())
	}

	s.publish(types.StateUpdate{
		State:      fmt.Sprintf("%.1f", loc.Elevation(now)),
		Attributes: attrs,
	})
}

// ScheduleUpdates refreshes the sensor on a fixed cadence.
func (s *ElevationSensor) ScheduleUpdates() {
	next := time.Now().In(s.Loc().TZ).Add(s.interval)
	s.ScheduleAt(next, func() {
		s.ScheduleUpdates()
		s.Recompute(time.Now().In(s.Loc().TZ))
	})
}
