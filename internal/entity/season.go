package entity

import (
	"time"

	"github.com/home-assistant-blueprints/sun2-go/internal/astro"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// SeasonSensor reports the astronomical season at the entity's location,
// refreshing itself at the next equinox or solstice.
type SeasonSensor struct {
	*Binding

	friendlyName string
}

// NewSeasonSensor builds a season sensor and attaches it to the binding.
func NewSeasonSensor(b *Binding, friendlyName string) *SeasonSensor {
	s := &SeasonSensor{Binding: b, friendlyName: friendlyName}
	b.SetDriver(s)
	return s
}

// Recompute publishes the current season and the next boundary.
func (s *SeasonSensor) Recompute(now time.Time) {
	name, next := astro.Season(now, s.Loc().Loc.Latitude())
	s.publish(types.StateUpdate{
		State: name,
		Attributes: map[string]any{
			"friendly_name":     s.friendlyName,
			"next_season":       next.Name,
			"next_season_start": next.Time.In(s.Loc().TZ).Format(time.RFC3339),
		},
	})
}

// ScheduleUpdates refreshes the sensor at the next season boundary.
func (s *SeasonSensor) ScheduleUpdates() {
	now := time.Now().In(s.Loc().TZ)
	_, next := astro.Season(now, s.Loc().Loc.Latitude())
	s.ScheduleAt(next.Time.Add(time.Minute), func() {
		s.ScheduleUpdates()
		s.Recompute(time.Now().In(s.Loc().TZ))
	})
}
