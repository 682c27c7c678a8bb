package core

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/sun2-go/internal/astro"
	"github.com/home-assistant-blueprints/sun2-go/internal/config"
	"github.com/home-assistant-blueprints/sun2-go/internal/entity"
	"github.com/home-assistant-blueprints/sun2-go/internal/location"
)

// Entity is what the daemon manages per published host entity: a bound
// driver that can be updated and torn down.
type Entity interface {
	entity.Driver
	EntityID() string
	Update() error
	Remove()
}

// builder constructs the entity set of a config entry.
type builder struct {
	store    *location.Store
	notifier *location.Notifier
	sched    entity.Scheduler
	pub      entity.Publisher
	log      *zap.Logger
}

// eventSensorKinds lists the standard per-entry event sensors, in the
// order their entities are created.
var eventSensorKinds = []struct {
	kind       string
	event      string
	depression float64
	name       string
}{
	{"dawn", astro.EventDawn, astro.DepressionCivil, "Dawn"},
	{"sunrise", astro.EventSunrise, 0, "Sunrise"},
	{"solar_noon", astro.EventSolarNoon, 0, "Solar Noon"},
	{"sunset", astro.EventSunset, 0, "Sunset"},
	{"dusk", astro.EventDusk, astro.DepressionCivil, "Dusk"},
	{"solar_midnight", astro.EventSolarMidnight, 0, "Solar Midnight"},
	{"nautical_dawn", astro.EventDawn, astro.DepressionNautical, "Nautical Dawn"},
	{"nautical_dusk", astro.EventDusk, astro.DepressionNautical, "Nautical Dusk"},
	{"astronomical_dawn", astro.EventDawn, astro.DepressionAstronomical, "Astronomical Dawn"},
	{"astronomical_dusk", astro.EventDusk, astro.DepressionAstronomical, "Astronomical Dusk"},
}

// build creates all entities of a config entry. The entities are
// unbound; the caller updates them once their collaborators are ready.
func (b *builder) build(entry *config.Entry) []Entity {
	slug := slugify(entry.Title)
	locParams := entry.Options.LocParams()

	newBinding := func(entityID string) *entity.Binding {
		return entity.NewBinding(entity.BindingConfig{
			EntityID:  entityID,
			LocParams: locParams,
			Store:     b.store,
			Notifier:  b.notifier,
			Scheduler: b.sched,
			Publisher: b.pub,
			Log:       b.log,
		})
	}

	var entities []Entity

	for _, k := range eventSensorKinds {
		binding := newBinding(fmt.Sprintf("sensor.%s_%s", slug, k.kind))
		query := astro.EventQuery{Event: k.event, Depression: k.depression}
		uniqueID := entry.ID + "-" + k.kind
		entities = append(entities,
			entity.NewEventSensor(binding, query, entry.Title+" "+k.name, uniqueID))
	}

	entities = append(entities, entity.NewElevationSensor(
		newBinding(fmt.Sprintf("sensor.%s_solar_elevation", slug)),
		entry.Title+" Solar Elevation",
		entity.DefaultElevationInterval))

	entities = append(entities, entity.NewAboveHorizonSensor(
		newBinding(fmt.Sprintf("binary_sensor.%s_above_horizon", slug)),
		entry.Title+" Above Horizon"))

	entities = append(entities, entity.NewSeasonSensor(
		newBinding(fmt.Sprintf("sensor.%s_season", slug)),
		entry.Title+" Season"))

	for _, extra := range entry.Options.Sensors {
		direction := astro.Rising
		if extra.Direction == "setting" {
			direction = astro.Setting
		}
		name := extra.Name
		if name == "" {
			name = fmt.Sprintf("%s at %.1f°", entry.Title, extra.Elevation)
		}
		binding := newBinding(fmt.Sprintf("sensor.%s_%s", slug, slugify(name)))
		query := astro.EventQuery{
			Event:     astro.EventTimeAtElevation,
			Elevation: extra.Elevation,
			Direction: direction,
		}
		entities = append(entities,
			entity.NewEventSensor(binding, query, name, extra.UniqueID))
	}

	return entities
}

// slugify turns a title into a host-safe entity ID fragment.
func slugify(s string) string {
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "_")
}
