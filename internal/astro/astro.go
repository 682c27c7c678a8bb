// Package astro adapts the astronomical libraries used by the daemon.
// All solar math is delegated to github.com/nathan-osman/go-sunrise;
// this package only maps event names to library queries and normalizes
// "the sun never gets there today" results to a no-event answer.
package astro

import (
	"fmt"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Standard solar depression angles, in degrees below the horizon.
const (
	DepressionCivil        = 6.0
	DepressionNautical     = 12.0
	DepressionAstronomical = 18.0
)

// refractionAngle is the standard rise/set angle accounting for
// atmospheric refraction and the solar disc radius.
const refractionAngle = 0.833

// Direction selects which of the two daily elevation crossings to report.
type Direction int

const (
	// Rising selects the morning crossing.
	Rising Direction = iota
	// Setting selects the evening crossing.
	Setting
)

// Event names understood by EventTime.
const (
	EventSunrise         = "sunrise"
	EventSunset          = "sunset"
	EventDawn            = "dawn"
	EventDusk            = "dusk"
	EventSolarNoon       = "solar_noon"
	EventSolarMidnight   = "solar_midnight"
	EventTimeAtElevation = "time_at_elevation"
)

// Location is an immutable observer location handle.
type Location struct {
	latitude  float64
	longitude float64
	tz        *time.Location
}

// NewLocation creates a location handle for the given coordinates and
// timezone. Returned event times are expressed in tz.
func NewLocation(latitude, longitude float64, tz *time.Location) *Location {
	return &Location{latitude: latitude, longitude: longitude, tz: tz}
}

// Latitude returns the observer latitude in degrees.
func (l *Location) Latitude() float64 { return l.latitude }

// Longitude returns the observer longitude in degrees.
func (l *Location) Longitude() float64 { return l.longitude }

// TimeZone returns the timezone event times are reported in.
func (l *Location) TimeZone() *time.Location { return l.tz }

// EventQuery describes a single astronomical event lookup.
type EventQuery struct {
	// Event is the event name (one of the Event* constants).
	Event string
	// Date is any time within the local day to query.
	Date time.Time
	// ObserverElevation is the observer height above sea level in meters.
	// It affects the horizon for sunrise/sunset.
	ObserverElevation float64
	// Depression is the twilight angle for dawn/dusk, in degrees.
	Depression float64
	// Elevation is the target solar elevation for time_at_elevation,
	// in degrees above the horizon.
	Elevation float64
	// Direction selects the crossing for time_at_elevation.
	Direction Direction
}

// EventTime resolves an event query for the location. The boolean is
// false when the event does not occur on the queried day, including
// for unrecognized event names.
func (l *Location) EventTime(q EventQuery) (time.Time, bool) {
	switch q.Event {
	case EventSunrise:
		return l.Sunrise(q.Date, q.ObserverElevation)
	case EventSunset:
		return l.Sunset(q.Date, q.ObserverElevation)
	case EventDawn:
		return l.Dawn(q.Date, q.Depression)
	case EventDusk:
		return l.Dusk(q.Date, q.Depression)
	case EventSolarNoon:
		return l.SolarNoon(q.Date)
	case EventSolarMidnight:
		return l.SolarMidnight(q.Date)
	case EventTimeAtElevation:
		return l.TimeAtElevation(q.Elevation, q.Date, q.Direction)
	default:
		return time.Time{}, false
	}
}

// horizonAngle returns the rise/set angle for an observer at the given
// height above sea level, combining refraction with the dip of the
// visible horizon.
func horizonAngle(observerElevation float64) float64 {
	dip := 0.0
	if observerElevation > 0 {
		dip = 2.076 * math.Sqrt(observerElevation) / 60.0
	}
	return -(refractionAngle + dip)
}

// Sunrise returns the sunrise time for the local day containing date.
func (l *Location) Sunrise(date time.Time, observerElevation float64) (time.Time, bool) {
	t, _ := l.riseSet(date, observerElevation)
	return l.toLocal(t)
}

// Sunset returns the sunset time for the local day containing date.
func (l *Location) Sunset(date time.Time, observerElevation float64) (time.Time, bool) {
	_, t := l.riseSet(date, observerElevation)
	return l.toLocal(t)
}

func (l *Location) riseSet(date time.Time, observerElevation float64) (rise, set time.Time) {
	y, m, d := date.In(l.tz).Date()
	if observerElevation <= 0 {
		return sunrise.SunriseSunset(l.latitude, l.longitude, y, m, d)
	}
	return sunrise.TimeOfElevation(l.latitude, l.longitude, horizonAngle(observerElevation), y, m, d)
}

// Dawn returns the morning twilight time for the given depression angle.
func (l *Location) Dawn(date time.Time, depression float64) (time.Time, bool) {
	y, m, d := date.In(l.tz).Date()
	t, _ := sunrise.TimeOfElevation(l.latitude, l.longitude, -depression, y, m, d)
	return l.toLocal(t)
}

// Dusk returns the evening twilight time for the given depression angle.
func (l *Location) Dusk(date time.Time, depression float64) (time.Time, bool) {
	y, m, d := date.In(l.tz).Date()
	_, t := sunrise.TimeOfElevation(l.latitude, l.longitude, -depression, y, m, d)
	return l.toLocal(t)
}

// SolarNoon returns the time the sun crosses the local meridian. The
// transit is computed directly rather than from the rise/set pair, so
// it stays defined through polar day and polar night.
func (l *Location) SolarNoon(date time.Time) (time.Time, bool) {
	y, m, d := date.In(l.tz).Date()
	day := sunrise.MeanSolarNoon(l.longitude, y, m, d)
	anomaly := sunrise.SolarMeanAnomaly(day)
	eclipticLon := sunrise.EclipticLongitude(anomaly, sunrise.EquationOfCenter(anomaly), day)
	transit := sunrise.SolarTransit(day, anomaly, eclipticLon)
	return sunrise.JulianDayToTime(transit).In(l.tz), true
}

// SolarMidnight returns the time the sun crosses the antimeridian,
// half a day before solar noon.
func (l *Location) SolarMidnight(date time.Time) (time.Time, bool) {
	noon, ok := l.SolarNoon(date)
	if !ok {
		return time.Time{}, false
	}
	return noon.Add(-12 * time.Hour), true
}

// TimeAtElevation returns the time the sun reaches the given elevation on
// the local day containing date, in the requested direction. An elevation
// never reached that day reports no event.
func (l *Location) TimeAtElevation(elevation float64, date time.Time, direction Direction) (time.Time, bool) {
	y, m, d := date.In(l.tz).Date()
	morning, evening := sunrise.TimeOfElevation(l.latitude, l.longitude, elevation, y, m, d)
	if direction == Rising {
		return l.toLocal(morning)
	}
	return l.toLocal(evening)
}

// Elevation returns the solar elevation above the horizon at the given
// instant, in degrees.
func (l *Location) Elevation(when time.Time) float64 {
	return sunrise.Elevation(l.latitude, l.longitude, when)
}

// toLocal converts a library result to the location's timezone,
// mapping the library's zero-value "never happens" answer to no event.
func (l *Location) toLocal(t time.Time) (time.Time, bool) {
	if t.IsZero() {
		return time.Time{}, false
	}
	return t.In(l.tz), true
}

// NearestSecond rounds a timestamp to the nearest second for display.
func NearestSecond(t time.Time) time.Time {
	return t.Round(time.Second)
}

// HoursToHMS formats a duration expressed in hours as HH:MM:SS.
func HoursToHMS(hours float64) string {
	d := time.Duration(hours * float64(time.Hour)).Round(time.Second)
	return formatHMS(d)
}

func formatHMS(d time.Duration) string {
	neg := ""
	if d < 0 {
		neg = "-"
		d = -d
	}
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", neg, h, m, s)
}
