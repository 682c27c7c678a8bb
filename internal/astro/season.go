package astro

import (
	"time"

	"github.com/mooncaker816/learnmeeus/v3/julian"
	"github.com/mooncaker816/learnmeeus/v3/solstice"
)

// Season names, northern-hemisphere convention. A southern-hemisphere
// observer gets the opposite season for the same date.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// SeasonBoundary is an equinox or solstice instant.
type SeasonBoundary struct {
	// Name is the season that begins at this boundary.
	Name string
	// Time is the boundary instant in UTC.
	Time time.Time
}

// jdeToTime converts a Julian ephemeris day to a UTC timestamp.
func jdeToTime(jde float64) time.Time {
	y, m, d := julian.JDToCalendar(jde)
	day := int(d)
	frac := d - float64(day)
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(frac * 24 * float64(time.Hour)))
}

// SeasonBoundaries returns the four equinox/solstice boundaries of a year
// in chronological order, named for the northern hemisphere.
func SeasonBoundaries(year int) []SeasonBoundary {
	return []SeasonBoundary{
		{Name: SeasonSpring, Time: jdeToTime(solstice.March(year))},
		{Name: SeasonSummer, Time: jdeToTime(solstice.June(year))},
		{Name: SeasonAutumn, Time: jdeToTime(solstice.September(year))},
		{Name: SeasonWinter, Time: jdeToTime(solstice.December(year))},
	}
}

// Season returns the season in effect at the given instant for an observer
// at the given latitude, plus the next boundary after that instant.
func Season(when time.Time, latitude float64) (string, SeasonBoundary) {
	year := when.UTC().Year()
	boundaries := SeasonBoundaries(year)

	current := SeasonBoundary{Name: SeasonWinter, Time: jdeToTime(solstice.December(year - 1))}
	next := SeasonBoundary{}
	for _, b := range boundaries {
		if !b.Time.After(when) {
			current = b
			continue
		}
		next = b
		break
	}
	if next.Time.IsZero() {
		next = SeasonBoundary{Name: SeasonSpring, Time: jdeToTime(solstice.March(year + 1))}
	}

	name := current.Name
	if latitude < 0 {
		name = oppositeSeason(name)
		next.Name = oppositeSeason(next.Name)
	}
	return name, next
}

func oppositeSeason(name string) string {
	switch name {
	case SeasonSpring:
		return SeasonAutumn
	case SeasonSummer:
		return SeasonWinter
	case SeasonAutumn:
		return SeasonSpring
	default:
		return SeasonSummer
	}
}
