package astro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonBoundariesOrdered(t *testing.T) {
	boundaries := SeasonBoundaries(2024)
	require.Len(t, boundaries, 4)

	for i := 1; i < len(boundaries); i++ {
		assert.True(t, boundaries[i-1].Time.Before(boundaries[i].Time),
			"%s must precede %s", boundaries[i-1].Name, boundaries[i].Name)
	}

	// The 2024 March equinox fell on March 20.
	march := boundaries[0].Time
	assert.Equal(t, 2024, march.Year())
	assert.Equal(t, time.March, march.Month())
	assert.Equal(t, 20, march.Day())
}

func TestSeasonNorthernHemisphere(t *testing.T) {
	july := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	name, next := Season(july, 51.5)
	assert.Equal(t, SeasonSummer, name)
	assert.Equal(t, SeasonAutumn, next.Name)
	assert.True(t, next.Time.After(july))
}

func TestSeasonSouthernHemisphere(t *testing.T) {
	july := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	name, next := Season(july, -33.9)
	assert.Equal(t, SeasonWinter, name)
	assert.Equal(t, SeasonSpring, next.Name)
}

func TestSeasonYearBoundary(t *testing.T) {
	// Early January is still winter, started the previous December.
	jan := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	name, next := Season(jan, 51.5)
	assert.Equal(t, SeasonWinter, name)
	assert.Equal(t, SeasonSpring, next.Name)

	// Late December rolls the next boundary into the following year.
	dec := time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC)
	name, next = Season(dec, 51.5)
	assert.Equal(t, SeasonWinter, name)
	assert.Equal(t, SeasonSpring, next.Name)
	assert.Equal(t, 2025, next.Time.Year())
}
