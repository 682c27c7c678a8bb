// Package location caches derived location data keyed by location
// parameters and fans out changes of the host's default location to
// interested entities.
package location

import (
	"sync"
	"time"

	"github.com/home-assistant-blueprints/sun2-go/internal/astro"
	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// Data holds location data derived from location parameters.
// Instances are immutable; a configuration change produces a new
// instance rather than mutating an existing one.
type Data struct {
	// Loc is the astronomical location handle.
	Loc *astro.Location
	// ObserverElevation is the observer height above sea level in meters.
	ObserverElevation float64
	// TZ is the resolved timezone.
	TZ *time.Location
}

// NewData derives location data from location parameters.
// It fails when the timezone cannot be resolved.
func NewData(p types.LocParams) (*Data, error) {
	tz, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return nil, errors.ErrBadTimeZone(p.TimeZone, err)
	}
	return &Data{
		Loc:               astro.NewLocation(p.Latitude, p.Longitude, tz),
		ObserverElevation: p.Elevation,
		TZ:                tz,
	}, nil
}

// Store caches one Data instance per distinct location parameter value.
// Entries live until explicitly replaced or the process ends.
type Store struct {
	mu          sync.RWMutex
	locations   map[types.LocParams]*Data
	defaultData *Data
}

// NewStore creates an empty location store.
func NewStore() *Store {
	return &Store{locations: make(map[types.LocParams]*Data)}
}

// GetOrCreate returns the cached Data for the given parameters,
// constructing and memoizing it on first request. A nil params pointer
// selects the host's default location, which must have been populated
// by RefreshDefault.
func (s *Store) GetOrCreate(params *types.LocParams) (*Data, error) {
	if params == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.defaultData == nil {
			return nil, errors.New(errors.ErrorTypeInternal, "default location not initialized")
		}
		return s.defaultData, nil
	}

	s.mu.RLock()
	data, ok := s.locations[*params]
	s.mu.RUnlock()
	if ok {
		return data, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.locations[*params]; ok {
		return data, nil
	}
	data, err := NewData(*params)
	if err != nil {
		return nil, err
	}
	s.locations[*params] = data
	return data, nil
}

// RefreshDefault recomputes the default location data from the host's
// current configuration and replaces the cached entry. Subsequent
// default lookups reflect the new values.
func (s *Store) RefreshDefault(cfg types.HAConfig) (*Data, error) {
	data, err := NewData(types.LocParams{
		Elevation: cfg.Elevation,
		Latitude:  cfg.Latitude,
		Longitude: cfg.Longitude,
		TimeZone:  cfg.TimeZone,
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.defaultData = data
	s.mu.Unlock()
	return data, nil
}
