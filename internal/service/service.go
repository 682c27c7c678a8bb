// Package service implements the daemon's service calls: get_location,
// update_location and reload. The calls operate on the configuration
// entry store; the daemon core hooks in to react when entries change.
package service

import (
	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/sun2-go/internal/config"
	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// Services exposes the daemon's service calls.
type Services struct {
	entries       *config.Store
	defaultParams func() (types.LocParams, bool)
	log           *zap.Logger

	reload    func() error
	onUpdated func(*config.Entry)
	run       func(func()) error
}

// New creates the service layer. defaultParams resolves the host's own
// location for entries that track it; it reports false until the host
// configuration has been fetched.
func New(entries *config.Store, defaultParams func() (types.LocParams, bool), log *zap.Logger) *Services {
	return &Services{
		entries:       entries,
		defaultParams: defaultParams,
		log:           log.Named("service"),
	}
}

// SetReload installs the callback invoked by the reload service.
func (s *Services) SetReload(fn func() error) {
	s.reload = fn
}

// SetOnEntryUpdated installs the callback invoked after update_location
// has changed an entry's options. The callback runs in the executor
// installed with SetRunOnLoop.
func (s *Services) SetOnEntryUpdated(fn func(*config.Entry)) {
	s.onUpdated = fn
}

// SetRunOnLoop installs the executor the service calls use to touch the
// entry store. The daemon wires this to its event loop so service-call
// mutations are serialized with entity updates.
func (s *Services) SetRunOnLoop(run func(func()) error) {
	s.run = run
}

// do runs fn through the installed executor, or inline when none is set.
func (s *Services) do(fn func()) error {
	if s.run != nil {
		return s.run(fn)
	}
	fn()
	return nil
}

// GetLocation returns the location parameters of the entry whose title
// matches the request. Entries that track the host's location report the
// host's parameters.
func (s *Services) GetLocation(req types.GetLocationRequest) (*types.GetLocationResponse, error) {
	var resp *types.GetLocationResponse
	var callErr error
	err := s.do(func() {
		entry, err := s.entries.ByTitle(req.Location)
		if err != nil {
			callErr = err
			return
		}
		params := entry.Options.LocParams()
		if params == nil {
			host, ok := s.defaultParams()
			if !ok {
				callErr = errors.New(errors.ErrorTypeInternal, "host configuration not yet available")
				return
			}
			params = &host
		}
		resp = &types.GetLocationResponse{
			Location:  entry.Title,
			Latitude:  params.Latitude,
			Longitude: params.Longitude,
			TimeZone:  params.TimeZone,
			Elevation: params.Elevation,
		}
	})
	if err != nil {
		return nil, err
	}
	return resp, callErr
}

// UpdateLocation changes the location parameters of the entry whose
// title matches the request. Imported entries and entries tracking the
// host's location cannot be edited; their options are left unchanged.
func (s *Services) UpdateLocation(req types.UpdateLocationRequest) error {
	var callErr error
	err := s.do(func() {
		callErr = s.updateLocation(req)
	})
	if err != nil {
		return err
	}
	return callErr
}

// updateLocation holds the mutation itself; it runs in loop context.
func (s *Services) updateLocation(req types.UpdateLocationRequest) error {
	entry, err := s.entries.ByTitle(req.Location)
	if err != nil {
		return err
	}
	if entry.Source == config.SourceImport {
		return errors.Create(errors.CodeEntryNotEditable).
			WithMessagef("imported entries cannot be edited: %s", entry.Title)
	}
	if !entry.Options.HasLocation() {
		return errors.Create(errors.CodeEntryNotEditable).
			WithMessagef("entries tracking the host location cannot be edited: %s", entry.Title)
	}

	opts := entry.Options
	if req.Elevation != nil {
		opts.Elevation = req.Elevation
	}
	if req.Latitude != nil {
		opts.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		opts.Longitude = req.Longitude
	}
	if req.TimeZone != nil {
		opts.TimeZone = req.TimeZone
	}
	if err := config.ValidateOptions(opts, entry.Title); err != nil {
		return err
	}
	if err := s.entries.UpdateOptions(entry.ID, opts); err != nil {
		return err
	}
	if err := s.entries.Save(); err != nil {
		s.log.Warn("failed to persist entries", zap.Error(err))
	}
	s.log.Info("location updated",
		zap.String("entry", entry.Title),
		zap.String("id", entry.ID))
	if s.onUpdated != nil {
		s.onUpdated(entry)
	}
	return nil
}

// Reload re-reads the YAML config file and reconciles imported entries.
func (s *Services) Reload() error {
	if s.reload == nil {
		return errors.New(errors.ErrorTypeInternal, "reload is not available")
	}
	return s.reload()
}
