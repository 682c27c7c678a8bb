// Package config manages the daemon's configuration entries: one entry
// per configured location, created by a user or imported from YAML.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// Source identifies how a configuration entry was created.
type Source string

const (
	// SourceUser marks entries created through the service API.
	SourceUser Source = "user"
	// SourceImport marks entries imported from the YAML config file.
	// Imported entries cannot be edited through the service API.
	SourceImport Source = "import"
)

// ExtraSensor describes an additional time-at-elevation sensor configured
// on an entry. UniqueID is UUID-shaped for sensors added through the host
// UI, which is what the registry cleanup keys on.
type ExtraSensor struct {
	UniqueID  string  `yaml:"unique_id" json:"unique_id"`
	Name      string  `yaml:"name" json:"name"`
	Elevation float64 `yaml:"elevation" json:"elevation"`
	Direction string  `yaml:"direction" json:"direction"`
}

// Options holds an entry's location parameters and extra sensors.
// The four location fields are inclusive: either all are set (an
// explicit location) or none are (the entry tracks the host's own
// location).
type Options struct {
	Elevation *float64      `yaml:"elevation,omitempty" json:"elevation,omitempty"`
	Latitude  *float64      `yaml:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64      `yaml:"longitude,omitempty" json:"longitude,omitempty"`
	TimeZone  *string       `yaml:"time_zone,omitempty" json:"time_zone,omitempty"`
	Sensors   []ExtraSensor `yaml:"sensors,omitempty" json:"sensors,omitempty"`
}

// LocParams returns the entry's explicit location parameters, or nil when
// the entry tracks the host's configuration.
func (o Options) LocParams() *types.LocParams {
	if o.Latitude == nil || o.Longitude == nil || o.TimeZone == nil {
		return nil
	}
	elevation := 0.0
	if o.Elevation != nil {
		elevation = *o.Elevation
	}
	return &types.LocParams{
		Elevation: elevation,
		Latitude:  *o.Latitude,
		Longitude: *o.Longitude,
		TimeZone:  *o.TimeZone,
	}
}

// HasLocation reports whether the entry carries explicit location fields.
func (o Options) HasLocation() bool {
	return o.LocParams() != nil
}

// Entry is a single configuration entry.
type Entry struct {
	ID       string  `yaml:"id" json:"id"`
	UniqueID string  `yaml:"unique_id,omitempty" json:"unique_id,omitempty"`
	Title    string  `yaml:"title" json:"title"`
	Source   Source  `yaml:"source" json:"source"`
	Options  Options `yaml:"options" json:"options"`
}

// newEntryID generates a random entry identifier.
func newEntryID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// Store holds all configuration entries, optionally persisted to a YAML
// file across restarts.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[string]*Entry
	order   []string
}

// NewStore creates an entry store. An empty path disables persistence.
func NewStore(path string) *Store {
	return &Store{path: path, entries: make(map[string]*Entry)}
}

// Load reads persisted entries from the store's file. A missing file is
// not an error: the store just starts empty.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.CreateWithCause(errors.CodeFileReadError, err)
	}
	var persisted struct {
		Entries []*Entry `yaml:"entries"`
	}
	if err := yaml.Unmarshal(raw, &persisted); err != nil {
		return errors.CreateWithCause(errors.CodeFileParseError, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry, len(persisted.Entries))
	s.order = s.order[:0]
	for _, e := range persisted.Entries {
		s.entries[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return nil
}

// Save writes all entries to the store's file.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	persisted := struct {
		Entries []*Entry `yaml:"entries"`
	}{Entries: s.Entries()}
	raw, err := yaml.Marshal(&persisted)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o644)
}

// Entries returns all entries in insertion order.
func (s *Store) Entries() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Entry, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok {
			result = append(result, e)
		}
	}
	return result
}

// Get retrieves an entry by ID.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// ByTitle retrieves an entry by its title.
// It returns a typed not-found error for unknown titles.
func (s *Store) ByTitle(title string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok && e.Title == title {
			return e, nil
		}
	}
	return nil, errors.ErrEntryNotFound(title)
}

// Add inserts a new entry, assigning an ID when it has none.
func (s *Store) Add(e *Entry) *Entry {
	if e.ID == "" {
		e.ID = newEntryID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[e.ID]; !exists {
		s.order = append(s.order, e.ID)
	}
	s.entries[e.ID] = e
	return e
}

// UpdateOptions replaces an entry's options.
func (s *Store) UpdateOptions(id string, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return errors.Create(errors.CodeEntryNotFound)
	}
	e.Options = opts
	return nil
}

// UpdateTitle renames an entry. It reports whether the title changed.
func (s *Store) UpdateTitle(id, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false, errors.Create(errors.CodeEntryNotFound)
	}
	if e.Title == title {
		return false, nil
	}
	e.Title = title
	return true, nil
}

// Remove deletes an entry by ID.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return
	}
	delete(s.entries, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
