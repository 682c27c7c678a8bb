package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
)

// LocationConfig is one location block in the YAML config file.
type LocationConfig struct {
	UniqueID string  `yaml:"unique_id"`
	Location string  `yaml:"location"`
	Options  Options `yaml:",inline"`
}

// FileConfig is the daemon's YAML configuration file.
type FileConfig struct {
	Locations []LocationConfig `yaml:"locations"`
}

// LoadFile reads and validates the YAML config file. A missing file
// yields an empty config, matching a removed YAML section.
func LoadFile(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileConfig{}, nil
		}
		return nil, errors.CreateWithCause(errors.CodeFileReadError, err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.CreateWithCause(errors.CodeFileParseError, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks each location block: unique_id is required, the four
// location fields are all-or-none, and coordinates must be in range.
func (c *FileConfig) validate() error {
	seen := make(map[string]bool)
	for i, loc := range c.Locations {
		path := fmt.Sprintf("locations[%d]", i)
		if loc.UniqueID == "" {
			return errors.ErrInvalidArgument(path + ": missing required key 'unique_id'")
		}
		if seen[loc.UniqueID] {
			return errors.ErrInvalidArgument(path + ": duplicate unique_id '" + loc.UniqueID + "'")
		}
		seen[loc.UniqueID] = true
		if err := ValidateOptions(loc.Options, path); err != nil {
			return err
		}
	}
	return nil
}

func ValidateOptions(o Options, path string) error {
	set := 0
	for _, present := range []bool{
		o.Elevation != nil, o.Latitude != nil, o.Longitude != nil, o.TimeZone != nil,
	} {
		if present {
			set++
		}
	}
	if set != 0 && set != 4 {
		return errors.ErrInvalidArgument(path + ": elevation, latitude, longitude and time_zone must be given together")
	}
	if o.Latitude != nil && (*o.Latitude < -90 || *o.Latitude > 90) {
		return errors.ErrInvalidArgument(fmt.Sprintf("%s: latitude %v out of range [-90, 90]", path, *o.Latitude))
	}
	if o.Longitude != nil && (*o.Longitude < -180 || *o.Longitude > 180) {
		return errors.ErrInvalidArgument(fmt.Sprintf("%s: longitude %v out of range [-180, 180]", path, *o.Longitude))
	}
	for i, sensor := range o.Sensors {
		if sensor.UniqueID == "" {
			return errors.ErrInvalidArgument(fmt.Sprintf("%s.sensors[%d]: missing required key 'unique_id'", path, i))
		}
		if sensor.Direction != "" && sensor.Direction != "rising" && sensor.Direction != "setting" {
			return errors.ErrInvalidArgument(fmt.Sprintf("%s.sensors[%d]: direction must be 'rising' or 'setting'", path, i))
		}
	}
	return nil
}

// optionsEqual compares options by value, following the pointer fields.
func optionsEqual(a, b Options) bool {
	if !floatPtrEqual(a.Elevation, b.Elevation) ||
		!floatPtrEqual(a.Latitude, b.Latitude) ||
		!floatPtrEqual(a.Longitude, b.Longitude) ||
		!stringPtrEqual(a.TimeZone, b.TimeZone) {
		return false
	}
	if len(a.Sensors) != len(b.Sensors) {
		return false
	}
	for i := range a.Sensors {
		if a.Sensors[i] != b.Sensors[i] {
			return false
		}
	}
	return true
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ImportResult describes what an import reconciliation changed.
type ImportResult struct {
	// Added holds entries created by this import.
	Added []*Entry
	// Updated holds pre-existing imported entries whose options changed.
	Updated []*Entry
	// Removed holds imported entries deleted because their unique_id no
	// longer appears in the file.
	Removed []*Entry
}

// Import reconciles the store's imported entries against the config
// file: imported entries whose unique_id vanished are removed, known
// ones are updated in place, and new blocks become imported entries.
// User-created entries are never touched.
func (s *Store) Import(cfg *FileConfig, defaultTitle string) ImportResult {
	var result ImportResult

	current := make(map[string]bool, len(cfg.Locations))
	for _, loc := range cfg.Locations {
		current[loc.UniqueID] = true
	}

	for _, e := range s.Entries() {
		if e.Source != SourceImport {
			continue
		}
		if !current[e.UniqueID] {
			s.Remove(e.ID)
			result.Removed = append(result.Removed, e)
		}
	}

	byUniqueID := make(map[string]*Entry)
	for _, e := range s.Entries() {
		if e.Source == SourceImport {
			byUniqueID[e.UniqueID] = e
		}
	}

	for _, loc := range cfg.Locations {
		title := loc.Location
		if title == "" {
			title = defaultTitle
		}
		if existing, ok := byUniqueID[loc.UniqueID]; ok {
			if existing.Title != title || !optionsEqual(existing.Options, loc.Options) {
				existing.Options = loc.Options
				existing.Title = title
				result.Updated = append(result.Updated, existing)
			}
			continue
		}
		added := s.Add(&Entry{
			UniqueID: loc.UniqueID,
			Title:    title,
			Source:   SourceImport,
			Options:  loc.Options,
		})
		result.Added = append(result.Added, added)
	}

	return result
}
