package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
)

func f64(v float64) *float64 { return &v }
func str(s string) *string   { return &s }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sun2.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Locations)
}

func TestLoadFileParseError(t *testing.T) {
	path := writeConfig(t, "locations: [not closed")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Equal(t, errors.CodeFileParseError, errors.GetCode(err))
}

func TestLoadFileValid(t *testing.T) {
	path := writeConfig(t, `
locations:
  - unique_id: home
  - unique_id: cabin
    location: Cabin
    latitude: 59.9139
    longitude: 10.7522
    elevation: 100
    time_zone: Europe/Oslo
    sensors:
      - unique_id: 6f5902ac237024bdd0c176cb93063dc4
        name: Morning Golden Hour
        elevation: 6
        direction: rising
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, cfg.Locations, 2)

	assert.False(t, cfg.Locations[0].Options.HasLocation())

	cabin := cfg.Locations[1]
	assert.Equal(t, "Cabin", cabin.Location)
	require.True(t, cabin.Options.HasLocation())
	params := cabin.Options.LocParams()
	assert.Equal(t, 59.9139, params.Latitude)
	assert.Equal(t, "Europe/Oslo", params.TimeZone)
	require.Len(t, cabin.Options.Sensors, 1)
	assert.Equal(t, "rising", cabin.Options.Sensors[0].Direction)
}

func TestLoadFileValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing unique_id", "locations:\n  - location: X\n"},
		{"duplicate unique_id", "locations:\n  - unique_id: a\n  - unique_id: a\n"},
		{"partial location", "locations:\n  - unique_id: a\n    latitude: 1\n"},
		{"latitude out of range", `
locations:
  - unique_id: a
    latitude: 95
    longitude: 0
    elevation: 0
    time_zone: UTC
`},
		{"longitude out of range", `
locations:
  - unique_id: a
    latitude: 0
    longitude: 190
    elevation: 0
    time_zone: UTC
`},
		{"bad sensor direction", `
locations:
  - unique_id: a
    sensors:
      - unique_id: b
        elevation: 3
        direction: sideways
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}
}

func TestImportReconciliation(t *testing.T) {
	s := NewStore("")

	user := s.Add(&Entry{
		Title:  "Observatory",
		Source: SourceUser,
		Options: Options{
			Latitude: f64(28.3), Longitude: f64(-16.5),
			Elevation: f64(2390), TimeZone: str("Atlantic/Canary"),
		},
	})

	first := &FileConfig{Locations: []LocationConfig{
		{UniqueID: "home"},
		{UniqueID: "cabin", Location: "Cabin", Options: Options{
			Latitude: f64(59.9), Longitude: f64(10.7),
			Elevation: f64(100), TimeZone: str("Europe/Oslo"),
		}},
	}}
	result := s.Import(first, "Home")
	assert.Len(t, result.Added, 2)
	assert.Empty(t, result.Updated)
	assert.Empty(t, result.Removed)
	assert.Len(t, s.Entries(), 3)

	home, err := s.ByTitle("Home")
	require.NoError(t, err)
	assert.Equal(t, SourceImport, home.Source)

	// Second import: cabin gone, home retitled, one new block.
	second := &FileConfig{Locations: []LocationConfig{
		{UniqueID: "home", Location: "Casa"},
		{UniqueID: "office", Location: "Office", Options: Options{
			Latitude: f64(51.5), Longitude: f64(0),
			Elevation: f64(0), TimeZone: str("Europe/London"),
		}},
	}}
	result = s.Import(second, "Home")
	require.Len(t, result.Removed, 1)
	assert.Equal(t, "Cabin", result.Removed[0].Title)
	require.Len(t, result.Updated, 1)
	assert.Equal(t, "Casa", result.Updated[0].Title)
	require.Len(t, result.Added, 1)
	assert.Equal(t, "Office", result.Added[0].Title)

	// The user entry is never touched by imports.
	got, ok := s.Get(user.ID)
	require.True(t, ok)
	assert.Equal(t, SourceUser, got.Source)
	assert.Equal(t, "Observatory", got.Title)

	_, err = s.ByTitle("Cabin")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestImportUnchangedEntriesNotMarkedUpdated(t *testing.T) {
	s := NewStore("")
	cfg := &FileConfig{Locations: []LocationConfig{
		{UniqueID: "cabin", Location: "Cabin", Options: Options{
			Latitude: f64(59.9), Longitude: f64(10.7),
			Elevation: f64(100), TimeZone: str("Europe/Oslo"),
			Sensors: []ExtraSensor{
				{UniqueID: "6f5902ac237024bdd0c176cb93063dc4", Name: "Golden Hour", Elevation: 6, Direction: "rising"},
			},
		}},
	}}
	first := s.Import(cfg, "Home")
	require.Len(t, first.Added, 1)

	// Re-importing an identical file is a no-op, so reloads do not tear
	// down and rebuild untouched entries.
	second := s.Import(cfg, "Home")
	assert.Empty(t, second.Added)
	assert.Empty(t, second.Updated)
	assert.Empty(t, second.Removed)

	// A genuine option change is still reported.
	cfg.Locations[0].Options.Elevation = f64(150)
	third := s.Import(cfg, "Home")
	require.Len(t, third.Updated, 1)

	// So is a retitle alone.
	cfg.Locations[0].Location = "Hytte"
	fourth := s.Import(cfg, "Home")
	require.Len(t, fourth.Updated, 1)
	assert.Equal(t, "Hytte", fourth.Updated[0].Title)
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.yaml")

	s := NewStore(path)
	added := s.Add(&Entry{
		Title:  "Cabin",
		Source: SourceUser,
		Options: Options{
			Latitude: f64(59.9), Longitude: f64(10.7),
			Elevation: f64(100), TimeZone: str("Europe/Oslo"),
		},
	})
	require.NotEmpty(t, added.ID)
	require.NoError(t, s.Save())

	reloaded := NewStore(path)
	require.NoError(t, reloaded.Load())
	got, ok := reloaded.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, "Cabin", got.Title)
	require.NotNil(t, got.Options.Latitude)
	assert.Equal(t, 59.9, *got.Options.Latitude)
}

func TestUpdateTitleReportsChange(t *testing.T) {
	s := NewStore("")
	e := s.Add(&Entry{Title: "Home", Source: SourceImport})

	changed, err := s.UpdateTitle(e.ID, "Home")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.UpdateTitle(e.ID, "Casa")
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = s.UpdateTitle("missing", "X")
	require.Error(t, err)
}
