// Package types provides type definitions shared across the sun2 daemon.
package types

// HAMessage represents a message from the Home Assistant WebSocket API.
type HAMessage struct {
	ID      int      `json:"id,omitempty"`
	Type    string   `json:"type"`
	Success *bool    `json:"success,omitempty"`
	Result  any      `json:"result,omitempty"`
	Error   *HAError `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
	Event   *HAEvent `json:"event,omitempty"`
}

// HAError represents an error response from Home Assistant.
type HAError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// HAEvent represents an event delivered on a subscription.
type HAEvent struct {
	EventType string         `json:"event_type,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Origin    string         `json:"origin,omitempty"`
	TimeFired string         `json:"time_fired,omitempty"`
}

// HAConfig represents the host's core configuration as returned by get_config.
type HAConfig struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Elevation    float64 `json:"elevation"`
	LocationName string  `json:"location_name"`
	TimeZone     string  `json:"time_zone"`
	Language     string  `json:"language"`
	Version      string  `json:"version"`
}

// EntityEntry represents an entity registry entry.
type EntityEntry struct {
	EntityID     string `json:"entity_id"`
	UniqueID     string `json:"unique_id,omitempty"`
	Name         string `json:"name,omitempty"`
	OriginalName string `json:"original_name,omitempty"`
	Platform     string `json:"platform,omitempty"`
	DisabledBy   string `json:"disabled_by,omitempty"`
}

// LocParams holds explicit location parameters for an entity or entry.
// A nil *LocParams means "derive from the host's current configuration".
// The struct is used by value as a cache key, so it must stay comparable.
type LocParams struct {
	Elevation float64 `json:"elevation" yaml:"elevation"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	TimeZone  string  `json:"time_zone" yaml:"time_zone"`
}

// GetLocationRequest is the payload for the get_location service.
type GetLocationRequest struct {
	Location string `json:"location"`
}

// GetLocationResponse is the response from the get_location service.
type GetLocationResponse struct {
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeZone  string  `json:"time_zone"`
	Elevation float64 `json:"elevation"`
}

// UpdateLocationRequest is the payload for the update_location service.
// Pointer fields distinguish "not provided" from zero values.
type UpdateLocationRequest struct {
	Location  string   `json:"location"`
	Elevation *float64 `json:"elevation,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	TimeZone  *string  `json:"time_zone,omitempty"`
}

// StateUpdate is the body posted to the host when publishing entity state.
type StateUpdate struct {
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
