package testfixtures

import (
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// HAMessage aliases the daemon's wire message so fixture literals stay
// short in tests.
type HAMessage = types.HAMessage

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}

// NewSuccessMessage creates a successful result message.
func NewSuccessMessage(id int, result any) HAMessage {
	return HAMessage{
		ID:      id,
		Type:    "result",
		Success: BoolPtr(true),
		Result:  result,
	}
}

// NewErrorMessage creates an error result message.
func NewErrorMessage(id int, code, message string) HAMessage {
	return HAMessage{
		ID:      id,
		Type:    "result",
		Success: BoolPtr(false),
		Error: &types.HAError{
			Code:    code,
			Message: message,
		},
	}
}

// NewEventMessage creates an event message for a subscription.
func NewEventMessage(id int, eventType string, data map[string]any) HAMessage {
	return HAMessage{
		ID:   id,
		Type: "event",
		Event: &types.HAEvent{
			EventType: eventType,
			Data:      data,
		},
	}
}

// NewCoreConfigUpdatedMessage creates a core_config_updated event.
func NewCoreConfigUpdatedMessage(id int) HAMessage {
	return NewEventMessage(id, "core_config_updated", nil)
}

// NewAuthRequiredMessage creates an auth_required message.
func NewAuthRequiredMessage() HAMessage {
	return HAMessage{Type: "auth_required"}
}

// NewAuthOKMessage creates an auth_ok message.
func NewAuthOKMessage() HAMessage {
	return HAMessage{Type: "auth_ok"}
}

// NewAuthInvalidMessage creates an auth_invalid message.
func NewAuthInvalidMessage(message string) HAMessage {
	return HAMessage{
		Type:    "auth_invalid",
		Message: message,
	}
}

// NewPongMessage creates a pong response message.
func NewPongMessage(id int) HAMessage {
	return HAMessage{ID: id, Type: "pong"}
}

// LondonConfig is a host configuration fixture for London.
func LondonConfig() types.HAConfig {
	return types.HAConfig{
		Latitude:     51.5074,
		Longitude:    -0.1278,
		Elevation:    11,
		LocationName: "Home",
		TimeZone:     "Europe/London",
		Language:     "en",
		Version:      "2026.8.0",
	}
}

// NewEntityEntry creates an entity registry entry fixture.
func NewEntityEntry(entityID, uniqueID, platform string) types.EntityEntry {
	return types.EntityEntry{
		EntityID: entityID,
		UniqueID: uniqueID,
		Platform: platform,
	}
}
