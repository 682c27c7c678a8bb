package client

import (
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// GetConfig fetches the host's core configuration.
func (c *Client) GetConfig() (types.HAConfig, error) {
	return SendMessageTyped[types.HAConfig](c, "get_config", nil)
}

// ListEntities fetches all entity registry entries.
func (c *Client) ListEntities() ([]types.EntityEntry, error) {
	return SendMessageTyped[[]types.EntityEntry](c, "config/entity_registry/list", nil)
}

// RemoveEntity deletes an entity registry entry.
func (c *Client) RemoveEntity(entityID string) error {
	_, err := c.SendMessage("config/entity_registry/remove", map[string]any{
		"entity_id": entityID,
	})
	return err
}

// SubscribeCoreConfigUpdated subscribes to the host's core_config_updated
// event, delivering each update to the callback.
func (c *Client) SubscribeCoreConfigUpdated(callback func(*types.HAEvent)) (func(), error) {
	_, cleanup, err := c.SubscribeEvents("core_config_updated", callback)
	return cleanup, err
}
