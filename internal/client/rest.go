package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// StatePublisher posts entity states to the host's REST API. The
// WebSocket API has no command for setting states, so state updates go
// over POST /api/states/<entity_id>.
type StatePublisher struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewStatePublisher creates a publisher for the given REST base URL,
// e.g. "http://supervisor/core".
func NewStatePublisher(baseURL, token string) *StatePublisher {
	return &StatePublisher{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// PublishState sets an entity's state and attributes.
func (p *StatePublisher) PublishState(entityID string, update types.StateUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	url := fmt.Sprintf("%s/api/states/%s", p.baseURL, entityID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrorTypeTransport, err, "failed to post state for %s", entityID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf(errors.ErrorTypeTransport,
			"unexpected status %d posting state for %s: %s", resp.StatusCode, entityID, detail)
	}
	return nil
}
