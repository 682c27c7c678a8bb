// Package client provides WebSocket and REST client utilities for
// communicating with Home Assistant.
package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

// Client represents a WebSocket client for Home Assistant.
type Client struct {
	conn           *websocket.Conn
	messageID      atomic.Int32
	pendingMu      sync.RWMutex
	pending        map[int]chan *types.HAMessage
	subscriptions  map[int]func(*types.HAEvent)
	subscriptionMu sync.RWMutex
	done           chan struct{}
	readErr        error
}

// Connect dials the Home Assistant WebSocket API, runs the auth
// handshake and returns a ready client.
func Connect(wsURL, token string, timeout time.Duration) (*Client, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}

	conn, _, err := dialer.Dial(wsURL, header)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrorTypeTransport, err, "failed to connect to %s", wsURL)
	}

	if err := authenticate(conn, token); err != nil {
		conn.Close()
		return nil, errors.Wrap(errors.ErrorTypeTransport, err, "authentication failed")
	}

	return New(conn), nil
}

// authenticate performs the auth_required/auth/auth_ok handshake.
func authenticate(conn *websocket.Conn, token string) error {
	var msg struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		return fmt.Errorf("failed to read auth_required: %w", err)
	}
	if msg.Type != "auth_required" {
		return fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	authMsg := map[string]string{
		"type":         "auth",
		"access_token": token,
	}
	if err := conn.WriteJSON(authMsg); err != nil {
		return fmt.Errorf("failed to send auth: %w", err)
	}

	var authResult struct {
		Type    string `json:"type"`
		Message string `json:"message,omitempty"`
	}
	if err := conn.ReadJSON(&authResult); err != nil {
		return fmt.Errorf("failed to read auth result: %w", err)
	}
	if authResult.Type != "auth_ok" {
		return fmt.Errorf("authentication rejected: %s", authResult.Message)
	}
	return nil
}

// New creates a new client on an already-authenticated connection.
func New(conn *websocket.Conn) *Client {
	c := &Client{
		conn:          conn,
		pending:       make(map[int]chan *types.HAMessage),
		subscriptions: make(map[int]func(*types.HAEvent)),
		done:          make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// NextID generates the next unique message ID.
func (c *Client) NextID() int {
	return int(c.messageID.Add(1))
}

// readLoop continuously reads messages from the WebSocket.
func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			c.pendingMu.Lock()
			for _, ch := range c.pending {
				close(ch)
			}
			c.pending = make(map[int]chan *types.HAMessage)
			c.pendingMu.Unlock()
			return
		}

		var msg types.HAMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		c.handleMessage(&msg)
	}
}

// handleMessage routes incoming messages to their handlers.
func (c *Client) handleMessage(msg *types.HAMessage) {
	switch msg.Type {
	case "result", "pong":
		c.pendingMu.RLock()
		ch, ok := c.pending[msg.ID]
		c.pendingMu.RUnlock()
		if ok {
			ch <- msg
		}
	case "event":
		c.subscriptionMu.RLock()
		handler, ok := c.subscriptions[msg.ID]
		c.subscriptionMu.RUnlock()
		if ok && msg.Event != nil {
			handler(msg.Event)
		}
	}
}

// SendMessage sends a message and waits for the response.
func (c *Client) SendMessage(msgType string, data map[string]any) (*types.HAMessage, error) {
	id := c.NextID()

	msg := map[string]any{
		"id":   id,
		"type": msgType,
	}
	for k, v := range data {
		msg[k] = v
	}

	respCh := make(chan *types.HAMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeTransport, err, "failed to send message")
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, errors.New(errors.ErrorTypeTransport, "connection closed")
		}
		if resp.Success != nil && !*resp.Success {
			errMsg := "unknown error"
			code := ""
			if resp.Error != nil {
				errMsg = resp.Error.Message
				code = resp.Error.Code
			}
			return nil, errors.NewWithCode(errors.ErrorTypeTransport, code, errMsg)
		}
		return resp, nil
	case <-c.done:
		return nil, errors.Wrap(errors.ErrorTypeTransport, c.readErr, "connection closed")
	}
}

// SendMessageTyped sends a message and unmarshals the result into the
// provided type.
func SendMessageTyped[T any](c *Client, msgType string, data map[string]any) (T, error) {
	var result T
	resp, err := c.SendMessage(msgType, data)
	if err != nil {
		return result, err
	}

	resultBytes, err := json.Marshal(resp.Result)
	if err != nil {
		return result, fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := json.Unmarshal(resultBytes, &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return result, nil
}

// SubscribeEvents subscribes to a host event type and calls the callback
// for each delivered event. Returns the subscription ID and a cleanup
// function that drops the local handler.
func (c *Client) SubscribeEvents(eventType string, callback func(*types.HAEvent)) (subscriptionID int, cleanup func(), err error) {
	id := c.NextID()

	// Register the handler before sending so no event is lost between
	// the confirmation and the first delivery.
	c.subscriptionMu.Lock()
	c.subscriptions[id] = callback
	c.subscriptionMu.Unlock()

	cleanupFn := func() {
		c.subscriptionMu.Lock()
		delete(c.subscriptions, id)
		c.subscriptionMu.Unlock()
	}

	msg := map[string]any{
		"id":   id,
		"type": "subscribe_events",
	}
	if eventType != "" {
		msg["event_type"] = eventType
	}

	respCh := make(chan *types.HAMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()

	removePending := func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		cleanupFn()
		removePending()
		return 0, nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		cleanupFn()
		removePending()
		return 0, nil, errors.Wrap(errors.ErrorTypeTransport, err, "failed to send message")
	}

	select {
	case resp, ok := <-respCh:
		if !ok {
			cleanupFn()
			return 0, nil, errors.New(errors.ErrorTypeTransport, "connection closed")
		}
		if resp.Success != nil && !*resp.Success {
			cleanupFn()
			errMsg := "subscription failed"
			if resp.Error != nil {
				errMsg = resp.Error.Message
			}
			return 0, nil, errors.New(errors.ErrorTypeTransport, errMsg)
		}
	case <-time.After(5 * time.Second):
		cleanupFn()
		removePending()
		return 0, nil, errors.New(errors.ErrorTypeTransport, "subscription timeout")
	}

	removePending()

	return id, cleanupFn, nil
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Done returns a channel that's closed when the read loop has exited.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
