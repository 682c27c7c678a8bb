package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/home-assistant-blueprints/sun2-go/internal/errors"
	"github.com/home-assistant-blueprints/sun2-go/internal/testfixtures"
	"github.com/home-assistant-blueprints/sun2-go/internal/types"
)

func TestConnectAuthFlow(t *testing.T) {
	server := testfixtures.TestServer(t, testfixtures.AuthFlowHandler(t, "secret",
		testfixtures.SuccessHandler(t, nil)))
	defer server.Close()

	c, err := Connect(testfixtures.WSURL(server), "secret", time.Second)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.SendMessage("ping", nil)
	assert.NoError(t, err)
}

func TestConnectAuthRejected(t *testing.T) {
	server := testfixtures.TestServer(t, testfixtures.AuthFlowHandler(t, "secret", nil))
	defer server.Close()

	_, err := Connect(testfixtures.WSURL(server), "wrong", time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestSendMessageCorrelation(t *testing.T) {
	server := testfixtures.TestServer(t, testfixtures.SuccessHandler(t, map[string]any{
		"latitude": 51.5074,
	}))
	defer server.Close()

	c := New(testfixtures.DialServer(t, server))
	defer c.Close()

	for i := 0; i < 3; i++ {
		resp, err := c.SendMessage("get_config", nil)
		require.NoError(t, err)
		require.NotNil(t, resp.Result)
	}
	assert.Equal(t, 4, c.NextID(), "IDs increment per message")
}

func TestSendMessageTyped(t *testing.T) {
	server := testfixtures.TestServer(t, testfixtures.SuccessHandler(t, map[string]any{
		"latitude":      51.5074,
		"longitude":     -0.1278,
		"location_name": "Home",
		"time_zone":     "Europe/London",
	}))
	defer server.Close()

	c := New(testfixtures.DialServer(t, server))
	defer c.Close()

	cfg, err := c.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 51.5074, cfg.Latitude)
	assert.Equal(t, "Home", cfg.LocationName)
	assert.Equal(t, "Europe/London", cfg.TimeZone)
}

func TestSendMessageErrorResponse(t *testing.T) {
	server := testfixtures.TestServer(t, testfixtures.ErrorHandler(t, "unknown_command", "no such command"))
	defer server.Close()

	c := New(testfixtures.DialServer(t, server))
	defer c.Close()

	_, err := c.SendMessage("bogus", nil)
	require.Error(t, err)
	assert.Equal(t, "unknown_command", errors.GetCode(err))
	assert.Contains(t, err.Error(), "no such command")
}

func TestSendMessageConnectionClosed(t *testing.T) {
	server := testfixtures.TestServer(t, testfixtures.ReadThenCloseHandler(t))
	defer server.Close()

	c := New(testfixtures.DialServer(t, server))
	defer c.Close()

	_, err := c.SendMessage("ping", nil)
	require.Error(t, err)

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("read loop did not exit after server close")
	}
}

func TestSubscribeEventsDelivery(t *testing.T) {
	events := []testfixtures.HAMessage{
		testfixtures.NewCoreConfigUpdatedMessage(0),
		testfixtures.NewCoreConfigUpdatedMessage(0),
	}
	server := testfixtures.TestServer(t, testfixtures.SubscriptionHandler(t, events...))
	defer server.Close()

	c := New(testfixtures.DialServer(t, server))
	defer c.Close()

	received := make(chan *types.HAEvent, 4)
	_, cleanup, err := c.SubscribeEvents("core_config_updated", func(ev *types.HAEvent) {
		received <- ev
	})
	require.NoError(t, err)
	defer cleanup()

	for i := 0; i < 2; i++ {
		select {
		case ev := <-received:
			assert.Equal(t, "core_config_updated", ev.EventType)
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestSubscribeEventsCleanupStopsDelivery(t *testing.T) {
	events := []testfixtures.HAMessage{
		testfixtures.NewCoreConfigUpdatedMessage(0),
		testfixtures.NewCoreConfigUpdatedMessage(0),
		testfixtures.NewCoreConfigUpdatedMessage(0),
	}
	server := testfixtures.TestServer(t, testfixtures.SubscriptionHandler(t, events...))
	defer server.Close()

	c := New(testfixtures.DialServer(t, server))
	defer c.Close()

	received := make(chan *types.HAEvent, 4)
	_, cleanup, err := c.SubscribeEvents("core_config_updated", func(ev *types.HAEvent) {
		received <- ev
	})
	require.NoError(t, err)

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("first event not delivered")
	}
	cleanup()

	// Remaining events are dropped after cleanup.
	select {
	case ev := <-received:
		t.Fatalf("unexpected event after cleanup: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}
