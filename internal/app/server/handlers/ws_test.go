package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/registry"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
)

type fakeClient struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
}

func (c *fakeClient) UserID() string { return c.id }

func (c *fakeClient) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeClient) Close() {}

func (c *fakeClient) lastEvent(t *testing.T) domain.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.frames)
	var env domain.Envelope
	require.NoError(t, json.Unmarshal(c.frames[len(c.frames)-1], &env))
	return env
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func inbound(t *testing.T, event string, data any) []byte {
	t.Helper()
	frame, err := domain.NewEnvelope(event, data)
	require.NoError(t, err)
	return frame
}

func TestJoinAndLeaveConversation(t *testing.T) {
	hub := registry.NewRegistry()
	h := NewWSHandler(hub, nil)
	client := &fakeClient{id: "u1"}
	hub.Register(client)
	channelID := uuid.NewString()

	h.handleInbound(context.Background(), testLogger(), client, inbound(t, domain.EventJoinConversation, channelID))
	require.Len(t, hub.Channel(channelID), 1)

	h.handleInbound(context.Background(), testLogger(), client, inbound(t, domain.EventLeaveConversation, channelID))
	assert.Empty(t, hub.Channel(channelID))
}

func TestMalformedFrameKeepsConnectionUp(t *testing.T) {
	hub := registry.NewRegistry()
	h := NewWSHandler(hub, nil)
	client := &fakeClient{id: "u1"}
	hub.Register(client)

	h.handleInbound(context.Background(), testLogger(), client, []byte("{broken"))

	env := client.lastEvent(t)
	assert.Equal(t, domain.EventError, env.Event)
	assert.True(t, hub.IsConnected("u1"))
}

func TestJoinWithoutChannelIDRejected(t *testing.T) {
	hub := registry.NewRegistry()
	h := NewWSHandler(hub, nil)
	client := &fakeClient{id: "u1"}
	hub.Register(client)

	h.handleInbound(context.Background(), testLogger(), client, inbound(t, domain.EventJoinConversation, ""))

	env := client.lastEvent(t)
	assert.Equal(t, domain.EventError, env.Event)
}

func TestJoinWithBadChannelIDRejected(t *testing.T) {
	hub := registry.NewRegistry()
	h := NewWSHandler(hub, nil)
	client := &fakeClient{id: "u1"}
	hub.Register(client)

	h.handleInbound(context.Background(), testLogger(), client, inbound(t, domain.EventJoinConversation, "not-a-uuid"))

	env := client.lastEvent(t)
	assert.Equal(t, domain.EventError, env.Event)
	assert.Empty(t, hub.Channel("not-a-uuid"))
}

func TestUnknownEventRejected(t *testing.T) {
	hub := registry.NewRegistry()
	h := NewWSHandler(hub, nil)
	client := &fakeClient{id: "u1"}
	hub.Register(client)

	h.handleInbound(context.Background(), testLogger(), client, inbound(t, "subscribe-all", nil))

	env := client.lastEvent(t)
	assert.Equal(t, domain.EventError, env.Event)
}
