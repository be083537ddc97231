package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/registry"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
)

type fakeClient struct {
	id       string
	mu       sync.Mutex
	frames   [][]byte
	failSend bool
}

func newFakeClient(id string) *fakeClient { return &fakeClient{id: id} }

func (c *fakeClient) UserID() string { return c.id }

func (c *fakeClient) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errors.New("write failed")
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeClient) Close() {}

func (c *fakeClient) events(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var events []string
	for _, frame := range c.frames {
		var env domain.Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		events = append(events, env.Event)
	}
	return events
}

type fakeBus struct {
	mu        sync.Mutex
	published [][]byte
}

func (b *fakeBus) Publish(_ context.Context, _ string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, payload)
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string, func(context.Context, []byte) error) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendToUserOfflineIsNoOp(t *testing.T) {
	hub := registry.NewRegistry()
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	delivered := d.SendToUser(context.Background(), "ghost", domain.EventNotification, map[string]string{"title": "hi"})

	assert.False(t, delivered)
}

func TestSendToUserDelivers(t *testing.T) {
	hub := registry.NewRegistry()
	c := newFakeClient("u1")
	hub.Register(c)
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	delivered := d.SendToUser(context.Background(), "u1", domain.EventNotification, map[string]string{"title": "outage"})

	require.True(t, delivered)
	require.Len(t, c.frames, 1)
	var env domain.Envelope
	require.NoError(t, json.Unmarshal(c.frames[0], &env))
	assert.Equal(t, domain.EventNotification, env.Event)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "outage", payload["title"])
}

func TestSendToUserReachesOnlyNewestConnection(t *testing.T) {
	hub := registry.NewRegistry()
	c1 := newFakeClient("u1")
	c2 := newFakeClient("u1")
	hub.Register(c1)
	hub.Register(c2)
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	require.True(t, d.SendToUser(context.Background(), "u1", domain.EventNotification, "x"))

	assert.Empty(t, c1.frames)
	assert.Len(t, c2.frames, 1)
}

func TestSendToUserWriteFailure(t *testing.T) {
	hub := registry.NewRegistry()
	c := newFakeClient("u1")
	c.failSend = true
	hub.Register(c)
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	assert.False(t, d.SendToUser(context.Background(), "u1", domain.EventNotification, "x"))
}

func TestSendToChannelFanout(t *testing.T) {
	hub := registry.NewRegistry()
	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	c3 := newFakeClient("u3")
	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)
	hub.Join("k", c1)
	hub.Join("k", c2)
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	d.SendToChannel(context.Background(), "k", domain.EventConversationMessage, "x")

	assert.Len(t, c1.frames, 1)
	assert.Len(t, c2.frames, 1)
	assert.Empty(t, c3.frames)
}

func TestLeaveThenDispatch(t *testing.T) {
	hub := registry.NewRegistry()
	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	hub.Register(c1)
	hub.Register(c2)
	hub.Join("k", c1)
	hub.Join("k", c2)
	hub.Leave("k", c1)
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	d.SendToChannel(context.Background(), "k", domain.EventConversationMessage, "x")

	assert.Empty(t, c1.frames)
	assert.Len(t, c2.frames, 1)
}

func TestSendToEmptyChannelIsSilent(t *testing.T) {
	hub := registry.NewRegistry()
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	// Must not panic or error: zero recipients is the steady state.
	d.SendToChannel(context.Background(), "empty", domain.EventConversationMessage, "x")
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	hub := registry.NewRegistry()
	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	hub.Register(c1)
	hub.Register(c2)
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	d.Broadcast(context.Background(), domain.EventBroadcastNotification, "x")

	assert.Equal(t, []string{domain.EventBroadcastNotification}, c1.events(t))
	assert.Equal(t, []string{domain.EventBroadcastNotification}, c2.events(t))
}

func TestBackplanePublishCarriesOriginAndScope(t *testing.T) {
	hub := registry.NewRegistry()
	bus := &fakeBus{}
	d := NewDispatchService(testLogger(), hub, bus, "node-a")

	// Publishes even when the user is not connected locally: a sibling
	// instance may hold the connection.
	d.SendToUser(context.Background(), "u1", domain.EventNotification, "x")

	require.Len(t, bus.published, 1)
	var frame domain.RelayFrame
	require.NoError(t, json.Unmarshal(bus.published[0], &frame))
	assert.Equal(t, "node-a", frame.Origin)
	assert.Equal(t, domain.ScopeUser, frame.Scope)
	assert.Equal(t, "u1", frame.Target)

	var env domain.Envelope
	require.NoError(t, json.Unmarshal(frame.Envelope, &env))
	assert.Equal(t, domain.EventNotification, env.Event)
}

func TestDeliverLocalRoutesByScope(t *testing.T) {
	hub := registry.NewRegistry()
	c1 := newFakeClient("u1")
	c2 := newFakeClient("u2")
	hub.Register(c1)
	hub.Register(c2)
	hub.Join("k", c2)
	d := NewDispatchService(testLogger(), hub, nil, "node-a")

	envelope, err := domain.NewEnvelope(domain.EventMessage, "x")
	require.NoError(t, err)

	d.DeliverLocal(context.Background(), domain.RelayFrame{Origin: "node-b", Scope: domain.ScopeUser, Target: "u1", Envelope: envelope})
	assert.Len(t, c1.frames, 1)
	assert.Empty(t, c2.frames)

	d.DeliverLocal(context.Background(), domain.RelayFrame{Origin: "node-b", Scope: domain.ScopeChannel, Target: "k", Envelope: envelope})
	assert.Len(t, c2.frames, 1)

	d.DeliverLocal(context.Background(), domain.RelayFrame{Origin: "node-b", Scope: domain.ScopeBroadcast, Envelope: envelope})
	assert.Len(t, c1.frames, 2)
	assert.Len(t, c2.frames, 2)
}
