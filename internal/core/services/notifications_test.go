package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/registry"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/domain"
)

type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []domain.Notification
	read    []uuid.UUID
}

func (r *fakeNotificationRepo) CreateNotification(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *n)
	return nil
}

func (r *fakeNotificationRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.created {
		if n.UserID == nil || *n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, notifID, _ uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.read = append(r.read, notifID)
	return nil
}

func TestCreateNotificationConnectedRecipient(t *testing.T) {
	hub := registry.NewRegistry()
	recipientID := uuid.New()
	client := newFakeClient(recipientID.String())
	hub.Register(client)
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(testLogger(), repo, NewDispatchService(testLogger(), hub, nil, "node-a"))

	n, delivered, err := svc.Create(context.Background(), recipientID, "Corte programado", "Mantenimiento 14:00-16:00")

	require.NoError(t, err)
	assert.True(t, delivered)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Corte programado", repo.created[0].Title)

	// Exactly one push, kind notification, with the persisted fields.
	require.Len(t, client.frames, 1)
	var env domain.Envelope
	require.NoError(t, json.Unmarshal(client.frames[0], &env))
	assert.Equal(t, domain.EventNotification, env.Event)
	var got domain.Notification
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, "Corte programado", got.Title)
	assert.Equal(t, "Mantenimiento 14:00-16:00", got.Body)
}

func TestCreateNotificationOfflineRecipientStillPersists(t *testing.T) {
	hub := registry.NewRegistry()
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(testLogger(), repo, NewDispatchService(testLogger(), hub, nil, "node-a"))

	_, delivered, err := svc.Create(context.Background(), uuid.New(), "Corte programado", "")

	// Persistence succeeded; the skipped push is not an error.
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Len(t, repo.created, 1)
}

func TestCreateNotificationRequiresRecipient(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(testLogger(), repo, NewDispatchService(testLogger(), registry.NewRegistry(), nil, "node-a"))

	_, _, err := svc.Create(context.Background(), uuid.Nil, "t", "b")

	assert.ErrorIs(t, err, domain.ErrInvalidUserID)
	assert.Empty(t, repo.created)
}

func TestBroadcastNotification(t *testing.T) {
	hub := registry.NewRegistry()
	c1 := newFakeClient(uuid.NewString())
	c2 := newFakeClient(uuid.NewString())
	hub.Register(c1)
	hub.Register(c2)
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(testLogger(), repo, NewDispatchService(testLogger(), hub, nil, "node-a"))

	n, err := svc.Broadcast(context.Background(), "Actualización", "Nueva versión del panel")

	require.NoError(t, err)
	assert.Nil(t, n.UserID, "broadcast rows have no recipient")
	require.Len(t, repo.created, 1)
	assert.Equal(t, []string{domain.EventBroadcastNotification}, c1.events(t))
	assert.Equal(t, []string{domain.EventBroadcastNotification}, c2.events(t))
}

func TestBroadcastRowsAppearInEveryListing(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(testLogger(), repo, NewDispatchService(testLogger(), registry.NewRegistry(), nil, "node-a"))

	_, err := svc.Broadcast(context.Background(), "global", "")
	require.NoError(t, err)

	notifs, err := svc.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Len(t, notifs, 1)
}
