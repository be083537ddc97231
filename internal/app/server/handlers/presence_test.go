package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/app/registry"
	"github.com/electricautomaticchile/electricautomaticchile-sub006/internal/core/services"
)

type fakePresenceStore struct {
	mu      sync.Mutex
	offline []string
	listErr error
}

func (f *fakePresenceStore) UpdateOnlineStatus(context.Context, string, time.Duration) error {
	return nil
}

func (f *fakePresenceStore) MarkOffline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = append(f.offline, userID)
	return nil
}

func (f *fakePresenceStore) ListOnline(context.Context) ([]string, error) {
	return nil, f.listErr
}

func newPresenceService(store *fakePresenceStore) *services.PresenceService {
	return services.NewPresenceService(testLogger(), store, time.Second, time.Second)
}

func TestReplacedConnectionTeardownKeepsPresence(t *testing.T) {
	hub := registry.NewRegistry()
	store := &fakePresenceStore{}
	h := NewWSHandler(hub, newPresenceService(store))

	old := &fakeClient{id: "u1"}
	hub.Register(old)
	// Reconnect replaces the mapping; the old handler tears down afterwards.
	hub.Register(&fakeClient{id: "u1"})

	h.teardown(context.Background(), testLogger(), old)

	assert.True(t, hub.IsConnected("u1"))
	assert.Empty(t, store.offline, "live connection must stay online")
}

func TestFinalTeardownMarksOffline(t *testing.T) {
	hub := registry.NewRegistry()
	store := &fakePresenceStore{}
	h := NewWSHandler(hub, newPresenceService(store))

	client := &fakeClient{id: "u1"}
	hub.Register(client)

	h.teardown(context.Background(), testLogger(), client)

	assert.False(t, hub.IsConnected("u1"))
	assert.Equal(t, []string{"u1"}, store.offline)
}

func TestOnlineHandlerWithoutRequestLogger(t *testing.T) {
	store := &fakePresenceStore{listErr: errors.New("redis down")}
	h := NewUserHandler(newPresenceService(store))

	// No logging middleware on this request; the error path must still answer.
	rec := httptest.NewRecorder()
	h.Online(rec, httptest.NewRequest(http.MethodGet, "/api/users/online", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
