package contracts

import (
	"context"
	"time"
)

// PresenceStore keeps TTL-based online status in Redis so presence survives
// across relay instances even without the backplane.
type PresenceStore interface {
	// UpdateOnlineStatus refreshes the user's heartbeat timestamp.
	UpdateOnlineStatus(ctx context.Context, userID string, ttl time.Duration) error
	// MarkOffline removes the user immediately on disconnect.
	MarkOffline(ctx context.Context, userID string) error
	// ListOnline returns users whose heartbeat is within the window.
	ListOnline(ctx context.Context) ([]string, error)
}
