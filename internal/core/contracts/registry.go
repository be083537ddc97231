package contracts

import "context"

// Registry tracks which users currently hold a live connection on this
// instance and which conversation channels each connection has joined.
// Implementations are constructor-injected so tests can run isolated
// registries side by side.
type Registry interface {
	// Register records the connection for its user, replacing any previous
	// one (last-connect-wins). The replaced connection is not closed.
	Register(c Client)
	// Unregister removes the connection and all of its channel memberships.
	// Idempotent, and a no-op when a newer connection has already replaced c.
	Unregister(c Client)
	// Join adds c to a conversation channel. Membership is additive and does
	// not survive a disconnect.
	Join(channelID string, c Client)
	// Leave removes c from a channel.
	Leave(channelID string, c Client)
	IsConnected(userID string) bool
	ListConnected() []string
	// Lookup resolves a user to their current connection.
	Lookup(userID string) (Client, bool)
	// Channel returns a snapshot of the connections joined to channelID.
	Channel(channelID string) []Client
	// All returns a snapshot of every registered connection.
	All() []Client
}

// Client is the minimal surface the registry and dispatcher need from an
// individual websocket connection.
type Client interface {
	UserID() string
	Send(ctx context.Context, data []byte) error
	Close()
}
