package contracts

import "context"

// Dispatcher attempts best-effort push delivery of already-persisted domain
// objects. Delivery is fire-and-forget: a recipient being offline is the
// expected steady state, never an error, and must not fail the HTTP write
// that triggered the push.
type Dispatcher interface {
	// SendToUser pushes payload under the given event name to the user's
	// live connection. Returns false when the user has no connection on this
	// instance; the caller may log but must not retry or queue.
	SendToUser(ctx context.Context, userID, event string, payload any) bool
	// SendToChannel pushes to every connection currently joined to the
	// channel. Delivering to zero recipients is fine.
	SendToChannel(ctx context.Context, channelID, event string, payload any)
	// Broadcast pushes to every registered connection.
	Broadcast(ctx context.Context, event string, payload any)
}
