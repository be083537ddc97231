package contracts

import "context"

// EventBus is the pub/sub backplane that fans dispatches out across relay
// instances. Delivery inherits the relay's semantics: fire-and-forget,
// at-most-once.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe consumes messages until ctx is cancelled, invoking handler
	// for each. It runs its receive loop on a background goroutine.
	Subscribe(ctx context.Context, channel string, handler func(ctx context.Context, data []byte) error) error
}
