package domain

import "encoding/json"

// Outbound event names. These are the wire contract the dashboard clients
// match on; renaming any of them breaks deployed frontends.
const (
	EventConnected             = "connected"
	EventNotification          = "notification"
	EventMessage               = "message"
	EventConversationMessage   = "conversation-message"
	EventBroadcastNotification = "broadcast-notification"
	EventError                 = "error"
)

// Inbound event names (client → server).
const (
	EventJoinConversation  = "join-conversation"
	EventLeaveConversation = "leave-conversation"
)

// Envelope is the frame format on the websocket, both directions.
// For join/leave events Data is the channel id as a JSON string.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into a ready-to-send frame.
func NewEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// ConnectedPayload is sent once after a successful handshake.
type ConnectedPayload struct {
	UserID string `json:"user_id"`
}

// ErrorPayload is a websocket-safe error frame.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Backplane frame scopes.
const (
	ScopeUser      = "user"
	ScopeChannel   = "channel"
	ScopeBroadcast = "broadcast"
)

// RelayFrame is what instances exchange over the pub/sub backplane. Origin
// lets the publishing instance skip its own echo.
type RelayFrame struct {
	Origin   string          `json:"origin"`
	Scope    string          `json:"scope"`
	Target   string          `json:"target,omitempty"`
	Envelope json.RawMessage `json:"envelope"`
}
