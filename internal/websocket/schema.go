package websocket

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventViolation Event = "violation"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// ViolationEvent is pushed to monitoring admins when a candidate reports an
// integrity event.
type ViolationEvent struct {
	Event     Event   `json:"event"`
	SessionID string  `json:"session_id"`
	EventType string  `json:"event_type"`
	Metadata  *string `json:"metadata,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
