package websocket

import "github.com/google/uuid"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect   Action = "select"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionFlag     Action = "flag"
	ActionUnflag   Action = "unflag"
	ActionFinish   Action = "finish"
	ActionState    Action = "state"
	ActionPing     Action = "ping"
)

// Request is one client message. QuestionID is used by select, flag and unflag.
// OptionIDs is the selection for select, and the displayed selection for next/previous.
type Request struct {
	Action     Action      `json:"action"`
	QuestionID uuid.UUID   `json:"question_id,omitempty"`
	OptionIDs  []uuid.UUID `json:"option_ids,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSession   Event = "session"
	EventResult    Event = "result"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// Message is the envelope for every server message.
type Message struct {
	Event Event `json:"event"`
	Data  any   `json:"data,omitempty"`
}

// ErrorData carries the same code/message pair as the REST error envelope.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
