package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// AnswerRequest is sent by the client to select an answer option.
type AnswerRequest struct {
	Action      Action `json:"action"`
	QuestionID  string `json:"question_id"`
	OptionIndex int    `json:"option_index"`
}

// SubmitRequest is sent by the client to finish and grade the exam.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

// SavedResponse acknowledges a stored answer with the countdown so the
// client clock can resync on every save.
type SavedResponse struct {
	Event            Event  `json:"event"`
	QuestionID       string `json:"question_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// GradedResponse carries the final result. Sent both for a manual
// submit and pushed when the time limit auto-submits the session.
type GradedResponse struct {
	Event       Event `json:"event"`
	Score       int   `json:"score"`
	Passed      bool  `json:"passed"`
	TimedOut    bool  `json:"timed_out"`
	SavePending bool  `json:"save_pending,omitempty"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

// PongResponse answers a ping, carrying the server-side countdown.
type PongResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}
