package call

import "time"

// Phase is the lifecycle phase of a call.
type Phase string

const (
	PhaseGreeting  Phase = "greeting"
	PhaseListening Phase = "listening"
	PhaseHandedOff Phase = "handed-off"
	PhaseEnded     Phase = "ended"
)

// Turn is one completed request/response cycle. Turns are append-only.
type Turn struct {
	Utterance string    `json:"utterance"`
	Reply     string    `json:"reply"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}

// Call is the per-caller state carried across webhook turns.
type Call struct {
	CallerID     string    `json:"caller_id"`
	Phase        Phase     `json:"phase"`
	Turns        []Turn    `json:"turns"`
	HandoffSent  bool      `json:"handoff_sent"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// New creates a call in the greeting phase.
func New(callerID string) *Call {
	now := time.Now()
	return &Call{
		CallerID:     callerID,
		Phase:        PhaseGreeting,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// AppendTurn records a completed turn and refreshes activity.
func (c *Call) AppendTurn(utterance, reply, action string) {
	now := time.Now()
	c.Turns = append(c.Turns, Turn{
		Utterance: utterance,
		Reply:     reply,
		Action:    action,
		At:        now,
	})
	c.LastActivity = now
}

// HandoffOutcome describes whether the payment link was delivered.
type HandoffOutcome string

const (
	HandoffSent   HandoffOutcome = "sent"
	HandoffFailed HandoffOutcome = "failed"
)

// HandoffEvent is the audit record for a payment-link send. Exactly one is
// created per call that reaches the handoff decision; delivery is never
// retried inline, so a failed outcome is followed up out of band.
type HandoffEvent struct {
	ID         string         `json:"id"`
	CallerID   string         `json:"caller_id"`
	To         string         `json:"to"`
	Link       string         `json:"link"`
	Outcome    HandoffOutcome `json:"outcome"`
	MessageSID string         `json:"message_sid,omitempty"`
	Error      string         `json:"error,omitempty"`
	At         time.Time      `json:"at"`
}
