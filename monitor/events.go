package monitor

import "time"

// Event types published on the live feed
const (
	TypeCallStarted = "call_started"
	TypeTurn        = "turn"
	TypeHandoff     = "handoff"
	TypeCallEnded   = "call_ended"
)

// Event is one call-lifecycle notification for the ops feed.
type Event struct {
	Type      string    `json:"type"`
	CallerID  string    `json:"callerId"`
	Utterance string    `json:"utterance,omitempty"`
	Reply     string    `json:"reply,omitempty"`
	Action    string    `json:"action,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	At        time.Time `json:"at"`
}

// NewCallStartedEvent marks a new inbound call.
func NewCallStartedEvent(callerID string) Event {
	return Event{Type: TypeCallStarted, CallerID: callerID, At: time.Now()}
}

// NewTurnEvent records one utterance/reply cycle and the decided action.
func NewTurnEvent(callerID, utterance, reply, action string) Event {
	return Event{
		Type:      TypeTurn,
		CallerID:  callerID,
		Utterance: utterance,
		Reply:     reply,
		Action:    action,
		At:        time.Now(),
	}
}

// NewHandoffEvent reports a payment-link send attempt and its outcome.
func NewHandoffEvent(callerID, outcome string) Event {
	return Event{Type: TypeHandoff, CallerID: callerID, Outcome: outcome, At: time.Now()}
}

// NewCallEndedEvent marks the call reaching a terminal phase.
func NewCallEndedEvent(callerID string) Event {
	return Event{Type: TypeCallEnded, CallerID: callerID, At: time.Now()}
}
