// Package dialog decides what the call should do next after each turn.
// It is pure: no I/O, deterministic for a given input.
package dialog

import (
	"strings"

	"github.com/room4-2/voicedesk/call"
)

// CommitmentPhrase is the exact phrase the system prompt instructs the
// model to say when a booking is confirmed. Its presence in a reply is the
// sole handoff trigger; matching is literal substring containment,
// case-insensitive. Keep this in sync with the prompt.
const CommitmentPhrase = "payment link"

// Action is what the controller should do with the current turn.
type Action string

const (
	ContinueListening Action = "continue_listening"
	HandoffAndEnd     Action = "handoff_and_end"
	End               Action = "end"
)

// Decision pairs the next call phase with the action for this turn.
type Decision struct {
	Next   call.Phase
	Action Action
}

// Decide maps the current phase, the caller's utterance and the model's
// reply to the next step. An empty utterance means silence or a failed
// recognition; the call ends without consulting the model, so reply is
// ignored for that case.
func Decide(phase call.Phase, utterance, reply string) Decision {
	if strings.TrimSpace(utterance) == "" {
		return Decision{Next: call.PhaseEnded, Action: End}
	}
	if strings.Contains(strings.ToLower(reply), CommitmentPhrase) {
		return Decision{Next: call.PhaseHandedOff, Action: HandoffAndEnd}
	}
	return Decision{Next: call.PhaseListening, Action: ContinueListening}
}
