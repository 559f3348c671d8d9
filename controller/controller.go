// Package controller owns call state across webhook turns and decides what
// the telephony gateway should do next. Each turn arrives as an independent
// HTTP request; continuity lives entirely in the call store.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/room4-2/voicedesk/call"
	"github.com/room4-2/voicedesk/dialog"
	"github.com/room4-2/voicedesk/monitor"
	"github.com/room4-2/voicedesk/twiml"
)

// Webhook paths the rendered TwiML points back at.
const (
	VoicePath   = "/voice"
	RespondPath = "/voice/respond"
)

// Spoken lines for the fixed branches of the call.
const (
	greetingText  = "Thanks for calling Blue Door Studios! This is Maya. How can I help you today?"
	noInputText   = "I didn't hear anything. Please call back when you're ready. Goodbye!"
	silenceText   = "Sorry, I didn't catch that. Please call back when you're ready."
	modelDownText = "Sorry, I'm having trouble connecting right now. Please call back in a few minutes."
	busyText      = "We're getting a lot of calls right now. Please call back in a few minutes."
	linkSentText  = "I've just texted a payment link to your phone to lock in the session. Talk soon!"
)

// ModelClient produces one reply for one utterance.
type ModelClient interface {
	Reply(ctx context.Context, systemPrompt, utterance string) (string, error)
}

// Messenger delivers the payment link to the caller's phone.
type Messenger interface {
	SendLink(ctx context.Context, to, body string) (string, error)
}

// Controller orchestrates one webhook turn end to end.
type Controller struct {
	store        call.Store
	model        ModelClient
	messenger    Messenger
	hub          *monitor.Hub
	paymentLink  string
	modelTimeout time.Duration
}

// New wires the controller's collaborators. All clients are constructed
// once at process start and injected here; the controller holds no global
// state of its own.
func New(store call.Store, model ModelClient, messenger Messenger, hub *monitor.Hub, paymentLink string, modelTimeout time.Duration) *Controller {
	return &Controller{
		store:        store,
		model:        model,
		messenger:    messenger,
		hub:          hub,
		paymentLink:  paymentLink,
		modelTimeout: modelTimeout,
	}
}

// HandleIncomingCall answers a newly connected call: greet, open a
// listening window, and fall back to a goodbye if nothing is heard.
func (ct *Controller) HandleIncomingCall(ctx context.Context, callerID string) *twiml.Response {
	c := call.New(callerID)
	if err := ct.store.Put(ctx, c); err != nil {
		if errors.Is(err, call.ErrTooManyCalls) {
			log.Printf("📞 Rejecting call from %s: %v", callerID, err)
			return twiml.New().Say(busyText).Hangup()
		}
		// A turn with no stored state falls back to a fresh listening
		// call, so the greeting still goes out.
		log.Printf("📞 Failed to store call %s: %v", callerID, err)
	}

	log.Printf("📞 Incoming call from %s", callerID)
	ct.hub.Publish(monitor.NewCallStartedEvent(callerID))

	return twiml.New().
		GatherSpeech(RespondPath, greetingText).
		Say(noInputText).
		Redirect(VoicePath)
}

// HandleUtterance runs one recognized utterance through the model and the
// dialog policy. Every branch returns well-formed TwiML; no failure here
// ever surfaces as an error response to the gateway.
func (ct *Controller) HandleUtterance(ctx context.Context, callerID, utterance string) *twiml.Response {
	c := ct.lookupCall(ctx, callerID)

	decision := dialog.Decide(c.Phase, utterance, "")
	if decision.Action == dialog.End {
		// Silence or failed recognition. The model is never consulted.
		log.Printf("🔇 No input from %s, ending call", callerID)
		ct.endCall(ctx, c)
		return twiml.New().Say(silenceText).Redirect(VoicePath)
	}

	reply, err := ct.modelReply(ctx, utterance)
	if err != nil {
		log.Printf("❌ Model reply failed for %s: %v", callerID, err)
		c.AppendTurn(utterance, modelDownText, string(dialog.End))
		ct.hub.Publish(monitor.NewTurnEvent(callerID, utterance, modelDownText, string(dialog.End)))
		ct.endCall(ctx, c)
		return twiml.New().Say(modelDownText).Hangup()
	}

	decision = dialog.Decide(c.Phase, utterance, reply)
	c.AppendTurn(utterance, reply, string(decision.Action))
	c.Phase = decision.Next
	ct.hub.Publish(monitor.NewTurnEvent(callerID, utterance, reply, string(decision.Action)))

	switch decision.Action {
	case dialog.HandoffAndEnd:
		resp := ct.handleHandoff(ctx, c, reply)
		ct.endCall(ctx, c)
		return resp
	case dialog.ContinueListening:
		if err := ct.store.Put(ctx, c); err != nil {
			log.Printf("📞 Failed to store call %s: %v", callerID, err)
		}
		return twiml.New().
			GatherSpeech(RespondPath, reply).
			Say(noInputText).
			Redirect(VoicePath)
	default:
		ct.endCall(ctx, c)
		return twiml.New().Say(reply).Hangup()
	}
}

// lookupCall loads the caller's state, falling back to a fresh listening
// call when the record is missing or the store is unreachable. A terminal
// webhook retry or an expired record must never fail the request.
func (ct *Controller) lookupCall(ctx context.Context, callerID string) *call.Call {
	c, ok, err := ct.store.Get(ctx, callerID)
	if err != nil {
		log.Printf("📞 Failed to load call %s: %v", callerID, err)
	}
	if !ok || c == nil || c.Phase == call.PhaseEnded || c.Phase == call.PhaseHandedOff {
		c = call.New(callerID)
		c.Phase = call.PhaseListening
	}
	return c
}

func (ct *Controller) modelReply(ctx context.Context, utterance string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ct.modelTimeout)
	defer cancel()
	return ct.model.Reply(ctx, receptionistPrompt, utterance)
}

// handleHandoff runs the one-shot payment-link send. The claim is an
// atomic check-and-set in the store: exactly one webhook per caller wins,
// so a retried turn cannot text a second link. Delivery failures are
// recorded in the audit trail and the call still ends gracefully; the
// caller is never told the text failed.
func (ct *Controller) handleHandoff(ctx context.Context, c *call.Call, reply string) *twiml.Response {
	won, err := ct.store.ClaimHandoff(ctx, c.CallerID)
	if err != nil {
		// Without the guard we cannot rule out a duplicate send, so skip
		// the text entirely. The commitment reply is still spoken.
		log.Printf("💸 Handoff claim failed for %s: %v", c.CallerID, err)
		return twiml.New().Say(reply).Hangup()
	}
	if !won {
		log.Printf("💸 Handoff already sent for %s, skipping duplicate", c.CallerID)
		return twiml.New().Say(reply).Hangup()
	}
	c.HandoffSent = true

	body := fmt.Sprintf("Blue Door Studios: secure your session with the $50 deposit here: %s", ct.paymentLink)
	ev := call.HandoffEvent{
		ID:       uuid.New().String(),
		CallerID: c.CallerID,
		To:       c.CallerID,
		Link:     ct.paymentLink,
		At:       time.Now(),
	}

	sid, err := ct.messenger.SendLink(ctx, c.CallerID, body)
	if err != nil {
		log.Printf("💸 Payment link send failed for %s: %v", c.CallerID, err)
		ev.Outcome = call.HandoffFailed
		ev.Error = err.Error()
	} else {
		log.Printf("💸 Payment link sent to %s (%s)", c.CallerID, sid)
		ev.Outcome = call.HandoffSent
		ev.MessageSID = sid
	}

	if err := ct.store.RecordHandoff(ctx, ev); err != nil {
		log.Printf("💸 Failed to record handoff event for %s: %v", c.CallerID, err)
	}
	ct.hub.Publish(monitor.NewHandoffEvent(c.CallerID, string(ev.Outcome)))

	return twiml.New().Say(reply).Say(linkSentText).Hangup()
}

// endCall discards the per-call state. A later webhook for the same caller
// starts a fresh call.
func (ct *Controller) endCall(ctx context.Context, c *call.Call) {
	if err := ct.store.Delete(ctx, c.CallerID); err != nil {
		log.Printf("📞 Failed to delete call %s: %v", c.CallerID, err)
	}
	ct.hub.Publish(monitor.NewCallEndedEvent(c.CallerID))
}
