package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/room4-2/voicedesk/call"
	"github.com/room4-2/voicedesk/monitor"
	"github.com/room4-2/voicedesk/twiml"
)

const (
	testCaller = "+15550001234"
	testLink   = "https://pay.example.com/deposit"

	commitmentReply = "Great, I'll send a payment link to your phone."
	ordinaryReply   = "Studio A is $75 an hour. What day works for you?"
)

type fakeModel struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	lastUtt string
}

func (m *fakeModel) Reply(ctx context.Context, systemPrompt, utterance string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastUtt = utterance
	return m.reply, m.err
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type sentMessage struct {
	to   string
	body string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) SendLink(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return "SMfake", nil
}

func (f *fakeMessenger) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestController(model *fakeModel, messenger *fakeMessenger) (*Controller, *call.MemoryStore) {
	store := call.NewMemoryStore(time.Minute, 10)
	hub := monitor.NewHub(30 * time.Second)
	return New(store, model, messenger, hub, testLink, 5*time.Second), store
}

// render serializes the response and undoes XML entity escaping so tests
// can match spoken lines verbatim.
func render(t *testing.T, resp *twiml.Response) string {
	t.Helper()
	out, err := resp.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return strings.NewReplacer("&#39;", "'", "&#34;", `"`, "&amp;", "&").Replace(string(out))
}

func TestHandleIncomingCall(t *testing.T) {
	ctx := context.Background()
	ct, store := newTestController(&fakeModel{}, &fakeMessenger{})

	doc := render(t, ct.HandleIncomingCall(ctx, testCaller))

	for _, want := range []string{
		`action="/voice/respond"`,
		"Blue Door Studios",
		noInputText,
		"<Redirect>/voice</Redirect>",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("greeting markup missing %q:\n%s", want, doc)
		}
	}

	c, ok, _ := store.Get(ctx, testCaller)
	if !ok || c.Phase != call.PhaseGreeting {
		t.Errorf("stored call = %+v ok=%v, want greeting phase", c, ok)
	}
}

func TestHandleIncomingCallAtCapacity(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{}
	store := call.NewMemoryStore(time.Minute, 1)
	hub := monitor.NewHub(30 * time.Second)
	ct := New(store, model, &fakeMessenger{}, hub, testLink, 5*time.Second)

	render(t, ct.HandleIncomingCall(ctx, "+15550009999"))
	doc := render(t, ct.HandleIncomingCall(ctx, testCaller))

	if !strings.Contains(doc, busyText) || !strings.Contains(doc, "<Hangup>") {
		t.Errorf("expected busy hangup markup, got:\n%s", doc)
	}
}

func TestEmptyUtteranceNeverReachesModel(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{reply: ordinaryReply}
	ct, _ := newTestController(model, &fakeMessenger{})

	render(t, ct.HandleIncomingCall(ctx, testCaller))

	for _, utterance := range []string{"", "   "} {
		doc := render(t, ct.HandleUtterance(ctx, testCaller, utterance))
		if !strings.Contains(doc, silenceText) {
			t.Errorf("silence markup missing apology for %q:\n%s", utterance, doc)
		}
		if !strings.Contains(doc, "<Redirect>/voice</Redirect>") {
			t.Errorf("silence markup missing redirect for %q:\n%s", utterance, doc)
		}
	}
	if model.callCount() != 0 {
		t.Errorf("model called %d times for empty utterances, want 0", model.callCount())
	}
}

func TestModelFailureReturnsSafeFallback(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{err: errors.New("deadline exceeded")}
	messenger := &fakeMessenger{}
	ct, store := newTestController(model, messenger)

	render(t, ct.HandleIncomingCall(ctx, testCaller))
	doc := render(t, ct.HandleUtterance(ctx, testCaller, "hi, do you have time Friday?"))

	if !strings.Contains(doc, modelDownText) || !strings.Contains(doc, "<Hangup>") {
		t.Errorf("expected spoken fallback and hangup, got:\n%s", doc)
	}
	if messenger.sentCount() != 0 {
		t.Error("messaging invoked on model failure")
	}
	if _, ok, _ := store.Get(ctx, testCaller); ok {
		t.Error("call record kept after model failure end")
	}
}

func TestContinueListeningKeepsCallOpen(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{reply: ordinaryReply}
	messenger := &fakeMessenger{}
	ct, store := newTestController(model, messenger)

	render(t, ct.HandleIncomingCall(ctx, testCaller))
	doc := render(t, ct.HandleUtterance(ctx, testCaller, "I'd like to book Studio A for 2 hours Friday at 3pm"))

	if !strings.Contains(doc, `action="/voice/respond"`) {
		t.Errorf("no new listening window in:\n%s", doc)
	}
	if !strings.Contains(doc, "What day works for you?") {
		t.Errorf("reply not spoken in:\n%s", doc)
	}
	if messenger.sentCount() != 0 {
		t.Error("messaging invoked without a commitment reply")
	}

	c, ok, _ := store.Get(ctx, testCaller)
	if !ok || c.Phase != call.PhaseListening || len(c.Turns) != 1 {
		t.Errorf("stored call = %+v ok=%v, want listening with one turn", c, ok)
	}
}

func TestHandoffSendsLinkExactlyOnce(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{reply: commitmentReply}
	messenger := &fakeMessenger{}
	ct, store := newTestController(model, messenger)

	render(t, ct.HandleIncomingCall(ctx, testCaller))
	doc := render(t, ct.HandleUtterance(ctx, testCaller, "Yes, confirmed"))

	if !strings.Contains(doc, commitmentReply) || !strings.Contains(doc, linkSentText) || !strings.Contains(doc, "<Hangup>") {
		t.Errorf("handoff markup wrong:\n%s", doc)
	}
	if messenger.sentCount() != 1 {
		t.Fatalf("messaging invoked %d times, want 1", messenger.sentCount())
	}
	if got := messenger.sent[0]; got.to != testCaller || !strings.Contains(got.body, testLink) {
		t.Errorf("sent = %+v, want link to %s", got, testCaller)
	}

	events := store.HandoffEvents()
	if len(events) != 1 || events[0].Outcome != call.HandoffSent || events[0].MessageSID != "SMfake" {
		t.Errorf("handoff events = %+v, want one sent event", events)
	}

	// A duplicate/retried webhook with the same commitment reply must not
	// text a second link, but the call still ends cleanly.
	doc = render(t, ct.HandleUtterance(ctx, testCaller, "Yes, confirmed"))
	if messenger.sentCount() != 1 {
		t.Errorf("messaging invoked %d times after retry, want 1", messenger.sentCount())
	}
	if strings.Contains(doc, linkSentText) {
		t.Errorf("duplicate turn claims a link was sent:\n%s", doc)
	}
	if !strings.Contains(doc, "<Hangup>") {
		t.Errorf("duplicate turn does not end the call:\n%s", doc)
	}
	if len(store.HandoffEvents()) != 1 {
		t.Errorf("duplicate turn recorded another handoff event")
	}
}

func TestHandoffMessagingFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{reply: commitmentReply}
	messenger := &fakeMessenger{err: errors.New("send rejected")}
	ct, store := newTestController(model, messenger)

	render(t, ct.HandleIncomingCall(ctx, testCaller))
	doc := render(t, ct.HandleUtterance(ctx, testCaller, "Yes, confirmed"))

	// The caller is never told delivery failed; the failure lives in the
	// audit trail for out-of-band follow-up.
	if !strings.Contains(doc, linkSentText) || !strings.Contains(doc, "<Hangup>") {
		t.Errorf("markup changed on messaging failure:\n%s", doc)
	}
	events := store.HandoffEvents()
	if len(events) != 1 || events[0].Outcome != call.HandoffFailed || events[0].Error == "" {
		t.Errorf("handoff events = %+v, want one failed event", events)
	}
}

func TestUnknownCallStateRecovers(t *testing.T) {
	ctx := context.Background()
	model := &fakeModel{reply: ordinaryReply}
	ct, _ := newTestController(model, &fakeMessenger{})

	// No entry webhook ever arrived for this caller; the turn must still
	// be answered with a fresh listening call, not an error.
	doc := render(t, ct.HandleUtterance(ctx, "+15557770000", "how much is the rehearsal room?"))
	if !strings.Contains(doc, `action="/voice/respond"`) {
		t.Errorf("expected a listening window for an unknown caller:\n%s", doc)
	}
	if model.callCount() != 1 {
		t.Errorf("model called %d times, want 1", model.callCount())
	}
}
