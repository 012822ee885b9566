package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/subtrackr/bot/internal/api"
	"github.com/subtrackr/bot/internal/flow"
	"github.com/subtrackr/bot/internal/session"
)

type sentMessage struct {
	SessionID string
	Text      string
	Buttons   []Button
}

type fakeSender struct {
	sent []sentMessage
}

func (s *fakeSender) Send(_ context.Context, sid, text string, buttons ...Button) error {
	s.sent = append(s.sent, sentMessage{SessionID: sid, Text: text, Buttons: buttons})
	return nil
}

// last returns the single message of the most recent turn and asserts the
// one-message-per-turn contract.
func (s *fakeSender) last(t *testing.T, wantNew int) sentMessage {
	t.Helper()
	if len(s.sent) != wantNew {
		t.Fatalf("sent %d messages, want %d", len(s.sent), wantNew)
	}
	return s.sent[len(s.sent)-1]
}

type fakeBackend struct {
	loginToken string
	loginErr   error
	listSubs   []api.Subscription
	listErr    error
	createErr  error
	deleteErr  error

	loginCalls  int
	listCalls   int
	createCalls int
	deleteCalls int

	lastToken  string
	lastCreate api.CreateSubscriptionRequest
	lastDelete string
}

func (b *fakeBackend) Login(_ context.Context, username, password string) (string, error) {
	b.loginCalls++
	if b.loginErr != nil {
		return "", b.loginErr
	}
	return b.loginToken, nil
}

func (b *fakeBackend) ListSubscriptions(_ context.Context, token string) ([]api.Subscription, error) {
	b.listCalls++
	b.lastToken = token
	return b.listSubs, b.listErr
}

func (b *fakeBackend) CreateSubscription(_ context.Context, token string, req api.CreateSubscriptionRequest) (string, error) {
	b.createCalls++
	b.lastToken = token
	b.lastCreate = req
	return "new-id", b.createErr
}

func (b *fakeBackend) DeleteSubscription(_ context.Context, token, id string) error {
	b.deleteCalls++
	b.lastToken = token
	b.lastDelete = id
	return b.deleteErr
}

func newTestEngine(backend *fakeBackend) (*Engine, *fakeSender) {
	sender := &fakeSender{}
	reg := session.NewRegistry(session.NewMemoryStore())
	return New(reg, backend, sender), sender
}

const sid = "1001"

func TestListUnauthenticated(t *testing.T) {
	backend := &fakeBackend{}
	eng, sender := newTestEngine(backend)

	if err := eng.List(context.Background(), sid); err != nil {
		t.Fatalf("list: %v", err)
	}
	msg := sender.last(t, 1)
	if msg.Text != msgLoginRequired {
		t.Errorf("message = %q, want login hint", msg.Text)
	}
	if backend.listCalls != 0 {
		t.Errorf("backend called %d times, want 0", backend.listCalls)
	}
}

func TestLoginFlow(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{loginToken: "t"}
	eng, sender := newTestEngine(backend)

	if err := eng.StartLogin(ctx, sid); err != nil {
		t.Fatalf("start login: %v", err)
	}
	if got := sender.last(t, 1).Text; got != promptUsername {
		t.Errorf("prompt = %q", got)
	}
	if err := eng.HandleText(ctx, sid, "u"); err != nil {
		t.Fatalf("username turn: %v", err)
	}
	if got := sender.last(t, 2).Text; got != promptPassword {
		t.Errorf("prompt = %q", got)
	}
	if err := eng.HandleText(ctx, sid, "p"); err != nil {
		t.Fatalf("password turn: %v", err)
	}
	if got := sender.last(t, 3).Text; got != msgLoginOK {
		t.Errorf("message = %q", got)
	}
	if backend.loginCalls != 1 {
		t.Errorf("login calls = %d", backend.loginCalls)
	}
	if eng.InProgress(ctx, sid) {
		t.Error("session should be idle after login completes")
	}

	// The stored credential flows into subsequent backend calls.
	backend.listSubs = []api.Subscription{}
	if err := eng.List(ctx, sid); err != nil {
		t.Fatalf("list: %v", err)
	}
	if backend.lastToken != "t" {
		t.Errorf("list used token %q, want t", backend.lastToken)
	}
}

func TestLoginRejected(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{loginErr: api.ErrAuthFailed}
	eng, sender := newTestEngine(backend)

	_ = eng.StartLogin(ctx, sid)
	_ = eng.HandleText(ctx, sid, "u")
	_ = eng.HandleText(ctx, sid, "bad")
	if got := sender.last(t, 3).Text; got != msgLoginRejected {
		t.Errorf("message = %q, want rejection", got)
	}
	// Failed login leaves the session unauthenticated and idle.
	if eng.InProgress(ctx, sid) {
		t.Error("flow should be consumed")
	}
	if err := eng.List(ctx, sid); err != nil {
		t.Fatalf("list: %v", err)
	}
	if backend.listCalls != 0 {
		t.Error("unauthenticated list must not reach the backend")
	}
}

func TestAddFlowComplete(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{loginToken: "t"}
	eng, sender := newTestEngine(backend)

	_ = eng.StartLogin(ctx, sid)
	_ = eng.HandleText(ctx, sid, "u")
	_ = eng.HandleText(ctx, sid, "p")
	sender.sent = nil

	if err := eng.StartAdd(ctx, sid); err != nil {
		t.Fatalf("start add: %v", err)
	}
	turns := []struct {
		input  func() error
		prompt string
	}{
		{func() error { return eng.HandleText(ctx, sid, "Netflix") }, promptPrice},
		{func() error { return eng.HandleText(ctx, sid, "15.99") }, promptCurrency},
		{func() error { return eng.HandleSelection(ctx, sid, flow.FieldCurrency, "USD") }, promptCycle},
		{func() error { return eng.HandleSelection(ctx, sid, flow.FieldBillingCycle, "monthly") }, promptCategory},
		{func() error { return eng.HandleSelection(ctx, sid, flow.FieldCategory, "Other") }, promptDate},
	}
	for i, turn := range turns {
		if err := turn.input(); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		msg := sender.last(t, i+2)
		if !strings.HasPrefix(msg.Text, turn.prompt) {
			t.Errorf("turn %d prompt = %q, want %q", i, msg.Text, turn.prompt)
		}
	}
	if err := eng.HandleText(ctx, sid, "2023-12-31"); err != nil {
		t.Fatalf("date turn: %v", err)
	}
	if got := sender.last(t, 7).Text; got != msgCreated {
		t.Errorf("final message = %q", got)
	}

	if backend.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", backend.createCalls)
	}
	req := backend.lastCreate
	if req.UserID != sid || req.Name != "Netflix" || req.Price != "15.99" ||
		req.Currency != "USD" || req.BillingCycle != "monthly" ||
		req.Category != "Other" || req.NextPaymentDate != "2023-12-31" {
		t.Errorf("create request: %+v", req)
	}
	if backend.lastToken != "t" {
		t.Errorf("create used token %q", backend.lastToken)
	}
	if eng.InProgress(ctx, sid) {
		t.Error("session should return to idle with no collected fields")
	}
}

func TestAddRequiresCredential(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	eng, sender := newTestEngine(backend)

	if err := eng.StartAdd(ctx, sid); err != nil {
		t.Fatalf("start add: %v", err)
	}
	if got := sender.last(t, 1).Text; got != msgLoginRequired {
		t.Errorf("message = %q", got)
	}
	if eng.InProgress(ctx, sid) {
		t.Error("no flow should start without a credential")
	}
}

func TestOutOfSetButtonReprompts(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{loginToken: "t"}
	eng, sender := newTestEngine(backend)

	_ = eng.StartLogin(ctx, sid)
	_ = eng.HandleText(ctx, sid, "u")
	_ = eng.HandleText(ctx, sid, "p")
	_ = eng.StartAdd(ctx, sid)
	_ = eng.HandleText(ctx, sid, "Netflix")
	_ = eng.HandleText(ctx, sid, "15.99")
	sender.sent = nil

	if err := eng.HandleSelection(ctx, sid, flow.FieldCurrency, "GBP"); err != nil {
		t.Fatalf("selection: %v", err)
	}
	msg := sender.last(t, 1)
	if !strings.Contains(msg.Text, promptCurrency) {
		t.Errorf("should repeat the currency prompt: %q", msg.Text)
	}
	if len(msg.Buttons) == 0 {
		t.Error("re-prompt should offer the currency buttons again")
	}

	// State did not move; a valid choice still lands on the currency step.
	if err := eng.HandleSelection(ctx, sid, flow.FieldCurrency, "USD"); err != nil {
		t.Fatalf("selection: %v", err)
	}
	if got := sender.last(t, 2).Text; !strings.HasPrefix(got, promptCycle) {
		t.Errorf("next prompt = %q, want billing cycle", got)
	}
}

func TestInvalidFreeTextReprompts(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{loginToken: "t"}
	eng, sender := newTestEngine(backend)

	_ = eng.StartLogin(ctx, sid)
	_ = eng.HandleText(ctx, sid, "u")
	_ = eng.HandleText(ctx, sid, "p")
	_ = eng.StartAdd(ctx, sid)
	_ = eng.HandleText(ctx, sid, "Netflix")
	sender.sent = nil

	if err := eng.HandleText(ctx, sid, "fifteen"); err != nil {
		t.Fatalf("price turn: %v", err)
	}
	if got := sender.last(t, 1).Text; !strings.Contains(got, promptPrice) {
		t.Errorf("should repeat the price prompt: %q", got)
	}
	if err := eng.HandleText(ctx, sid, "15.99"); err != nil {
		t.Fatalf("price retry: %v", err)
	}
	if got := sender.last(t, 2).Text; !strings.HasPrefix(got, promptCurrency) {
		t.Errorf("next prompt = %q", got)
	}
}

func TestSecondFlowRejected(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	eng, sender := newTestEngine(backend)

	_ = eng.StartLogin(ctx, sid)
	sender.sent = nil
	if err := eng.StartLogin(ctx, sid); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if got := sender.last(t, 1).Text; got != msgFlowActive {
		t.Errorf("message = %q, want flow-active warning", got)
	}
	// The original flow is still awaiting its first field.
	_ = eng.HandleText(ctx, sid, "u")
	if got := sender.last(t, 2).Text; got != promptPassword {
		t.Errorf("flow state lost: %q", got)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	eng, sender := newTestEngine(backend)

	_ = eng.StartLogin(ctx, sid)
	_ = eng.HandleText(ctx, sid, "u")
	if err := eng.Cancel(ctx, sid); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := sender.last(t, 3).Text; got != msgCancelled {
		t.Errorf("message = %q", got)
	}
	if eng.InProgress(ctx, sid) {
		t.Error("cancel should clear the flow")
	}
	if err := eng.Cancel(ctx, sid); err != nil {
		t.Fatalf("idle cancel: %v", err)
	}
	if got := sender.last(t, 4).Text; got != msgNothingToCancel {
		t.Errorf("idle cancel message = %q", got)
	}
}

func TestTransportFailureMessage(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		loginToken: "t",
		listErr:    &api.TransportError{Op: "list", Err: context.DeadlineExceeded},
	}
	eng, sender := newTestEngine(backend)

	_ = eng.StartLogin(ctx, sid)
	_ = eng.HandleText(ctx, sid, "u")
	_ = eng.HandleText(ctx, sid, "p")
	sender.sent = nil

	if err := eng.List(ctx, sid); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := sender.last(t, 1).Text; got != msgConnectionError {
		t.Errorf("message = %q, want connection failure", got)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{
		loginToken: "t",
		listSubs: []api.Subscription{
			{Name: "Netflix", Price: "15.99", Currency: "USD", BillingCycle: "monthly"},
			{Name: "Spotify", Price: "9.99", Currency: "USD", BillingCycle: "monthly"},
		},
	}
	eng, sender := newTestEngine(backend)
	_ = eng.StartLogin(ctx, sid)
	_ = eng.HandleText(ctx, sid, "u")
	_ = eng.HandleText(ctx, sid, "p")
	sender.sent = nil

	if err := eng.Stats(ctx, sid); err != nil {
		t.Fatalf("stats: %v", err)
	}
	got := sender.last(t, 1).Text
	for _, want := range []string{"$25.98", "$311.76", "Spotify", "Netflix"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats output missing %q:\n%s", want, got)
		}
	}

	backend.listSubs = nil
	if err := eng.Stats(ctx, sid); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got := sender.last(t, 2).Text; got != msgNoStats {
		t.Errorf("empty stats message = %q", got)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{loginToken: "t"}
	eng, sender := newTestEngine(backend)
	_ = eng.StartLogin(ctx, sid)
	_ = eng.HandleText(ctx, sid, "u")
	_ = eng.HandleText(ctx, sid, "p")
	sender.sent = nil

	if err := eng.Delete(ctx, sid, ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := sender.last(t, 1).Text; got != msgDeleteUsage {
		t.Errorf("message = %q", got)
	}
	if backend.deleteCalls != 0 {
		t.Error("missing id must not reach the backend")
	}

	if err := eng.Delete(ctx, sid, " abc123 "); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := sender.last(t, 2).Text; got != msgDeleted {
		t.Errorf("message = %q", got)
	}
	if backend.lastDelete != "abc123" {
		t.Errorf("deleted id = %q", backend.lastDelete)
	}

	backend.deleteErr = api.ErrNotFound
	if err := eng.Delete(ctx, sid, "zzz"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := sender.last(t, 3).Text; got != msgDeleteNotFound {
		t.Errorf("message = %q", got)
	}
}
