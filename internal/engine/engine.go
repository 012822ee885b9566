// Package engine is the conversation core: it turns a sequence of
// independent inbound messages and button presses into completed,
// validated backend requests. The chat transport stays behind the Sender
// interface and the backend behind RecordAPI, so every multi-step
// invariant lives here and is testable without Telegram or a network.
//
// Contract: every handled turn emits exactly one outbound message —
// never zero, never more than one.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/subtrackr/bot/core/logger"
	"github.com/subtrackr/bot/internal/api"
	"github.com/subtrackr/bot/internal/flow"
	"github.com/subtrackr/bot/internal/session"

	"log/slog"
)

// Button is one inline choice offered with a prompt. Action identifies
// the callback route, Value carries the pre-validated selection.
type Button struct {
	Label  string
	Action string
	Value  string
}

// Sender delivers one message to a session. Fire-and-forget: the engine
// does not wait for acknowledgment.
type Sender interface {
	Send(ctx context.Context, sessionID, text string, buttons ...Button) error
}

// RecordAPI is the backend surface the engine needs.
type RecordAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	ListSubscriptions(ctx context.Context, token string) ([]api.Subscription, error)
	CreateSubscription(ctx context.Context, token string, req api.CreateSubscriptionRequest) (string, error)
	DeleteSubscription(ctx context.Context, token, id string) error
}

// Callback actions for the enum-constrained flow steps.
const (
	ActionCurrency = "add_currency"
	ActionCycle    = "add_cycle"
	ActionCategory = "add_category"
)

// Engine dispatches inbound events against per-session conversation
// state.
type Engine struct {
	sessions *session.Registry
	backend  RecordAPI
	send     Sender
}

// New wires the engine.
func New(sessions *session.Registry, backend RecordAPI, send Sender) *Engine {
	return &Engine{sessions: sessions, backend: backend, send: send}
}

func (e *Engine) reply(ctx context.Context, sid, text string, buttons ...Button) error {
	return e.send.Send(ctx, sid, text, buttons...)
}

// Start greets a new or returning session.
func (e *Engine) Start(ctx context.Context, sid string) error {
	e.sessions.GetOrCreate(ctx, sid)
	return e.reply(ctx, sid, msgWelcome)
}

// Help lists the available commands.
func (e *Engine) Help(ctx context.Context, sid string) error {
	return e.reply(ctx, sid, msgHelp)
}

// StartLogin begins the two-step login flow.
func (e *Engine) StartLogin(ctx context.Context, sid string) error {
	if _, err := e.sessions.BeginFlow(ctx, sid, flow.KindLogin); err != nil {
		return e.replyFlowStartError(ctx, sid, err)
	}
	return e.reply(ctx, sid, promptUsername)
}

// StartAdd begins the six-step add-subscription flow. Requires a
// credential; an unauthenticated session gets the login hint and no flow.
func (e *Engine) StartAdd(ctx context.Context, sid string) error {
	if _, err := e.sessions.Credential(ctx, sid); err != nil {
		return e.reply(ctx, sid, msgLoginRequired)
	}
	if _, err := e.sessions.BeginFlow(ctx, sid, flow.KindAddSubscription); err != nil {
		return e.replyFlowStartError(ctx, sid, err)
	}
	return e.reply(ctx, sid, promptName)
}

func (e *Engine) replyFlowStartError(ctx context.Context, sid string, err error) error {
	if errors.Is(err, session.ErrFlowAlreadyActive) {
		return e.reply(ctx, sid, msgFlowActive)
	}
	logger.Error(ctx, "engine", "flow.start.fail",
		slog.String("status", "fail"),
		slog.String("session_id", sid),
		slog.String("err", err.Error()),
	)
	return e.reply(ctx, sid, msgInternalError)
}

// Cancel abandons any active flow and returns the session to idle.
func (e *Engine) Cancel(ctx context.Context, sid string) error {
	_, active := e.sessions.ActiveFlow(ctx, sid)
	if err := e.sessions.ClearFlow(ctx, sid); err != nil {
		logger.Warn(ctx, "engine", "flow.clear.fail",
			slog.String("session_id", sid),
			slog.String("err", err.Error()),
		)
	}
	if !active {
		return e.reply(ctx, sid, msgNothingToCancel)
	}
	return e.reply(ctx, sid, msgCancelled)
}

// InProgress reports whether the session has an active flow awaiting
// input.
func (e *Engine) InProgress(ctx context.Context, sid string) bool {
	_, ok := e.sessions.ActiveFlow(ctx, sid)
	return ok
}

// List renders the session's subscriptions.
func (e *Engine) List(ctx context.Context, sid string) error {
	token, err := e.sessions.Credential(ctx, sid)
	if err != nil {
		return e.reply(ctx, sid, msgLoginRequired)
	}
	subs, err := e.backend.ListSubscriptions(ctx, token)
	if err != nil {
		return e.replyBackendError(ctx, sid, "list", err)
	}
	if len(subs) == 0 {
		return e.reply(ctx, sid, msgNoSubscriptions)
	}
	return e.reply(ctx, sid, renderList(subs))
}

// Delete removes one record by id, taken from the command argument.
func (e *Engine) Delete(ctx context.Context, sid, recordID string) error {
	token, err := e.sessions.Credential(ctx, sid)
	if err != nil {
		return e.reply(ctx, sid, msgLoginRequired)
	}
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return e.reply(ctx, sid, msgDeleteUsage)
	}
	if err := e.backend.DeleteSubscription(ctx, token, recordID); err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return e.reply(ctx, sid, msgDeleteNotFound)
		}
		return e.replyBackendError(ctx, sid, "delete", err)
	}
	return e.reply(ctx, sid, msgDeleted)
}

// Stats reports spending statistics over the current listing.
func (e *Engine) Stats(ctx context.Context, sid string) error {
	token, err := e.sessions.Credential(ctx, sid)
	if err != nil {
		return e.reply(ctx, sid, msgLoginRequired)
	}
	subs, err := e.backend.ListSubscriptions(ctx, token)
	if err != nil {
		return e.replyBackendError(ctx, sid, "stats", err)
	}
	stats, err := api.ComputeStats(subs)
	if err != nil {
		if errors.Is(err, api.ErrNoSubscriptions) {
			return e.reply(ctx, sid, msgNoStats)
		}
		logger.Warn(ctx, "engine", "stats.fail",
			slog.String("session_id", sid),
			slog.String("err", err.Error()),
		)
		return e.reply(ctx, sid, msgInternalError)
	}
	return e.reply(ctx, sid, renderStats(stats))
}

// Unknown answers an input the transport could not route anywhere.
func (e *Engine) Unknown(ctx context.Context, sid string) error {
	return e.reply(ctx, sid, msgUnknownInput)
}

// HandleText feeds free text into the active flow. Without a flow the
// text is answered with the command hint.
func (e *Engine) HandleText(ctx context.Context, sid, text string) error {
	state, ok := e.sessions.ActiveFlow(ctx, sid)
	if !ok {
		return e.reply(ctx, sid, msgUnknownInput)
	}
	return e.advance(ctx, sid, state.Current(), text)
}

// HandleSelection feeds a button value into the active flow. Stale
// buttons (no flow, or a different step awaited) re-prompt instead of
// mutating state.
func (e *Engine) HandleSelection(ctx context.Context, sid string, field flow.Field, value string) error {
	state, ok := e.sessions.ActiveFlow(ctx, sid)
	if !ok {
		return e.reply(ctx, sid, msgUnknownInput)
	}
	if state.Current() != field {
		text, buttons := promptFor(state.Current())
		return e.reply(ctx, sid, msgStaleSelection+"\n"+text, buttons...)
	}
	return e.advance(ctx, sid, field, value)
}

func (e *Engine) advance(ctx context.Context, sid string, field flow.Field, value string) error {
	state, done, err := e.sessions.AdvanceFlow(ctx, sid, field, value)
	if err != nil {
		switch {
		case errors.Is(err, flow.ErrInvalidSelection), errors.Is(err, flow.ErrInvalidFormat):
			// Same step, one error message with the repeated prompt.
			text, buttons := promptFor(field)
			return e.reply(ctx, sid, rejectionText(field, err)+"\n"+text, buttons...)
		case errors.Is(err, session.ErrNoActiveFlow):
			return e.reply(ctx, sid, msgUnknownInput)
		default:
			logger.Error(ctx, "engine", "flow.advance.fail",
				slog.String("status", "fail"),
				slog.String("session_id", sid),
				slog.String("field", field.String()),
				slog.String("err", err.Error()),
			)
			return e.reply(ctx, sid, msgInternalError)
		}
	}

	if !done {
		text, buttons := promptFor(state.Current())
		return e.reply(ctx, sid, text, buttons...)
	}

	switch state.Kind {
	case flow.KindLogin:
		return e.completeLogin(ctx, sid, state)
	case flow.KindAddSubscription:
		return e.completeAdd(ctx, sid, state)
	}
	return e.reply(ctx, sid, msgInternalError)
}

func (e *Engine) completeLogin(ctx context.Context, sid string, state *flow.State) error {
	start := time.Now()
	token, err := e.backend.Login(ctx, state.Values[flow.FieldUsername], state.Values[flow.FieldPassword])
	if err != nil {
		if errors.Is(err, api.ErrAuthFailed) {
			return e.reply(ctx, sid, msgLoginRejected)
		}
		return e.replyBackendError(ctx, sid, "login", err)
	}
	if err := e.sessions.SetCredential(ctx, sid, token); err != nil {
		logger.Error(ctx, "engine", "credential.store.fail",
			slog.String("status", "fail"),
			slog.String("session_id", sid),
			slog.String("err", err.Error()),
		)
		return e.reply(ctx, sid, msgInternalError)
	}
	logger.Info(ctx, "engine", "login",
		slog.String("status", "ok"),
		slog.String("session_id", sid),
		slog.Duration("duration", logger.Took(start)),
	)
	return e.reply(ctx, sid, msgLoginOK)
}

func (e *Engine) completeAdd(ctx context.Context, sid string, state *flow.State) error {
	token, err := e.sessions.Credential(ctx, sid)
	if err != nil {
		return e.reply(ctx, sid, msgLoginRequired)
	}
	req := api.CreateSubscriptionRequest{
		UserID:          sid,
		Name:            state.Values[flow.FieldName],
		Price:           state.Values[flow.FieldPrice],
		Currency:        state.Values[flow.FieldCurrency],
		BillingCycle:    state.Values[flow.FieldBillingCycle],
		Category:        state.Values[flow.FieldCategory],
		NextPaymentDate: state.Values[flow.FieldNextPaymentDate],
	}
	if _, err := e.backend.CreateSubscription(ctx, token, req); err != nil {
		if errors.Is(err, api.ErrValidation) {
			return e.reply(ctx, sid, msgCreateRejected)
		}
		return e.replyBackendError(ctx, sid, "create", err)
	}
	logger.Info(ctx, "engine", "subscription.created",
		slog.String("status", "ok"),
		slog.String("session_id", sid),
	)
	return e.reply(ctx, sid, msgCreated)
}

func (e *Engine) replyBackendError(ctx context.Context, sid, op string, err error) error {
	attrs := []slog.Attr{
		slog.String("status", "fail"),
		slog.String("session_id", sid),
		slog.String("op", op),
		slog.String("err", err.Error()),
	}
	switch {
	case api.IsTransport(err):
		logger.Warn(ctx, "engine", "backend.unreachable", attrs...)
		return e.reply(ctx, sid, msgConnectionError)
	case errors.Is(err, api.ErrAuthFailed):
		logger.Info(ctx, "engine", "backend.auth_rejected", attrs...)
		return e.reply(ctx, sid, msgTokenRejected)
	default:
		logger.Error(ctx, "engine", "backend.fail", attrs...)
		return e.reply(ctx, sid, msgBackendError)
	}
}
