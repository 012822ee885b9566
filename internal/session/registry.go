package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/subtrackr/bot/core/logger"
	"github.com/subtrackr/bot/internal/flow"

	"log/slog"
)

// Session is one chat's context as the rest of the bot sees it.
type Session struct {
	ID    string
	Token string
	Flow  *flow.State
}

// Authenticated reports whether the session holds a credential.
func (s *Session) Authenticated() bool { return s.Token != "" }

// Registry owns all sessions. Every mutation for a given session id is
// serialized behind a per-session mutex; lookups across sessions share
// the store's read path. The registry is handed to handlers explicitly,
// never kept as package-level state.
type Registry struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry builds a registry over the given store.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *Registry) sessionLock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// GetOrCreate returns the session for id, creating it on first contact.
// It never fails: an unreadable snapshot is replaced by a fresh session.
func (r *Registry) GetOrCreate(ctx context.Context, id string) *Session {
	l := r.sessionLock(id)
	l.Lock()
	defer l.Unlock()

	sess, err := r.load(ctx, id)
	if err != nil {
		logger.Warn(ctx, "session", "load.fail",
			slog.String("status", "fail"),
			slog.String("session_id", id),
			slog.String("err", err.Error()),
		)
		return &Session{ID: id}
	}
	if sess == nil {
		sess = &Session{ID: id}
		if err := r.save(ctx, sess); err != nil {
			logger.Warn(ctx, "session", "save.fail",
				slog.String("status", "fail"),
				slog.String("session_id", id),
				slog.String("err", err.Error()),
			)
		}
	}
	return sess
}

// SetCredential stores the bearer token, replacing any prior one.
func (r *Registry) SetCredential(ctx context.Context, id, token string) error {
	return r.update(ctx, id, func(sess *Session) error {
		sess.Token = token
		return nil
	})
}

// ClearCredential drops the stored token, logging the session out.
func (r *Registry) ClearCredential(ctx context.Context, id string) error {
	return r.update(ctx, id, func(sess *Session) error {
		sess.Token = ""
		return nil
	})
}

// Credential returns the bearer token or ErrUnauthenticated. It has no
// side effects.
func (r *Registry) Credential(ctx context.Context, id string) (string, error) {
	l := r.sessionLock(id)
	l.Lock()
	defer l.Unlock()

	sess, err := r.load(ctx, id)
	if err != nil {
		return "", err
	}
	if sess == nil || sess.Token == "" {
		return "", ErrUnauthenticated
	}
	return sess.Token, nil
}

// BeginFlow starts a flow for the session. A session runs at most one
// flow at a time: starting another fails with ErrFlowAlreadyActive so
// already collected input is never dropped behind the user's back.
func (r *Registry) BeginFlow(ctx context.Context, id string, kind flow.Kind) (*flow.State, error) {
	var started *flow.State
	err := r.update(ctx, id, func(sess *Session) error {
		if sess.Flow != nil {
			return ErrFlowAlreadyActive
		}
		started = flow.New(kind)
		sess.Flow = started
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// ActiveFlow returns the in-flight flow state, if any.
func (r *Registry) ActiveFlow(ctx context.Context, id string) (*flow.State, bool) {
	l := r.sessionLock(id)
	l.Lock()
	defer l.Unlock()

	sess, err := r.load(ctx, id)
	if err != nil || sess == nil || sess.Flow == nil {
		return nil, false
	}
	return sess.Flow, true
}

// AdvanceFlow feeds one value into the active flow. When the last field
// is collected the flow is consumed: the completed state is returned with
// done=true and removed from the session.
func (r *Registry) AdvanceFlow(ctx context.Context, id string, field flow.Field, value string) (*flow.State, bool, error) {
	var (
		state *flow.State
		done  bool
	)
	err := r.update(ctx, id, func(sess *Session) error {
		if sess.Flow == nil {
			return ErrNoActiveFlow
		}
		if sess.Flow.Current() != field {
			return fmt.Errorf("session: flow awaits %s, got %s", sess.Flow.Current(), field)
		}
		if err := sess.Flow.Advance(value); err != nil {
			return err
		}
		state = sess.Flow
		if sess.Flow.Done() {
			done = true
			sess.Flow = nil
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return state, done, nil
}

// ClearFlow abandons any active flow. Idempotent.
func (r *Registry) ClearFlow(ctx context.Context, id string) error {
	return r.update(ctx, id, func(sess *Session) error {
		sess.Flow = nil
		return nil
	})
}

// update runs fn over the loaded session under the per-session lock and
// persists the result when fn succeeds.
func (r *Registry) update(ctx context.Context, id string, fn func(*Session) error) error {
	l := r.sessionLock(id)
	l.Lock()
	defer l.Unlock()

	sess, err := r.load(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		sess = &Session{ID: id}
	}
	if err := fn(sess); err != nil {
		return err
	}
	return r.save(ctx, sess)
}

func (r *Registry) load(ctx context.Context, id string) (*Session, error) {
	snap, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}
	return fromSnapshot(snap)
}

func (r *Registry) save(ctx context.Context, sess *Session) error {
	return r.store.Save(ctx, toSnapshot(sess))
}

func toSnapshot(sess *Session) *Snapshot {
	snap := &Snapshot{ID: sess.ID, Token: sess.Token}
	if sess.Flow != nil {
		values := make(map[string]string, len(sess.Flow.Values))
		for f, v := range sess.Flow.Values {
			values[f.String()] = v
		}
		snap.Flow = &FlowSnapshot{
			Kind:   sess.Flow.Kind.String(),
			Step:   sess.Flow.Step,
			Values: values,
		}
	}
	return snap
}

func fromSnapshot(snap *Snapshot) (*Session, error) {
	sess := &Session{ID: snap.ID, Token: snap.Token}
	if snap.Flow == nil {
		return sess, nil
	}
	kind, err := flow.ParseKind(snap.Flow.Kind)
	if err != nil {
		return nil, err
	}
	state := flow.New(kind)
	state.Step = snap.Flow.Step
	for name, value := range snap.Flow.Values {
		field, err := flow.ParseField(name)
		if err != nil {
			return nil, err
		}
		state.Values[field] = value
	}
	sess.Flow = state
	return sess, nil
}
