package session

import (
	"context"
	"errors"
	"testing"

	"github.com/subtrackr/bot/internal/flow"
)

func newTestRegistry() *Registry {
	return NewRegistry(NewMemoryStore())
}

func TestCredentialGating(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	sess := reg.GetOrCreate(ctx, "chat-1")
	if sess.Authenticated() {
		t.Fatal("fresh session must not be authenticated")
	}
	if _, err := reg.Credential(ctx, "chat-1"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	if err := reg.SetCredential(ctx, "chat-1", "tok"); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	token, err := reg.Credential(ctx, "chat-1")
	if err != nil {
		t.Fatalf("credential: %v", err)
	}
	if token != "tok" {
		t.Errorf("token = %q, want tok", token)
	}

	// Overwrite replaces the prior credential.
	if err := reg.SetCredential(ctx, "chat-1", "tok2"); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	if token, _ = reg.Credential(ctx, "chat-1"); token != "tok2" {
		t.Errorf("token = %q, want tok2", token)
	}

	if err := reg.ClearCredential(ctx, "chat-1"); err != nil {
		t.Fatalf("clear credential: %v", err)
	}
	if _, err := reg.Credential(ctx, "chat-1"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	_ = reg.SetCredential(ctx, "chat-1", "tok")
	sess := reg.GetOrCreate(ctx, "chat-1")
	if sess.Token != "tok" {
		t.Errorf("GetOrCreate lost credential: %+v", sess)
	}
}

func TestBeginFlowRejectsSecond(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	if _, err := reg.BeginFlow(ctx, "chat-1", flow.KindLogin); err != nil {
		t.Fatalf("begin flow: %v", err)
	}
	if _, err := reg.BeginFlow(ctx, "chat-1", flow.KindAddSubscription); !errors.Is(err, ErrFlowAlreadyActive) {
		t.Fatalf("expected ErrFlowAlreadyActive, got %v", err)
	}

	// The first flow survives the rejected restart.
	st, ok := reg.ActiveFlow(ctx, "chat-1")
	if !ok || st.Kind != flow.KindLogin {
		t.Fatalf("original flow lost: %+v", st)
	}
}

func TestAdvanceFlowToCompletion(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	if _, err := reg.BeginFlow(ctx, "chat-1", flow.KindLogin); err != nil {
		t.Fatalf("begin flow: %v", err)
	}

	_, done, err := reg.AdvanceFlow(ctx, "chat-1", flow.FieldUsername, "alice")
	if err != nil || done {
		t.Fatalf("first advance: done=%v err=%v", done, err)
	}
	st, done, err := reg.AdvanceFlow(ctx, "chat-1", flow.FieldPassword, "secret")
	if err != nil {
		t.Fatalf("second advance: %v", err)
	}
	if !done {
		t.Fatal("flow should complete after the last field")
	}
	if st.Values[flow.FieldUsername] != "alice" || st.Values[flow.FieldPassword] != "secret" {
		t.Errorf("collected fields: %v", st.Values)
	}

	// Completion consumed the flow.
	if _, ok := reg.ActiveFlow(ctx, "chat-1"); ok {
		t.Error("flow should be removed after completion")
	}
	if _, _, err := reg.AdvanceFlow(ctx, "chat-1", flow.FieldUsername, "x"); !errors.Is(err, ErrNoActiveFlow) {
		t.Errorf("expected ErrNoActiveFlow, got %v", err)
	}
}

func TestAdvanceFlowFieldMismatch(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	_, _ = reg.BeginFlow(ctx, "chat-1", flow.KindLogin)
	if _, _, err := reg.AdvanceFlow(ctx, "chat-1", flow.FieldPassword, "secret"); err == nil {
		t.Fatal("expected error for out-of-order field")
	}
	// The flow is still at the first step.
	st, ok := reg.ActiveFlow(ctx, "chat-1")
	if !ok || st.Step != 0 {
		t.Fatalf("flow state corrupted: %+v", st)
	}
}

func TestClearFlowIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	_, _ = reg.BeginFlow(ctx, "chat-1", flow.KindAddSubscription)
	if err := reg.ClearFlow(ctx, "chat-1"); err != nil {
		t.Fatalf("clear flow: %v", err)
	}
	if _, ok := reg.ActiveFlow(ctx, "chat-1"); ok {
		t.Error("flow should be cleared")
	}
	if err := reg.ClearFlow(ctx, "chat-1"); err != nil {
		t.Errorf("second clear should be a no-op: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	reg := NewRegistry(store)

	_ = reg.SetCredential(ctx, "chat-1", "tok")
	_, _ = reg.BeginFlow(ctx, "chat-1", flow.KindAddSubscription)
	_, _, err := reg.AdvanceFlow(ctx, "chat-1", flow.FieldName, "Netflix")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	// A second registry over the same store sees the identical state.
	reg2 := NewRegistry(store)
	st, ok := reg2.ActiveFlow(ctx, "chat-1")
	if !ok {
		t.Fatal("flow missing after reload")
	}
	if st.Kind != flow.KindAddSubscription || st.Step != 1 {
		t.Errorf("reloaded flow: kind=%v step=%d", st.Kind, st.Step)
	}
	if st.Values[flow.FieldName] != "Netflix" {
		t.Errorf("reloaded values: %v", st.Values)
	}
}
