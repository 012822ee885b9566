package session

import "errors"

var (
	// ErrUnauthenticated means the session has no stored credential; the
	// user must log in before the operation can run.
	ErrUnauthenticated = errors.New("session: not authenticated")
	// ErrFlowAlreadyActive rejects starting a flow while another one is in
	// progress. Collected input is never discarded silently.
	ErrFlowAlreadyActive = errors.New("session: another flow is already active")
	// ErrNoActiveFlow means an advance was attempted with no flow running.
	ErrNoActiveFlow = errors.New("session: no active flow")
)
