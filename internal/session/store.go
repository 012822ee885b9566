// Package session keeps per-chat conversation context: the bearer
// credential obtained at login and the in-flight flow state, if any.
// Nothing here outlives the process unless the Redis store is configured.
package session

import (
	"context"
	"sync"
	"time"
)

// Snapshot is the serializable form of one session.
type Snapshot struct {
	ID        string        `json:"id"`
	Token     string        `json:"token,omitempty"`
	Flow      *FlowSnapshot `json:"flow,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// FlowSnapshot is the serializable form of an in-flight flow.
type FlowSnapshot struct {
	Kind   string            `json:"kind"`
	Step   int               `json:"step"`
	Values map[string]string `json:"values"`
}

// Store persists session snapshots. Load returns nil for an unknown id;
// that is not an error.
type Store interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// memoryStore is the default driver: a map behind an RWMutex. Sessions
// die with the process.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Snapshot
}

// NewMemoryStore builds the in-process store.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]*Snapshot)}
}

func (s *memoryStore) Load(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *snap
	if snap.Flow != nil {
		flowCp := *snap.Flow
		flowCp.Values = make(map[string]string, len(snap.Flow.Values))
		for k, v := range snap.Flow.Values {
			flowCp.Values[k] = v
		}
		cp.Flow = &flowCp
	}
	return &cp, nil
}

func (s *memoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if prev, ok := s.sessions[snap.ID]; ok {
		snap.CreatedAt = prev.CreatedAt
	} else {
		snap.CreatedAt = now
	}
	snap.UpdatedAt = now
	s.sessions[snap.ID] = snap
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Snapshot)
	return nil
}
