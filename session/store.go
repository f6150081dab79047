package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by [Store.Load] when no session exists for the
// identity.
var ErrNotFound = errors.New("session not found")

// Store is durable persistence of one session per account identity.
//
// Save must be a whole-value atomic replace: a reader never observes a
// partially written session. Load returns [ErrNotFound] for missing
// identities and [ErrCorrupted] for undecodable blobs. Delete of a missing
// identity is a no-op.
type Store interface {
	Load(ctx context.Context, identity string) (*Session, error)
	Save(ctx context.Context, identity string, s *Session) error
	Delete(ctx context.Context, identity string) error
}

// MemoryStore is an in-process [Store] for tests and ephemeral runs. It keeps
// encoded blobs rather than live structs so every load exercises the same
// codec path as the durable backends.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Load implements [Store].
func (m *MemoryStore) Load(_ context.Context, identity string) (*Session, error) {
	m.mu.RLock()
	blob, ok := m.blobs[identity]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return Decode(blob)
}

// Save implements [Store].
func (m *MemoryStore) Save(_ context.Context, identity string, s *Session) error {
	blob, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blobs[identity] = blob
	m.mu.Unlock()
	return nil
}

// Delete implements [Store].
func (m *MemoryStore) Delete(_ context.Context, identity string) error {
	m.mu.Lock()
	delete(m.blobs, identity)
	m.mu.Unlock()
	return nil
}
