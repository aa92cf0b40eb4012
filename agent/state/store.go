package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Store keeps calls for the life of the process.
type Store interface {
	Load(ctx context.Context, callID string) (*Call, error)
	Save(ctx context.Context, call *Call) error
	Delete(ctx context.Context, callID string) error
}

// MemoryStore is a Store backed by a map. Calls are deep-copied on the way in
// and out so callers never share history slices.
type MemoryStore struct {
	mu    sync.RWMutex
	calls map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{calls: map[string][]byte{}}
}

func (s *MemoryStore) Load(ctx context.Context, callID string) (*Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(callID)
	if id == "" {
		return nil, ErrInvalidCall
	}

	s.mu.RLock()
	raw, ok := s.calls[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrCallNotFound
	}

	var call Call
	if err := json.Unmarshal(raw, &call); err != nil {
		return nil, fmt.Errorf("decode call %s: %w", id, err)
	}
	return &call, nil
}

func (s *MemoryStore) Save(ctx context.Context, call *Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := call.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("encode call %s: %w", call.ID, err)
	}

	s.mu.Lock()
	s.calls[call.ID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, callID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.calls, strings.TrimSpace(callID))
	s.mu.Unlock()
	return nil
}
