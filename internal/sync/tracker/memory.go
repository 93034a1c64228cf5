package tracker

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps operations in memory. Used in tests and single-process
// deployments without a database-backed operation log.
type MemoryStore struct {
	mu    sync.RWMutex
	ops   map[uuid.UUID]Operation
	order []uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ops: make(map[uuid.UUID]Operation)}
}

func (s *MemoryStore) Insert(_ context.Context, op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.ID] = op
	s.order = append(s.order, op.ID)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ops[op.ID]; !ok {
		return ErrOperationNotFound
	}
	s.ops[op.ID] = op
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.ops[id]
	if !ok {
		return Operation{}, ErrOperationNotFound
	}
	return op, nil
}

// ListByAccount returns the account's operations newest first.
func (s *MemoryStore) ListByAccount(_ context.Context, accountID uuid.UUID, limit int) ([]Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Operation
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		op := s.ops[s.order[i]]
		if op.AccountID != nil && *op.AccountID == accountID {
			out = append(out, op)
		}
	}
	return out, nil
}
