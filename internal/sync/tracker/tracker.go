// Package tracker records cross-module sync operations and derives the
// account-level sync health status from them.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/platform/logger"
)

// Type identifies what a sync operation does.
type Type string

const (
	TypeAccountToLeadGen Type = "account_to_leadgen"
	TypeLeadGenToAccount Type = "leadgen_to_account"
	TypeActivitySync     Type = "activity_sync"
	TypeEnrichment       Type = "enrichment"
)

// Status is the lifecycle state of an operation. Transitions only move
// forward: pending -> processing -> completed or failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ErrInvalidTransition is returned on an attempt to move an operation
// backwards or out of a terminal status.
var ErrInvalidTransition = errors.New("invalid sync operation status transition")

// ErrOperationNotFound is returned when an operation id is unknown.
var ErrOperationNotFound = errors.New("sync operation not found")

// Operation is one tracked sync run.
type Operation struct {
	ID        uuid.UUID
	Type      Type
	Status    Status
	AccountID *uuid.UUID
	Details   string
	Error     string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Store persists operations. Implementations: MemoryStore, PostgresStore.
type Store interface {
	Insert(ctx context.Context, op Operation) error
	Update(ctx context.Context, op Operation) error
	Get(ctx context.Context, id uuid.UUID) (Operation, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Operation, error)
}

// Health classifies an account's recent sync reliability.
type Health string

const (
	HealthHealthy Health = "healthy"
	HealthWarning Health = "warning"
	HealthError   Health = "error"
)

// AccountStatus summarizes an account's sync state for the UI.
type AccountStatus struct {
	LastSync       *time.Time
	Health         Health
	Conflicts      int
	PendingUpdates int
}

// Tracker is the operation log facade used by the reconciliation service.
type Tracker struct {
	store Store
	log   *logger.Logger
	// errorThreshold is the failed-operation count above which health
	// degrades from warning to error.
	errorThreshold int
	now            func() time.Time
}

func New(store Store, log *logger.Logger, errorThreshold int) *Tracker {
	return &Tracker{store: store, log: log, errorThreshold: errorThreshold, now: time.Now}
}

// Begin records a new pending operation.
func (t *Tracker) Begin(ctx context.Context, typ Type, accountID *uuid.UUID, details string) (Operation, error) {
	op := Operation{
		ID:        uuid.New(),
		Type:      typ,
		Status:    StatusPending,
		AccountID: accountID,
		Details:   details,
		StartedAt: t.now().UTC(),
	}
	if err := t.store.Insert(ctx, op); err != nil {
		return Operation{}, fmt.Errorf("record sync operation: %w", err)
	}
	return op, nil
}

// MarkProcessing moves a pending operation to processing.
func (t *Tracker) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return t.advance(ctx, id, StatusProcessing, "", "")
}

// Complete finishes an operation successfully.
func (t *Tracker) Complete(ctx context.Context, id uuid.UUID, details string) error {
	return t.advance(ctx, id, StatusCompleted, details, "")
}

// Fail finishes an operation with an error message.
func (t *Tracker) Fail(ctx context.Context, id uuid.UUID, errMsg string) error {
	return t.advance(ctx, id, StatusFailed, "", errMsg)
}

func (t *Tracker) advance(ctx context.Context, id uuid.UUID, next Status, details, errMsg string) error {
	op, err := t.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !validTransition(op.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, op.Status, next)
	}

	op.Status = next
	if details != "" {
		op.Details = details
	}
	op.Error = errMsg
	if next == StatusCompleted || next == StatusFailed {
		ended := t.now().UTC()
		op.EndedAt = &ended
		t.log.SyncOperation(string(op.Type), op.ID.String(), string(next), float64(ended.Sub(op.StartedAt).Milliseconds()))
	}
	return t.store.Update(ctx, op)
}

func validTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusCompleted || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// statusWindow bounds how many recent operations feed the health rollup.
const statusWindow = 50

// Status derives an account's sync health from its recent operations.
// Zero failures is healthy, up to errorThreshold failures is warning,
// beyond that is error.
func (t *Tracker) Status(ctx context.Context, accountID uuid.UUID) (AccountStatus, error) {
	ops, err := t.store.ListByAccount(ctx, accountID, statusWindow)
	if err != nil {
		return AccountStatus{}, fmt.Errorf("list sync operations: %w", err)
	}

	status := AccountStatus{Health: HealthHealthy}
	failed := 0
	for _, op := range ops {
		switch op.Status {
		case StatusFailed:
			failed++
		case StatusPending, StatusProcessing:
			status.PendingUpdates++
		case StatusCompleted:
			if op.EndedAt != nil && (status.LastSync == nil || op.EndedAt.After(*status.LastSync)) {
				status.LastSync = op.EndedAt
			}
		}
	}
	status.Conflicts = failed
	switch {
	case failed > t.errorThreshold:
		status.Health = HealthError
	case failed > 0:
		status.Health = HealthWarning
	}
	return status, nil
}
