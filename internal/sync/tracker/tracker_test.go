package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"crm_backend/platform/logger"
)

func newTestTracker(threshold int) *Tracker {
	return New(NewMemoryStore(), logger.New("development"), threshold)
}

func TestOperationLifecycle(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(2)
	accountID := uuid.New()

	op, err := tr.Begin(ctx, TypeAccountToLeadGen, &accountID, "initial sync")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if op.Status != StatusPending {
		t.Fatalf("status = %q, want pending", op.Status)
	}

	if err := tr.MarkProcessing(ctx, op.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := tr.Complete(ctx, op.ID, "synced 1 account"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	status, err := tr.Status(ctx, accountID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Health != HealthHealthy {
		t.Fatalf("health = %q, want healthy", status.Health)
	}
	if status.LastSync == nil {
		t.Fatalf("lastSync not recorded")
	}
	if status.Conflicts != 0 || status.PendingUpdates != 0 {
		t.Fatalf("conflicts = %d, pending = %d, want 0/0", status.Conflicts, status.PendingUpdates)
	}
}

func TestNoBackwardTransitions(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(2)
	accountID := uuid.New()

	op, err := tr.Begin(ctx, TypeEnrichment, &accountID, "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tr.Complete(ctx, op.ID, "done"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if err := tr.MarkProcessing(ctx, op.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("MarkProcessing after complete: err = %v, want ErrInvalidTransition", err)
	}
	if err := tr.Fail(ctx, op.ID, "boom"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Fail after complete: err = %v, want ErrInvalidTransition", err)
	}
}

func TestHealthThresholds(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	fail := func(tr *Tracker, n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			op, err := tr.Begin(ctx, TypeActivitySync, &accountID, "")
			if err != nil {
				t.Fatalf("Begin: %v", err)
			}
			if err := tr.Fail(ctx, op.ID, "upstream timeout"); err != nil {
				t.Fatalf("Fail: %v", err)
			}
		}
	}

	cases := []struct {
		name     string
		failures int
		want     Health
	}{
		{"zero failures healthy", 0, HealthHealthy},
		{"one failure warning", 1, HealthWarning},
		{"at threshold warning", 2, HealthWarning},
		{"over threshold error", 3, HealthError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestTracker(2)
			fail(tr, tc.failures)
			status, err := tr.Status(ctx, accountID)
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if status.Health != tc.want {
				t.Fatalf("health = %q, want %q", status.Health, tc.want)
			}
			if status.Conflicts != tc.failures {
				t.Fatalf("conflicts = %d, want %d", status.Conflicts, tc.failures)
			}
		})
	}
}

func TestPendingOperationsCount(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(2)
	accountID := uuid.New()

	if _, err := tr.Begin(ctx, TypeAccountToLeadGen, &accountID, ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	op, err := tr.Begin(ctx, TypeActivitySync, &accountID, "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tr.MarkProcessing(ctx, op.ID); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	status, err := tr.Status(ctx, accountID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.PendingUpdates != 2 {
		t.Fatalf("pendingUpdates = %d, want 2", status.PendingUpdates)
	}
}

func TestStatusIsolatedPerAccount(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(2)
	a, b := uuid.New(), uuid.New()

	op, err := tr.Begin(ctx, TypeEnrichment, &a, "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tr.Fail(ctx, op.ID, "nope"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	status, err := tr.Status(ctx, b)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Health != HealthHealthy || status.Conflicts != 0 {
		t.Fatalf("account b inherited account a's failures: %+v", status)
	}
}
