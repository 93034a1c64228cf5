package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClosedStageEntry is an immutable audit record of a completed stage
// occupancy. Once an entry is closed it is never modified again.
type ClosedStageEntry struct {
	ID            uuid.UUID
	DealID        uuid.UUID
	FromStageID   *string // nil for the entry created at deal creation
	ToStageID     string
	EnteredAt     time.Time
	ExitedAt      time.Time
	DurationHours float64
	ChangedBy     string
	Reason        string
}

// OpenStageEntry is the single in-progress occupancy record of a deal. Its
// ToStageID always matches the deal's current stage.
type OpenStageEntry struct {
	ID          uuid.UUID
	DealID      uuid.UUID
	FromStageID *string
	ToStageID   string
	EnteredAt   time.Time
	ChangedBy   string
	Reason      string
}

// StageHistory is the append-only stage trail of a deal. The open entry is a
// separate field rather than a flag on a shared record type, so a deal with
// zero or two open entries cannot be represented at all.
type StageHistory struct {
	Closed []ClosedStageEntry
	Open   OpenStageEntry
}

// Deal is the pipeline aggregate. Amounts are stored in cents.
type Deal struct {
	ID             uuid.UUID
	Name           string
	StageID        string
	AmountCents    int64
	Probability    int
	OwnerID        uuid.UUID
	AccountID      *uuid.UUID
	History        StageHistory
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastActivityAt time.Time
}

// NewDeal creates a deal in the given stage with its initial open history
// entry. The initial entry has no source stage and records the deal's entry
// into the pipeline.
func NewDeal(name string, stage Stage, amountCents int64, ownerID uuid.UUID, accountID *uuid.UUID, actor string, now time.Time) Deal {
	id := uuid.New()
	return Deal{
		ID:          id,
		Name:        name,
		StageID:     stage.ID,
		AmountCents: amountCents,
		Probability: stage.Probability,
		OwnerID:     ownerID,
		AccountID:   accountID,
		History: StageHistory{
			Open: OpenStageEntry{
				ID:        uuid.New(),
				DealID:    id,
				ToStageID: stage.ID,
				EnteredAt: now,
				ChangedBy: actor,
			},
		},
		CreatedAt:      now,
		UpdatedAt:      now,
		LastActivityAt: now,
	}
}
