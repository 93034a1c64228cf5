// Package events defines the domain events exchanged between modules over
// the in-process event bus.
package events

import (
	"github.com/google/uuid"

	"crm_backend/platform/events"
)

// Re-exported bus types so modules only import this package.
type (
	Event       = events.Event
	BaseEvent   = events.BaseEvent
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

const (
	DealCreatedName        = "pipeline.deal.created"
	DealStageChangedName   = "pipeline.deal.stage_changed"
	AccountEnrichedName    = "sync.account.enriched"
	AccountSyncedName      = "sync.account.synced"
	ActivitiesRetaggedName = "sync.activities.retagged"
)

// DealCreated fires when a new deal enters the pipeline.
type DealCreated struct {
	BaseEvent
	DealID    uuid.UUID
	AccountID *uuid.UUID
	StageID   string
}

func (DealCreated) EventName() string { return DealCreatedName }

// DealStageChanged fires after a committed stage transition. No-op
// transitions never produce this event.
type DealStageChanged struct {
	BaseEvent
	DealID      uuid.UUID
	AccountID   *uuid.UUID
	FromStageID string
	ToStageID   string
	ChangedBy   string
}

func (DealStageChanged) EventName() string { return DealStageChangedName }

// AccountEnriched fires when AI enrichment data has been merged into an
// account.
type AccountEnriched struct {
	BaseEvent
	AccountID  uuid.UUID
	Confidence int
}

func (AccountEnriched) EventName() string { return AccountEnrichedName }

// AccountSynced fires when an account snapshot has been pushed to the lead
// generation module.
type AccountSynced struct {
	BaseEvent
	AccountID uuid.UUID
	Direction string // "account_to_leadgen" or "leadgen_to_account"
}

func (AccountSynced) EventName() string { return AccountSyncedName }

// ActivitiesRetagged fires after a bulk activity source retag.
type ActivitiesRetagged struct {
	BaseEvent
	AccountID uuid.UUID
	Source    string
	Count     int
}

func (ActivitiesRetagged) EventName() string { return ActivitiesRetaggedName }
