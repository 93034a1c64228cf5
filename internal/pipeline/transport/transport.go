// Package transport defines the HTTP request and response types for the
// pipeline module.
package transport

import (
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/pipeline/domain"
)

// CreateDealRequest creates a deal. An empty stageId places the deal in the
// first pipeline stage.
type CreateDealRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	StageID     string `json:"stageId"`
	AmountCents int64  `json:"amountCents" validate:"gte=0"`
	OwnerID     string `json:"ownerId" validate:"required,uuid"`
	AccountID   string `json:"accountId" validate:"omitempty,uuid"`
	ChangedBy   string `json:"changedBy" validate:"required,max=100"`
}

// MoveStageRequest moves a deal to another stage.
type MoveStageRequest struct {
	TargetStageID       string `json:"targetStageId" validate:"required"`
	Reason              string `json:"reason" validate:"max=500"`
	ProbabilityOverride *int   `json:"probabilityOverride" validate:"omitempty,gte=0,lte=100"`
	ChangedBy           string `json:"changedBy" validate:"required,max=100"`
}

// StageResponse describes one configured pipeline stage.
type StageResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Order        int    `json:"order"`
	Color        string `json:"color"`
	Probability  int    `json:"probability"`
	IsClosedWon  bool   `json:"isClosedWon"`
	IsClosedLost bool   `json:"isClosedLost"`
}

// HistoryEntryResponse is one stage occupancy record. Open entries carry no
// exitedAt or durationHours.
type HistoryEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	FromStageID   *string    `json:"fromStageId"`
	ToStageID     string     `json:"toStageId"`
	EnteredAt     time.Time  `json:"enteredAt"`
	ExitedAt      *time.Time `json:"exitedAt,omitempty"`
	DurationHours *float64   `json:"durationHours,omitempty"`
	ChangedBy     string     `json:"changedBy"`
	Reason        string     `json:"reason,omitempty"`
}

// DealResponse is the full deal aggregate.
type DealResponse struct {
	ID             uuid.UUID              `json:"id"`
	Name           string                 `json:"name"`
	StageID        string                 `json:"stageId"`
	AmountCents    int64                  `json:"amountCents"`
	Probability    int                    `json:"probability"`
	OwnerID        uuid.UUID              `json:"ownerId"`
	AccountID      *uuid.UUID             `json:"accountId,omitempty"`
	History        []HistoryEntryResponse `json:"history"`
	DaysInStage    int                    `json:"daysInStage"`
	Staleness      string                 `json:"staleness"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
	LastActivityAt time.Time              `json:"lastActivityAt"`
}

// StageBreakdownResponse is a per-stage metrics row.
type StageBreakdownResponse struct {
	StageID           string  `json:"stageId"`
	StageName         string  `json:"stageName"`
	Count             int     `json:"count"`
	ValueCents        int64   `json:"valueCents"`
	PercentageOfTotal float64 `json:"percentageOfTotal"`
}

// MetricsResponse aggregates the whole pipeline.
type MetricsResponse struct {
	TotalDeals         int                      `json:"totalDeals"`
	TotalValueCents    int64                    `json:"totalValueCents"`
	WeightedValueCents int64                    `json:"weightedValueCents"`
	Distribution       []StageBreakdownResponse `json:"distribution"`
	StaleWarningCount  int                      `json:"staleWarningCount"`
	StaleCriticalCount int                      `json:"staleCriticalCount"`
	GeneratedAt        time.Time                `json:"generatedAt"`
}

// StageFromDomain maps a configured stage to its response shape.
func StageFromDomain(s domain.Stage) StageResponse {
	return StageResponse{
		ID:           s.ID,
		Name:         s.Name,
		Order:        s.Order,
		Color:        s.Color,
		Probability:  s.Probability,
		IsClosedWon:  s.IsClosedWon,
		IsClosedLost: s.IsClosedLost,
	}
}

// DealFromDomain maps the aggregate to its response shape. History is
// rendered oldest first with the open entry last.
func DealFromDomain(d domain.Deal, daysInStage int, staleness domain.StalenessBand) DealResponse {
	history := make([]HistoryEntryResponse, 0, len(d.History.Closed)+1)
	for _, e := range d.History.Closed {
		exitedAt := e.ExitedAt
		duration := e.DurationHours
		history = append(history, HistoryEntryResponse{
			ID:            e.ID,
			FromStageID:   e.FromStageID,
			ToStageID:     e.ToStageID,
			EnteredAt:     e.EnteredAt,
			ExitedAt:      &exitedAt,
			DurationHours: &duration,
			ChangedBy:     e.ChangedBy,
			Reason:        e.Reason,
		})
	}
	open := d.History.Open
	history = append(history, HistoryEntryResponse{
		ID:          open.ID,
		FromStageID: open.FromStageID,
		ToStageID:   open.ToStageID,
		EnteredAt:   open.EnteredAt,
		ChangedBy:   open.ChangedBy,
		Reason:      open.Reason,
	})

	return DealResponse{
		ID:             d.ID,
		Name:           d.Name,
		StageID:        d.StageID,
		AmountCents:    d.AmountCents,
		Probability:    d.Probability,
		OwnerID:        d.OwnerID,
		AccountID:      d.AccountID,
		History:        history,
		DaysInStage:    daysInStage,
		Staleness:      string(staleness),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		LastActivityAt: d.LastActivityAt,
	}
}
