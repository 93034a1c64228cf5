package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownStage is returned when a transition references a stage id
	// that is not part of the active pipeline configuration.
	ErrUnknownStage = errors.New("unknown pipeline stage")

	// ErrTerminalStageLocked is returned when a transition is attempted on
	// a deal sitting in a closed-won or closed-lost stage.
	ErrTerminalStageLocked = errors.New("deal is in a terminal stage")
)

// TransitionParams describes a requested stage move.
type TransitionParams struct {
	TargetStageID string
	Actor         string
	Reason        string
	// ProbabilityOverride, when set, replaces the target stage's default
	// probability on the moved deal.
	ProbabilityOverride *int
	Now                 time.Time
}

// Engine applies stage transitions against a fixed pipeline configuration.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Transition moves a deal to the target stage and returns the updated
// aggregate. The input deal is never mutated, so a rejected transition
// leaves the caller's copy untouched.
//
// A transition to the deal's current stage is a no-op: the same deal is
// returned with no new history entry and an unchanged UpdatedAt.
func (e *Engine) Transition(deal Deal, p TransitionParams) (Deal, error) {
	target, ok := e.registry.Stage(p.TargetStageID)
	if !ok {
		return deal, fmt.Errorf("%w: %q", ErrUnknownStage, p.TargetStageID)
	}

	if target.ID == deal.StageID {
		return deal, nil
	}

	current, ok := e.registry.Stage(deal.StageID)
	if !ok {
		return deal, fmt.Errorf("%w: deal references %q", ErrUnknownStage, deal.StageID)
	}
	if current.IsTerminal() {
		return deal, fmt.Errorf("%w: %q", ErrTerminalStageLocked, current.ID)
	}

	now := p.Now
	open := deal.History.Open
	closed := ClosedStageEntry{
		ID:            open.ID,
		DealID:        open.DealID,
		FromStageID:   open.FromStageID,
		ToStageID:     open.ToStageID,
		EnteredAt:     open.EnteredAt,
		ExitedAt:      now,
		DurationHours: now.Sub(open.EnteredAt).Hours(),
		ChangedBy:     open.ChangedBy,
		Reason:        open.Reason,
	}

	fromStageID := deal.StageID
	history := make([]ClosedStageEntry, 0, len(deal.History.Closed)+1)
	history = append(history, deal.History.Closed...)
	history = append(history, closed)

	deal.History = StageHistory{
		Closed: history,
		Open: OpenStageEntry{
			ID:          uuid.New(),
			DealID:      deal.ID,
			FromStageID: &fromStageID,
			ToStageID:   target.ID,
			EnteredAt:   now,
			ChangedBy:   p.Actor,
			Reason:      p.Reason,
		},
	}
	deal.StageID = target.ID
	if p.ProbabilityOverride != nil {
		deal.Probability = *p.ProbabilityOverride
	} else {
		deal.Probability = target.Probability
	}
	deal.UpdatedAt = now
	deal.LastActivityAt = now

	return deal, nil
}
