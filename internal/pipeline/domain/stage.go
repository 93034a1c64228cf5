// Package domain provides core business rules for the deal pipeline bounded
// context: stage configuration, the deal aggregate with its stage history,
// the transition engine, and pipeline metrics.
package domain

import (
	"fmt"
	"sort"
)

// Stage is a single step of a sales pipeline. Stage values are immutable per
// pipeline configuration; Color is display-only and ignored by all core logic.
type Stage struct {
	ID           string
	Name         string
	Order        int
	Color        string
	Probability  int // default close likelihood, 0-100
	IsClosedWon  bool
	IsClosedLost bool
}

// IsTerminal reports whether the stage accepts no outbound transitions.
func (s Stage) IsTerminal() bool {
	return s.IsClosedWon || s.IsClosedLost
}

// Registry holds the validated, ordered stage configuration of a pipeline.
// It is read-only after construction.
type Registry struct {
	ordered []Stage
	byID    map[string]Stage
}

// NewRegistry validates a pipeline configuration and builds a Registry.
// Validation rules: at least one stage, unique ids, unique order values,
// per-stage terminal flags mutually exclusive, at most one closed-won stage,
// probabilities within 0-100.
func NewRegistry(stages []Stage) (*Registry, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one stage")
	}

	byID := make(map[string]Stage, len(stages))
	orders := make(map[int]string, len(stages))
	closedWonCount := 0

	for _, stage := range stages {
		if stage.ID == "" {
			return nil, fmt.Errorf("stage %q has empty id", stage.Name)
		}
		if _, exists := byID[stage.ID]; exists {
			return nil, fmt.Errorf("duplicate stage id %q", stage.ID)
		}
		if other, exists := orders[stage.Order]; exists {
			return nil, fmt.Errorf("stages %q and %q share order %d", other, stage.ID, stage.Order)
		}
		if stage.IsClosedWon && stage.IsClosedLost {
			return nil, fmt.Errorf("stage %q cannot be both closed-won and closed-lost", stage.ID)
		}
		if stage.Probability < 0 || stage.Probability > 100 {
			return nil, fmt.Errorf("stage %q probability %d out of range", stage.ID, stage.Probability)
		}
		if stage.IsClosedWon {
			closedWonCount++
		}
		byID[stage.ID] = stage
		orders[stage.Order] = stage.ID
	}

	if closedWonCount > 1 {
		return nil, fmt.Errorf("pipeline has %d closed-won stages, at most one allowed", closedWonCount)
	}

	ordered := make([]Stage, len(stages))
	copy(ordered, stages)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	return &Registry{ordered: ordered, byID: byID}, nil
}

// Stages returns the stages in pipeline order.
func (r *Registry) Stages() []Stage {
	out := make([]Stage, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Stage looks up a stage by id.
func (r *Registry) Stage(id string) (Stage, bool) {
	stage, ok := r.byID[id]
	return stage, ok
}

// DefaultStages is the standard deal pipeline configuration.
func DefaultStages() []Stage {
	return []Stage{
		{ID: "discovery", Name: "Discovery", Color: "#3B82F6", Order: 1, Probability: 15},
		{ID: "qualification", Name: "Qualification", Color: "#8B5CF6", Order: 2, Probability: 25},
		{ID: "proposal", Name: "Proposal", Color: "#F59E0B", Order: 3, Probability: 50},
		{ID: "demo", Name: "Demo", Color: "#6366F1", Order: 4, Probability: 60},
		{ID: "trial", Name: "Trial", Color: "#14B8A6", Order: 5, Probability: 70},
		{ID: "negotiation", Name: "Negotiation", Color: "#F97316", Order: 6, Probability: 85},
		{ID: "closed-won", Name: "Closed Won", Color: "#10B981", Order: 7, Probability: 100, IsClosedWon: true},
		{ID: "closed-lost", Name: "Closed Lost", Color: "#EF4444", Order: 8, Probability: 0, IsClosedLost: true},
	}
}
