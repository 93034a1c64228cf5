package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(DefaultStages())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestNewRegistryRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		stages []Stage
	}{
		{"empty", nil},
		{"duplicate id", []Stage{
			{ID: "a", Order: 1}, {ID: "a", Order: 2},
		}},
		{"duplicate order", []Stage{
			{ID: "a", Order: 1}, {ID: "b", Order: 1},
		}},
		{"won and lost", []Stage{
			{ID: "a", Order: 1, IsClosedWon: true, IsClosedLost: true},
		}},
		{"two closed-won", []Stage{
			{ID: "a", Order: 1, IsClosedWon: true},
			{ID: "b", Order: 2, IsClosedWon: true},
		}},
		{"probability out of range", []Stage{
			{ID: "a", Order: 1, Probability: 101},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRegistry(tc.stages); err == nil {
				t.Fatalf("expected error for %s config", tc.name)
			}
		})
	}
}

func TestNewDealOpensInitialEntry(t *testing.T) {
	reg := testRegistry(t)
	discovery, _ := reg.Stage("discovery")
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	deal := NewDeal("Acme expansion", discovery, 1_000_000, uuid.New(), nil, "rep-1", now)

	if deal.StageID != "discovery" {
		t.Fatalf("stage = %q, want discovery", deal.StageID)
	}
	if deal.Probability != 15 {
		t.Fatalf("probability = %d, want stage default 15", deal.Probability)
	}
	if len(deal.History.Closed) != 0 {
		t.Fatalf("new deal has %d closed entries, want 0", len(deal.History.Closed))
	}
	if deal.History.Open.FromStageID != nil {
		t.Fatalf("initial entry has from stage %q, want nil", *deal.History.Open.FromStageID)
	}
	if deal.History.Open.ToStageID != deal.StageID {
		t.Fatalf("open entry stage %q does not match deal stage %q", deal.History.Open.ToStageID, deal.StageID)
	}
}

func TestTransitionClosesEntryAndResetsProbability(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(reg)
	discovery, _ := reg.Stage("discovery")

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	moved := created.Add(48 * time.Hour)

	deal := NewDeal("Acme expansion", discovery, 1_000_000, uuid.New(), nil, "rep-1", created)
	deal.Probability = 20 // manual adjustment after creation

	got, err := engine.Transition(deal, TransitionParams{
		TargetStageID: "proposal",
		Actor:         "rep-1",
		Reason:        "sent proposal",
		Now:           moved,
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if got.StageID != "proposal" {
		t.Fatalf("stage = %q, want proposal", got.StageID)
	}
	if got.Probability != 50 {
		t.Fatalf("probability = %d, want stage default 50", got.Probability)
	}
	if len(got.History.Closed) != 1 {
		t.Fatalf("closed entries = %d, want 1", len(got.History.Closed))
	}
	closed := got.History.Closed[0]
	if closed.DurationHours != 48 {
		t.Fatalf("duration = %v hours, want 48", closed.DurationHours)
	}
	if closed.ExitedAt != moved {
		t.Fatalf("exitedAt = %v, want %v", closed.ExitedAt, moved)
	}
	open := got.History.Open
	if open.FromStageID == nil || *open.FromStageID != "discovery" {
		t.Fatalf("open entry from stage = %v, want discovery", open.FromStageID)
	}
	if open.ToStageID != "proposal" || open.EnteredAt != moved {
		t.Fatalf("open entry = %+v, want proposal entered at %v", open, moved)
	}
	if open.ChangedBy != "rep-1" || open.Reason != "sent proposal" {
		t.Fatalf("open entry attribution = %q/%q", open.ChangedBy, open.Reason)
	}

	// Input aggregate stays untouched.
	if deal.StageID != "discovery" || len(deal.History.Closed) != 0 {
		t.Fatalf("input deal was mutated: %+v", deal)
	}
}

func TestTransitionProbabilityOverride(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(reg)
	discovery, _ := reg.Stage("discovery")
	now := time.Now().UTC()

	deal := NewDeal("d", discovery, 0, uuid.New(), nil, "rep-1", now)
	override := 33
	got, err := engine.Transition(deal, TransitionParams{
		TargetStageID:       "proposal",
		Actor:               "rep-1",
		ProbabilityOverride: &override,
		Now:                 now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if got.Probability != 33 {
		t.Fatalf("probability = %d, want override 33", got.Probability)
	}
}

func TestTransitionNoOp(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(reg)
	discovery, _ := reg.Stage("discovery")
	now := time.Now().UTC()

	deal := NewDeal("d", discovery, 0, uuid.New(), nil, "rep-1", now)

	got, err := engine.Transition(deal, TransitionParams{
		TargetStageID: "discovery",
		Actor:         "rep-1",
		Now:           now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if len(got.History.Closed) != 0 {
		t.Fatalf("no-op transition appended history: %d closed entries", len(got.History.Closed))
	}
	if !got.UpdatedAt.Equal(deal.UpdatedAt) {
		t.Fatalf("no-op transition touched UpdatedAt")
	}
}

func TestTransitionTerminalStageLocked(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(reg)
	discovery, _ := reg.Stage("discovery")
	now := time.Now().UTC()

	deal := NewDeal("d", discovery, 0, uuid.New(), nil, "rep-1", now)
	deal, err := engine.Transition(deal, TransitionParams{TargetStageID: "closed-won", Actor: "rep-1", Now: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Transition to closed-won: %v", err)
	}

	before := deal
	_, err = engine.Transition(deal, TransitionParams{TargetStageID: "discovery", Actor: "rep-1", Now: now.Add(2 * time.Hour)})
	if !errors.Is(err, ErrTerminalStageLocked) {
		t.Fatalf("err = %v, want ErrTerminalStageLocked", err)
	}
	if deal.StageID != before.StageID || len(deal.History.Closed) != len(before.History.Closed) {
		t.Fatalf("rejected transition modified the deal")
	}
}

func TestTransitionUnknownStage(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(reg)
	discovery, _ := reg.Stage("discovery")
	now := time.Now().UTC()

	deal := NewDeal("d", discovery, 0, uuid.New(), nil, "rep-1", now)
	_, err := engine.Transition(deal, TransitionParams{TargetStageID: "onboarding", Actor: "rep-1", Now: now})
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("err = %v, want ErrUnknownStage", err)
	}
}

func TestTransitionChainKeepsSingleOpenEntry(t *testing.T) {
	reg := testRegistry(t)
	engine := NewEngine(reg)
	discovery, _ := reg.Stage("discovery")
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	deal := NewDeal("d", discovery, 0, uuid.New(), nil, "rep-1", now)
	path := []string{"qualification", "proposal", "demo", "negotiation"}
	for i, target := range path {
		var err error
		deal, err = engine.Transition(deal, TransitionParams{
			TargetStageID: target,
			Actor:         "rep-1",
			Now:           now.Add(time.Duration(i+1) * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("Transition to %s: %v", target, err)
		}
		if got := len(deal.History.Closed); got != i+1 {
			t.Fatalf("after %d moves closed entries = %d", i+1, got)
		}
		if deal.History.Open.ToStageID != deal.StageID {
			t.Fatalf("open entry %q diverged from deal stage %q", deal.History.Open.ToStageID, deal.StageID)
		}
	}

	// Closed entries chain: each entry's ToStageID is the next one's FromStageID.
	for i := 1; i < len(deal.History.Closed); i++ {
		prev, cur := deal.History.Closed[i-1], deal.History.Closed[i]
		if cur.FromStageID == nil || *cur.FromStageID != prev.ToStageID {
			t.Fatalf("history entry %d does not chain from %q", i, prev.ToStageID)
		}
	}
}
