package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func dealIn(t *testing.T, reg *Registry, stageID string, amountCents int64, enteredAt time.Time) Deal {
	t.Helper()
	stage, ok := reg.Stage(stageID)
	if !ok {
		t.Fatalf("unknown stage %q", stageID)
	}
	return NewDeal("deal-"+stageID, stage, amountCents, uuid.New(), nil, "rep-1", enteredAt)
}

func TestStageDistributionSumsToTotal(t *testing.T) {
	reg := testRegistry(t)
	now := time.Now().UTC()
	deals := []Deal{
		dealIn(t, reg, "discovery", 100_000, now),
		dealIn(t, reg, "discovery", 250_000, now),
		dealIn(t, reg, "proposal", 400_000, now),
		dealIn(t, reg, "closed-won", 1_000_000, now),
	}

	dist := StageDistribution(reg, deals)
	if len(dist) != len(reg.Stages()) {
		t.Fatalf("distribution covers %d stages, want %d", len(dist), len(reg.Stages()))
	}

	var count int
	var value int64
	var pct float64
	for _, b := range dist {
		count += b.Count
		value += b.ValueCents
		pct += b.PercentageOfTotal
	}
	if count != len(deals) {
		t.Fatalf("counts sum to %d, want %d", count, len(deals))
	}
	if total := TotalPipelineValueCents(deals); value != total {
		t.Fatalf("values sum to %d, want %d", value, total)
	}
	if pct < 99.999 || pct > 100.001 {
		t.Fatalf("percentages sum to %v, want 100", pct)
	}
}

func TestStageDistributionEmptyPipeline(t *testing.T) {
	reg := testRegistry(t)
	dist := StageDistribution(reg, nil)
	for _, b := range dist {
		if b.Count != 0 || b.ValueCents != 0 || b.PercentageOfTotal != 0 {
			t.Fatalf("empty pipeline breakdown not zero: %+v", b)
		}
	}
}

func TestWeightedPipelineValueExcludesTerminal(t *testing.T) {
	reg := testRegistry(t)
	now := time.Now().UTC()
	deals := []Deal{
		dealIn(t, reg, "discovery", 100_000, now), // 15% -> 15_000
		dealIn(t, reg, "proposal", 200_000, now),  // 50% -> 100_000
		dealIn(t, reg, "closed-won", 999_999, now),
		dealIn(t, reg, "closed-lost", 999_999, now),
	}

	got := WeightedPipelineValueCents(reg, deals)
	if got != 115_000 {
		t.Fatalf("weighted value = %d, want 115000", got)
	}
}

func TestStageValueAndFilter(t *testing.T) {
	reg := testRegistry(t)
	now := time.Now().UTC()
	deals := []Deal{
		dealIn(t, reg, "demo", 50_000, now),
		dealIn(t, reg, "demo", 70_000, now),
		dealIn(t, reg, "trial", 10_000, now),
	}

	if got := StageValueCents(deals, "demo"); got != 120_000 {
		t.Fatalf("demo value = %d, want 120000", got)
	}
	if got := len(DealsInStage(deals, "demo")); got != 2 {
		t.Fatalf("demo count = %d, want 2", got)
	}
	if got := len(DealsInStage(deals, "negotiation")); got != 0 {
		t.Fatalf("negotiation count = %d, want 0", got)
	}
}

func TestStaleness(t *testing.T) {
	reg := testRegistry(t)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	thresholds := StalenessThresholds{WarningDays: 14, CriticalDays: 30}

	cases := []struct {
		name    string
		stage   string
		entered time.Time
		want    StalenessBand
	}{
		{"fresh", "discovery", now.Add(-3 * 24 * time.Hour), StalenessNone},
		{"just under warning", "discovery", now.Add(-13 * 24 * time.Hour), StalenessNone},
		{"warning", "discovery", now.Add(-14 * 24 * time.Hour), StalenessWarning},
		{"critical", "discovery", now.Add(-45 * 24 * time.Hour), StalenessCritical},
		{"terminal never stale", "closed-won", now.Add(-90 * 24 * time.Hour), StalenessNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deal := dealIn(t, reg, tc.stage, 0, tc.entered)
			if got := Staleness(reg, deal, now, thresholds); got != tc.want {
				t.Fatalf("staleness = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDaysInCurrentStage(t *testing.T) {
	reg := testRegistry(t)
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	deal := dealIn(t, reg, "discovery", 0, now.Add(-50*time.Hour))
	if got := DaysInCurrentStage(deal, now); got != 2 {
		t.Fatalf("days = %d, want 2", got)
	}
}
