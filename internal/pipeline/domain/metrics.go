package domain

import (
	"math"
	"time"
)

// StageBreakdown is a per-stage slice of the pipeline board.
type StageBreakdown struct {
	StageID           string
	Count             int
	ValueCents        int64
	PercentageOfTotal float64
}

// StalenessBand classifies how long a deal has sat in its current stage.
type StalenessBand string

const (
	StalenessNone     StalenessBand = "none"
	StalenessWarning  StalenessBand = "warning"
	StalenessCritical StalenessBand = "critical"
)

// StalenessThresholds holds the day counts at which an idle deal is flagged.
type StalenessThresholds struct {
	WarningDays  int
	CriticalDays int
}

// DealsInStage filters deals by current stage.
func DealsInStage(deals []Deal, stageID string) []Deal {
	var out []Deal
	for _, d := range deals {
		if d.StageID == stageID {
			out = append(out, d)
		}
	}
	return out
}

// StageValueCents sums deal amounts for one stage.
func StageValueCents(deals []Deal, stageID string) int64 {
	var total int64
	for _, d := range deals {
		if d.StageID == stageID {
			total += d.AmountCents
		}
	}
	return total
}

// TotalPipelineValueCents sums all deal amounts regardless of stage.
func TotalPipelineValueCents(deals []Deal) int64 {
	var total int64
	for _, d := range deals {
		total += d.AmountCents
	}
	return total
}

// WeightedPipelineValueCents sums amount weighted by probability across
// deals in non-terminal stages. Closed deals carry no forecast weight.
func WeightedPipelineValueCents(registry *Registry, deals []Deal) int64 {
	var total int64
	for _, d := range deals {
		stage, ok := registry.Stage(d.StageID)
		if !ok || stage.IsTerminal() {
			continue
		}
		total += int64(math.Round(float64(d.AmountCents) * float64(d.Probability) / 100))
	}
	return total
}

// StageDistribution breaks the deal set down per configured stage, in
// pipeline order. Stages with no deals still appear with zero counts.
// Percentages are of total pipeline value and sum to 100 when any deal
// carries value.
func StageDistribution(registry *Registry, deals []Deal) []StageBreakdown {
	total := TotalPipelineValueCents(deals)
	stages := registry.Stages()
	out := make([]StageBreakdown, 0, len(stages))
	for _, stage := range stages {
		b := StageBreakdown{StageID: stage.ID}
		for _, d := range deals {
			if d.StageID == stage.ID {
				b.Count++
				b.ValueCents += d.AmountCents
			}
		}
		if total > 0 {
			b.PercentageOfTotal = float64(b.ValueCents) / float64(total) * 100
		}
		out = append(out, b)
	}
	return out
}

// DaysInCurrentStage counts whole days since the deal entered its current
// stage.
func DaysInCurrentStage(deal Deal, now time.Time) int {
	d := int(now.Sub(deal.History.Open.EnteredAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Staleness classifies a deal's idle time. Deals in terminal stages are
// never stale.
func Staleness(registry *Registry, deal Deal, now time.Time, t StalenessThresholds) StalenessBand {
	if stage, ok := registry.Stage(deal.StageID); ok && stage.IsTerminal() {
		return StalenessNone
	}
	days := DaysInCurrentStage(deal, now)
	switch {
	case days >= t.CriticalDays:
		return StalenessCritical
	case days >= t.WarningDays:
		return StalenessWarning
	default:
		return StalenessNone
	}
}
