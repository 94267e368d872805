// Package diagnostics implements the rule-based scorers that turn raw
// operator and sensor readings into health judgments. Every function here is
// pure and safe for concurrent use.
package diagnostics

import (
	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/shopspring/decimal"
)

// Leak rule weights. Summed as decimals so 0.3+0.2+0.3 lands exactly on 0.8.
var (
	weightPressureFlow        = decimal.NewFromFloat(0.5)
	weightReservoirDrop       = decimal.NewFromFloat(0.4)
	weightComplaintClustering = decimal.NewFromFloat(0.3)
	weightPastHistory         = decimal.NewFromFloat(0.2)
	weightTailEndPressure     = decimal.NewFromFloat(0.3)
	weightCriticalZone        = decimal.NewFromFloat(0.2)

	leakScoreCap    = decimal.NewFromInt(1)
	leakHighFloor   = decimal.NewFromFloat(0.8)
	leakMediumFloor = decimal.NewFromFloat(0.5)
)

const (
	pressureDropRatio      = 0.75
	flowSurgeRatio         = 1.30
	reservoirDropRatio     = 1.5
	complaintClusterMin    = 3   // strictly more than this many
	tailEndPressureMinimum = 0.5 // bar
)

// ScoreLeak accumulates the six leak rules into a score in [0, 1] and
// classifies it. The critical-zone rule only fires when one of the first
// five already did.
func ScoreLeak(r entities.LeakReading) entities.LeakResult {
	score := decimal.Zero
	rules := make([]entities.LeakRule, 0, 6)
	fire := func(rule entities.LeakRule, weight decimal.Decimal) {
		score = score.Add(weight)
		rules = append(rules, rule)
	}

	if r.PressureValue <= r.PressureBaseline*pressureDropRatio && r.FlowRate >= r.FlowBaseline*flowSurgeRatio {
		fire(entities.RulePressureFlow, weightPressureFlow)
	}
	if r.ReservoirDropRate > r.ExpectedDropRate*reservoirDropRatio {
		fire(entities.RuleReservoirDrop, weightReservoirDrop)
	}
	if r.ComplaintsCount > complaintClusterMin {
		fire(entities.RuleComplaintClustering, weightComplaintClustering)
	}
	if r.PastLeakHistory && r.PressureValue < r.PressureBaseline {
		fire(entities.RulePastHistory, weightPastHistory)
	}
	if r.TailEndPressure < tailEndPressureMinimum && r.PressureValue >= r.PressureBaseline {
		fire(entities.RuleTailEndPressure, weightTailEndPressure)
	}
	if r.IsCriticalZone && score.IsPositive() {
		fire(entities.RuleCriticalZone, weightCriticalZone)
	}

	if score.GreaterThan(leakScoreCap) {
		score = leakScoreCap
	}

	return entities.LeakResult{
		LeakScore:      score.InexactFloat64(),
		LeakageStatus:  leakageStatus(score),
		TriggeredRules: rules,
	}
}

func leakageStatus(score decimal.Decimal) entities.LeakageStatus {
	switch {
	case score.GreaterThanOrEqual(leakHighFloor):
		return entities.LeakageHigh
	case score.GreaterThanOrEqual(leakMediumFloor):
		return entities.LeakageMedium
	default:
		return entities.LeakageLow
	}
}
