package diagnostics

import "github.com/abelzeko/panchayat-water/internal/entities"

// Recommended maintenance actions, in priority order
const (
	ActionReplaceOrService = "Recommend pump replacement or full servicing"
	ActionLubricateInspect = "Schedule lubrication, cleaning, or valve inspection"
	ActionFlushPipeline    = "Clean filters or flush pipeline"
	ActionNone             = "System healthy — no maintenance needed"
)

// ScoreMaintenance computes a pump's maintenance risk and picks the first
// matching recommended action.
func ScoreMaintenance(r entities.MaintenanceReading) entities.MaintenanceResult {
	score := 0

	switch {
	case r.PumpAgeYears > 5:
		score += 4
	case r.PumpAgeYears > 3:
		score += 2
	}
	if r.AvgRunningHours > 6 {
		score += 3
	}
	if r.BreakdownCount90Days >= 2 {
		score += 3
	}
	if r.RepeatIssue {
		score += 3
	}
	switch r.FlowTrend {
	case entities.FlowSuddenDrop:
		score += 3
	case entities.FlowGradualDrop:
		score += 2
	}
	// absent electricity trend never fires
	if r.ElectricityTrend == entities.ElectricityIncrease && r.FlowTrend != entities.FlowStable {
		score += 3
	}

	return entities.MaintenanceResult{
		RiskScore:         score,
		Severity:          maintenanceSeverity(score),
		RecommendedAction: maintenanceAction(score, r),
	}
}

func maintenanceSeverity(score int) entities.Severity {
	switch {
	case score >= 9:
		return entities.SeverityRed
	case score >= 5:
		return entities.SeverityYellow
	default:
		return entities.SeverityGreen
	}
}

func maintenanceAction(score int, r entities.MaintenanceReading) string {
	switch {
	case score >= 9 && r.BreakdownCount90Days >= 3:
		return ActionReplaceOrService
	case score >= 6:
		return ActionLubricateInspect
	case r.FlowTrend == entities.FlowSuddenDrop:
		return ActionFlushPipeline
	default:
		return ActionNone
	}
}
