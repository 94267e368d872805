package diagnostics

import "github.com/abelzeko/panchayat-water/internal/entities"

// Daily check messages, one per severity
const (
	DailyMessageRed    = "High leakage risk — investigate immediately"
	DailyMessageYellow = "Possible leakage — monitor and verify tomorrow"
	DailyMessageGreen  = "No leakage suspected — system normal"
)

const (
	dailyRedFloor    = 7
	dailyYellowFloor = 3
)

// ScoreDailyCheck scores an operator's end-of-day check. A missing previous
// day (zero hours) is replaced by today's hours, so the pump-hours rules
// compare today against itself and cannot fire.
func ScoreDailyCheck(r entities.DailyCheckReading) entities.DailyCheckResult {
	previous := r.PumpHoursPrevious
	if previous == 0 {
		previous = r.PumpHoursToday
	}

	score := 0
	if r.PumpHoursToday > previous*1.3 && r.TankLevelChange == entities.TankNoChange {
		score += 3
	}
	if r.PressureLevel == entities.PressureLow && r.FlowRateLevel == entities.FlowLow {
		score += 3
	}
	if r.ComplaintsCount >= 3 {
		score += 2
	}
	if r.PumpHoursToday > previous && r.FlowRateLevel == entities.FlowLow {
		score += 2
	}
	if r.TankLevelChange == entities.TankDecrease {
		score += 4
	}

	result := entities.DailyCheckResult{LeakScore: score}
	switch {
	case score >= dailyRedFloor:
		result.Severity, result.Message = entities.SeverityRed, DailyMessageRed
	case score >= dailyYellowFloor:
		result.Severity, result.Message = entities.SeverityYellow, DailyMessageYellow
	default:
		result.Severity, result.Message = entities.SeverityGreen, DailyMessageGreen
	}
	return result
}
