package usecases

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/abelzeko/panchayat-water/internal/entities"
)

var tierIcons = map[string]string{
	string(entities.LeakageHigh):            "🔴",
	string(entities.LeakageMedium):          "🟡",
	string(entities.LeakageLow):             "🟢",
	string(entities.SeverityRed):            "🔴",
	string(entities.SeverityYellow):         "🟡",
	string(entities.SeverityGreen):          "🟢",
	string(entities.QualityUnsafe):          "🔴",
	string(entities.QualityAttentionNeeded): "🟡",
	string(entities.QualitySafe):            "🟢",
}

// FormatEvaluation formats an evaluation for display in chat
func (uc *DiagnosticsUseCase) FormatEvaluation(e *entities.Evaluation) string {
	if e == nil {
		return "No evaluation available."
	}

	var result strings.Builder
	icon, ok := tierIcons[e.Tier]
	if !ok {
		icon = "📊"
	}

	subject := e.Subject
	if subject == "" {
		subject = "unspecified"
	}
	result.WriteString(fmt.Sprintf("%s %s for %s: %s\n", icon, kindTitle(e.Kind), subject, e.Tier))
	if e.Kind != entities.KindWaterQuality {
		result.WriteString(fmt.Sprintf("📈 Score: %s\n", strconv.FormatFloat(e.Score, 'f', -1, 64)))
	}

	for _, line := range resultDetails(e) {
		result.WriteString(line + "\n")
	}

	if e.Reasoning != "" {
		result.WriteString("\n" + e.Reasoning + "\n")
	}
	if len(e.RecommendedActions) > 0 {
		result.WriteString("\nRecommended actions:\n")
		for _, action := range e.RecommendedActions {
			result.WriteString("• " + action + "\n")
		}
	}

	result.WriteString(fmt.Sprintf("\n🕒 %s", e.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	return result.String()
}

func kindTitle(k entities.Kind) string {
	switch k {
	case entities.KindLeak:
		return "Leak check"
	case entities.KindDailyCheck:
		return "Daily check"
	case entities.KindMaintenance:
		return "Maintenance risk"
	case entities.KindWaterQuality:
		return "Water quality"
	case entities.KindHealthScore:
		return "Health score"
	}
	return string(k)
}

// resultDetails renders the deterministic part of a stored result
func resultDetails(e *entities.Evaluation) []string {
	switch e.Kind {
	case entities.KindLeak:
		var r entities.LeakResult
		if json.Unmarshal(e.Result, &r) == nil && len(r.TriggeredRules) > 0 {
			rules := make([]string, len(r.TriggeredRules))
			for i, rule := range r.TriggeredRules {
				rules[i] = string(rule)
			}
			return []string{"⚠️ Rules fired: " + strings.Join(rules, ", ")}
		}
	case entities.KindDailyCheck:
		var r entities.DailyCheckResult
		if json.Unmarshal(e.Result, &r) == nil && r.Message != "" {
			return []string{"💬 " + r.Message}
		}
	case entities.KindMaintenance:
		var r entities.MaintenanceResult
		if json.Unmarshal(e.Result, &r) == nil && r.RecommendedAction != "" {
			return []string{"🔧 " + r.RecommendedAction}
		}
	case entities.KindWaterQuality:
		var r entities.WaterQualityResult
		if json.Unmarshal(e.Result, &r) == nil && len(r.FlaggedParameters) > 0 {
			return []string{"🧪 Flagged: " + strings.Join(r.FlaggedParameters, ", ")}
		}
	case entities.KindHealthScore:
		var r entities.HealthScoreResult
		if json.Unmarshal(e.Result, &r) == nil {
			return []string{fmt.Sprintf("Reliability %d · Quality %d · Tasks %d · Complaints %d",
				r.Reliability, r.Quality, r.Tasks, r.Complaints)}
		}
	}
	return nil
}
