package openai

import (
	"encoding/json"
	"fmt"

	"github.com/abelzeko/panchayat-water/internal/entities"
)

const systemPrompt = `You are a field engineer advising a gram panchayat on its rural piped water supply.
Pump operators, residents and block officials read what you write, so keep it short, concrete and free of jargon.

You receive the reading that was submitted and the result that a rule-based checker already computed from it.
The result is final: never change or second-guess the score, tier, status or flagged parameters.
Explain which signals drove the result and what the operator should do next.

Output **strictly** in JSON.`

var kindBriefs = map[entities.Kind]string{
	entities.KindLeak:         "Leak detection from pressure, flow, reservoir drop, complaints and leak history.",
	entities.KindDailyCheck:   "Pump operator's end-of-day leak check.",
	entities.KindMaintenance:  "Pump maintenance risk from age, duty cycle, breakdowns and trends.",
	entities.KindWaterQuality: "Lab water-quality test against drinking-water standards.",
	entities.KindHealthScore:  "Composite panchayat water-supply health score (reliability, quality, tasks, complaints).",
}

// BuildUserPrompt renders the reading and result for the model
func BuildUserPrompt(req ReasoningRequest) (string, error) {
	input, err := json.Marshal(req.Input)
	if err != nil {
		return "", fmt.Errorf("failed to encode input for prompt: %w", err)
	}
	result, err := json.Marshal(req.Result)
	if err != nil {
		return "", fmt.Errorf("failed to encode result for prompt: %w", err)
	}

	brief, ok := kindBriefs[req.Kind]
	if !ok {
		brief = string(req.Kind)
	}

	subject := req.Subject
	if subject == "" {
		subject = "unspecified"
	}

	return fmt.Sprintf("Check: %s\nSubject: %s\nReading: %s\nResult: %s", brief, subject, input, result), nil
}
