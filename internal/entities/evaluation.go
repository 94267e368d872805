package entities

import (
	"encoding/json"
	"time"
)

// Kind identifies which scorer produced an evaluation
type Kind string

const (
	KindLeak         Kind = "leak"
	KindDailyCheck   Kind = "daily_check"
	KindMaintenance  Kind = "maintenance"
	KindWaterQuality Kind = "water_quality"
	KindHealthScore  Kind = "health_score"
)

// Kinds lists every evaluation kind in a stable order
var Kinds = []Kind{KindLeak, KindDailyCheck, KindMaintenance, KindWaterQuality, KindHealthScore}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Evaluation is a single stored scorer run
type Evaluation struct {
	ID                 string          `json:"id"`
	Kind               Kind            `json:"kind"`
	Subject            string          `json:"subject"`   // zone, pump, sample point or panchayat
	Tier               string          `json:"tier"`      // leakage_status, severity or status
	Score              float64         `json:"score"`     // leak/risk/health score; 0 for water quality
	Input              json.RawMessage `json:"input"`     // the reading as submitted
	Result             json.RawMessage `json:"result"`    // the scorer output
	Reasoning          string          `json:"reasoning"` // free text from the reasoning service, may be empty
	RecommendedActions []string        `json:"recommended_actions,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}
