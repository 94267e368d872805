package entities

// WaterQualityStatus is the tri-state safety verdict of a lab reading
type WaterQualityStatus string

const (
	QualitySafe            WaterQualityStatus = "Safe"
	QualityAttentionNeeded WaterQualityStatus = "AttentionNeeded"
	QualityUnsafe          WaterQualityStatus = "Unsafe"
)

// WaterQualityReading is a multi-parameter lab result for one sample
type WaterQualityReading struct {
	PH              float64 `json:"pH" validate:"finite,gte=0,lte=14"`
	Turbidity       float64 `json:"turbidity" validate:"finite,gte=0"` // NTU
	TDS             float64 `json:"tds" validate:"finite,gte=0"`       // mg/L
	Chloride        float64 `json:"chloride" validate:"finite,gte=0"`  // mg/L
	Chlorine        float64 `json:"chlorine" validate:"finite,gte=0"`  // mg/L
	ColiformPresent bool    `json:"coliform_present"`
	Nitrate         float64 `json:"nitrate" validate:"finite,gte=0"`  // mg/L
	Fluoride        float64 `json:"fluoride" validate:"finite,gte=0"` // mg/L
	Iron            float64 `json:"iron" validate:"finite,gte=0"`     // mg/L
}

// WaterQualityResult is the outcome of EvaluateWaterQuality
type WaterQualityResult struct {
	Status            WaterQualityStatus `json:"status"`
	FlaggedParameters []string           `json:"flagged_parameters"`
}

// LabSample is one row of an imported lab report
type LabSample struct {
	SamplePoint string              `json:"sample_point"`
	Reading     WaterQualityReading `json:"reading"`
}
