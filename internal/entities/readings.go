// Package entities contains the core domain objects for the panchayat water application
package entities

// LeakageStatus is the tier assigned to a leak score
type LeakageStatus string

const (
	LeakageLow    LeakageStatus = "LOW"
	LeakageMedium LeakageStatus = "MEDIUM"
	LeakageHigh   LeakageStatus = "HIGH"
)

// Severity is the Green/Yellow/Red tier used by the daily check and maintenance scorers
type Severity string

const (
	SeverityGreen  Severity = "Green"
	SeverityYellow Severity = "Yellow"
	SeverityRed    Severity = "Red"
)

// LeakRule names a leak detection rule that fired
type LeakRule string

const (
	RulePressureFlow        LeakRule = "pressure_flow"
	RuleReservoirDrop       LeakRule = "reservoir_drop"
	RuleComplaintClustering LeakRule = "complaint_clustering"
	RulePastHistory         LeakRule = "past_history"
	RuleTailEndPressure     LeakRule = "tail_end_pressure"
	RuleCriticalZone        LeakRule = "critical_zone"
)

// LeakReading holds the network signals used to score a suspected leak
type LeakReading struct {
	PressureValue     float64 `json:"pressure_value" validate:"finite,gte=0"`      // PSI
	PressureBaseline  float64 `json:"pressure_baseline" validate:"finite,gte=0"`   // PSI
	FlowRate          float64 `json:"flow_rate" validate:"finite,gte=0"`           // LPM
	FlowBaseline      float64 `json:"flow_baseline" validate:"finite,gte=0"`       // LPM
	ReservoirDropRate float64 `json:"reservoir_drop_rate" validate:"finite,gte=0"` // L/hr
	ExpectedDropRate  float64 `json:"expected_drop_rate" validate:"finite,gte=0"`  // L/hr
	ComplaintsCount   int     `json:"complaints_count" validate:"gte=0"`
	PastLeakHistory   bool    `json:"past_leak_history"`
	TailEndPressure   float64 `json:"tail_end_pressure" validate:"finite,gte=0"` // bar
	IsCriticalZone    bool    `json:"is_critical_zone"`
}

// LeakResult is the outcome of ScoreLeak
type LeakResult struct {
	LeakScore      float64       `json:"leak_score"`
	LeakageStatus  LeakageStatus `json:"leakage_status"`
	TriggeredRules []LeakRule    `json:"triggered_rules"`
}

// TankLevelChange describes how the service tank moved since the last check
type TankLevelChange string

const (
	TankIncrease TankLevelChange = "Increase"
	TankNoChange TankLevelChange = "NoChange"
	TankDecrease TankLevelChange = "Decrease"
)

// PressureLevel is the operator's qualitative pressure observation
type PressureLevel string

const (
	PressureHigh   PressureLevel = "High"
	PressureNormal PressureLevel = "Normal"
	PressureLow    PressureLevel = "Low"
)

// FlowRateLevel is the operator's qualitative flow observation
type FlowRateLevel string

const (
	FlowNormal FlowRateLevel = "Normal"
	FlowLow    FlowRateLevel = "Low"
)

// DailyCheckReading is what a pump operator records at the end of the day
type DailyCheckReading struct {
	PumpHoursToday    float64         `json:"pump_hours_today" validate:"finite,gte=0"`
	PumpHoursPrevious float64         `json:"pump_hours_previous" validate:"finite,gte=0"` // 0 when unknown
	TankLevelChange   TankLevelChange `json:"tank_level_change" validate:"oneof=Increase NoChange Decrease"`
	PressureLevel     PressureLevel   `json:"pressure_level" validate:"oneof=High Normal Low"`
	FlowRateLevel     FlowRateLevel   `json:"flow_rate_level" validate:"oneof=Normal Low"`
	ComplaintsCount   int             `json:"complaints_count" validate:"gte=0"`
}

// DailyCheckResult is the outcome of ScoreDailyCheck
type DailyCheckResult struct {
	LeakScore int      `json:"leak_score"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// ElectricityTrend is the direction of the pump's power consumption
type ElectricityTrend string

const (
	ElectricityIncrease ElectricityTrend = "Increase"
	ElectricitySame     ElectricityTrend = "Same"
	ElectricityDecrease ElectricityTrend = "Decrease"
)

// FlowTrend is the direction of delivered flow over recent days
type FlowTrend string

const (
	FlowStable      FlowTrend = "Stable"
	FlowGradualDrop FlowTrend = "GradualDrop"
	FlowSuddenDrop  FlowTrend = "SuddenDrop"
)

// MaintenanceReading describes a pump's condition for maintenance scoring
type MaintenanceReading struct {
	PumpAgeYears         float64          `json:"pump_age_years" validate:"finite,gte=0"`
	AvgRunningHours      float64          `json:"avg_running_hours" validate:"finite,gte=0"`
	BreakdownCount90Days float64          `json:"breakdown_count_90_days" validate:"finite,gte=0"`
	RepeatIssue          bool             `json:"repeat_issue"`
	ElectricityTrend     ElectricityTrend `json:"electricity_trend,omitempty" validate:"omitempty,oneof=Increase Same Decrease"`
	FlowTrend            FlowTrend        `json:"flow_trend" validate:"oneof=Stable GradualDrop SuddenDrop"`
}

// MaintenanceResult is the outcome of ScoreMaintenance
type MaintenanceResult struct {
	RiskScore         int      `json:"risk_score"`
	Severity          Severity `json:"severity"`
	RecommendedAction string   `json:"recommended_action"`
}
