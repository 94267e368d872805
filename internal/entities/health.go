package entities

import "time"

// IssueStatus tracks a pump issue through repair
type IssueStatus string

const (
	IssueOpen       IssueStatus = "Open"
	IssueInProgress IssueStatus = "InProgress"
	IssueResolved   IssueStatus = "Resolved"
)

// ComplaintStatus tracks a resident complaint
type ComplaintStatus string

const (
	ComplaintOpen     ComplaintStatus = "Open"
	ComplaintResolved ComplaintStatus = "Resolved"
)

// PumpIssue is a reported pump fault
type PumpIssue struct {
	ID     string      `json:"id,omitempty"`
	Status IssueStatus `json:"status" validate:"oneof=Open InProgress Resolved"`
}

// WaterTest is a stored water quality verdict
type WaterTest struct {
	ID     string             `json:"id,omitempty"`
	Status WaterQualityStatus `json:"status" validate:"oneof=Safe AttentionNeeded Unsafe"`
}

// DailyChecklist is one day's operator checklist
type DailyChecklist struct {
	ID                   string  `json:"id,omitempty"`
	CompletionPercentage float64 `json:"completion_percentage" validate:"finite,gte=0,lte=100"`
}

// Complaint is a resident complaint with its lifecycle timestamps
type Complaint struct {
	ID         string          `json:"id,omitempty"`
	Status     ComplaintStatus `json:"status" validate:"oneof=Open Resolved"`
	CreatedAt  *time.Time      `json:"created_at,omitempty"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}

// HealthScoreInputs summarizes a panchayat's records for the composite health score
type HealthScoreInputs struct {
	PumpIssues []PumpIssue      `json:"pump_issues" validate:"dive"`
	WaterTests []WaterTest      `json:"water_tests" validate:"dive"`
	Checklists []DailyChecklist `json:"checklists" validate:"dive"`
	Complaints []Complaint      `json:"complaints" validate:"dive"`
}

// HealthScoreResult holds the four 0-25 sub-scores and their 0-100 total
type HealthScoreResult struct {
	Reliability int `json:"reliability"`
	Quality     int `json:"quality"`
	Tasks       int `json:"tasks"`
	Complaints  int `json:"complaints"`
	Total       int `json:"total"`
}
