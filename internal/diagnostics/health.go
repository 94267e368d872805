package diagnostics

import (
	"math"

	"github.com/abelzeko/panchayat-water/internal/entities"
)

const (
	subScoreMax = 25

	// Defaults when a category has no records. Deliberately not equal.
	defaultReliability = 25
	defaultQuality     = 25
	defaultTasks       = 15
	defaultComplaints  = 20

	resolutionCapHours = 48.0
)

// AggregateHealthScore combines pump reliability, water quality, checklist
// completion and complaint turnaround into a 0-100 panchayat health score.
func AggregateHealthScore(in entities.HealthScoreInputs) entities.HealthScoreResult {
	r := entities.HealthScoreResult{
		Reliability: reliabilityScore(in.PumpIssues),
		Quality:     qualityScore(in.WaterTests),
		Tasks:       tasksScore(in.Checklists),
		Complaints:  complaintsScore(in.Complaints),
	}
	r.Total = r.Reliability + r.Quality + r.Tasks + r.Complaints
	return r
}

// reliabilityScore treats Open and InProgress issues as open.
func reliabilityScore(issues []entities.PumpIssue) int {
	if len(issues) == 0 {
		return defaultReliability
	}
	open := 0
	for _, issue := range issues {
		if issue.Status != entities.IssueResolved {
			open++
		}
	}
	return subScore(1 - float64(open)/float64(len(issues)))
}

func qualityScore(tests []entities.WaterTest) int {
	if len(tests) == 0 {
		return defaultQuality
	}
	safe := 0
	for _, test := range tests {
		if test.Status == entities.QualitySafe {
			safe++
		}
	}
	return subScore(float64(safe) / float64(len(tests)))
}

func tasksScore(checklists []entities.DailyChecklist) int {
	if len(checklists) == 0 {
		return defaultTasks
	}
	total := 0.0
	for _, c := range checklists {
		total += c.CompletionPercentage
	}
	return subScore(total / float64(len(checklists)) / 100)
}

// complaintsScore averages resolution time over resolved complaints that
// carry both timestamps; anything slower than 48h scores zero.
func complaintsScore(complaints []entities.Complaint) int {
	var hours float64
	n := 0
	for _, c := range complaints {
		if c.Status != entities.ComplaintResolved || c.CreatedAt == nil || c.ResolvedAt == nil {
			continue
		}
		hours += c.ResolvedAt.Sub(*c.CreatedAt).Hours()
		n++
	}
	if n == 0 {
		return defaultComplaints
	}
	avg := math.Min(hours/float64(n), resolutionCapHours)
	return subScore(1 - avg/resolutionCapHours)
}

// subScore scales a [0,1] fraction to 0-25, rounding half up.
func subScore(fraction float64) int {
	s := int(math.Floor(fraction*subScoreMax + 0.5))
	if s < 0 {
		return 0
	}
	if s > subScoreMax {
		return subScoreMax
	}
	return s
}
