package entity

import "time"

// RunRecord is the persisted ledger entry for one pipeline run.
type RunRecord struct {
	ID                  string
	StartedAt           time.Time
	FinishedAt          time.Time
	TotalLeads          int
	Eligible            int
	Rejected            int
	AccountsCreated     int
	AccountsFailed      int
	AppsAssigned        int
	AppsFailed          int
	AssessmentsAssigned int
	AssessmentsFailed   int
	TrackersCreated     int
	TrackersFailed      int
}

func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
