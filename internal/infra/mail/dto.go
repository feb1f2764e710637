package mail

// RunSummaryData feeds the run summary email template.
type RunSummaryData struct {
	Date                string
	Duration            string
	TotalLeads          int
	Eligible            int
	Rejected            int
	AccountsCreated     int
	AccountsFailed      int
	AppsAssigned        int
	AssessmentsAssigned int
	TrackersCreated     int
	TrackersFailed      int
	SuccessRate         string
}
