package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lwai/timeback-onboarding/internal/entity"
)

// Audit worksheets. Each flush appends one all-or-nothing batch per sheet.
const (
	SheetSuccessLog = "success_log"
	SheetFailLog    = "fail_log"
	SheetTrackers   = "all_trackers"
)

// Summary aggregates a whole run for reporting and notifications.
type Summary struct {
	TotalLeads          int
	Eligible            int
	RejectedByReason    map[string]int
	AccountsCreated     int
	AccountsFailed      int
	AppsAssigned        int
	AppsFailed          int
	AssessmentsAssigned int
	AssessmentsFailed   int
	TrackersCreated     int
	TrackersFailed      int
	StartedAt           time.Time
	FinishedAt          time.Time
}

func (s Summary) Rejected() int {
	n := 0
	for _, c := range s.RejectedByReason {
		n += c
	}
	return n
}

func (s Summary) SuccessRate() float64 {
	if s.Eligible == 0 {
		return 0
	}
	return float64(s.AccountsCreated) / float64(s.Eligible) * 100
}

// RunRecord converts the summary into its persisted ledger form.
func (s Summary) RunRecord(id string) entity.RunRecord {
	return entity.RunRecord{
		ID:                  id,
		StartedAt:           s.StartedAt,
		FinishedAt:          s.FinishedAt,
		TotalLeads:          s.TotalLeads,
		Eligible:            s.Eligible,
		Rejected:            s.Rejected(),
		AccountsCreated:     s.AccountsCreated,
		AccountsFailed:      s.AccountsFailed,
		AppsAssigned:        s.AppsAssigned,
		AppsFailed:          s.AppsFailed,
		AssessmentsAssigned: s.AssessmentsAssigned,
		AssessmentsFailed:   s.AssessmentsFailed,
		TrackersCreated:     s.TrackersCreated,
		TrackersFailed:      s.TrackersFailed,
	}
}

// Summarize folds rejections and per-lead results into run totals.
func Summarize(totalLeads int, rejections []Rejection, results []LeadResult, started, finished time.Time) Summary {
	s := Summary{
		TotalLeads:       totalLeads,
		Eligible:         len(results),
		RejectedByReason: make(map[string]int),
		StartedAt:        started,
		FinishedAt:       finished,
	}
	for _, r := range rejections {
		s.RejectedByReason[r.Reason]++
	}
	for _, r := range results {
		for _, o := range r.Outcomes {
			switch o.Operation {
			case OpAccountCreation:
				if o.Status == StatusSuccess {
					s.AccountsCreated++
				} else {
					s.AccountsFailed++
				}
			case OpAppAssignment:
				switch o.Status {
				case StatusSuccess:
					s.AppsAssigned++
				case StatusFailure:
					s.AppsFailed++
				}
			case OpAssessmentAssignment:
				switch o.Status {
				case StatusSuccess:
					s.AssessmentsAssigned++
				case StatusFailure:
					s.AssessmentsFailed++
				}
			}
		}
		if r.Tracker != nil {
			if r.Tracker.OK() {
				s.TrackersCreated++
			} else {
				s.TrackersFailed++
			}
		}
	}
	return s
}

// LogSink appends audit rows; each call is one all-or-nothing batch at the
// adapter boundary. The Reporter never retries a batch.
type LogSink interface {
	AppendRows(ctx context.Context, sheet string, rows [][]string) error
}

type Reporter struct {
	Sink   LogSink
	Logger *zap.Logger
	Now    func() time.Time
}

func NewReporter(sink LogSink, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{Sink: sink, Logger: logger, Now: time.Now}
}

// Flush writes the three audit batches: one row per failed operation, one
// row per fully onboarded lead, one row per provisioned tracker. A batch
// that fails to append is logged and the remaining batches still go out.
func (r *Reporter) Flush(ctx context.Context, results []LeadResult) error {
	stamp := r.Now().Format(time.RFC3339)

	var failRows, successRows, trackerRows [][]string
	for _, res := range results {
		grade := entity.GradeLabel(res.Lead.CurrentGrade)
		for _, o := range res.Outcomes {
			if o.Status == StatusSuccess {
				continue
			}
			failRows = append(failRows, []string{
				stamp, res.Lead.Email, res.Lead.Segment, grade,
				string(o.Operation), o.Target, o.Detail,
			})
		}
		if !res.AccountCreated() {
			continue
		}
		link := ""
		if res.Tracker != nil && res.Tracker.OK() {
			link = res.Tracker.Link
			trackerRows = append(trackerRows, []string{
				res.Lead.Email, res.Lead.Segment, res.Tracker.GradeLabel,
				res.Tracker.Link, r.Now().Format("2006-01-02 15:04:05"),
			})
		}
		successRows = append(successRows, []string{
			stamp, res.Lead.Email, res.Lead.Segment, grade,
			res.Plan.AppName, res.UserID,
			strconv.Itoa(countStatus(res.Outcomes, OpAppAssignment, StatusSuccess)),
			strconv.Itoa(countStatus(res.Outcomes, OpAssessmentAssignment, StatusSuccess)),
			link,
		})
	}

	var firstErr error
	for _, batch := range []struct {
		sheet string
		rows  [][]string
	}{
		{SheetFailLog, failRows},
		{SheetSuccessLog, successRows},
		{SheetTrackers, trackerRows},
	} {
		if len(batch.rows) == 0 {
			continue
		}
		if err := r.Sink.AppendRows(ctx, batch.sheet, batch.rows); err != nil {
			r.Logger.Error("audit batch append failed",
				zap.String("sheet", batch.sheet), zap.Int("rows", len(batch.rows)), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("append %s: %w", batch.sheet, err)
			}
		}
	}
	return firstErr
}

func countStatus(outcomes []Outcome, op Operation, status Status) int {
	n := 0
	for _, o := range outcomes {
		if o.Operation == op && o.Status == status {
			n++
		}
	}
	return n
}
