package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lwai/timeback-onboarding/internal/entity"
)

type MockLogSink struct {
	mock.Mock
}

func (m *MockLogSink) AppendRows(ctx context.Context, sheet string, rows [][]string) error {
	args := m.Called(ctx, sheet, rows)
	return args.Error(0)
}

func successResult(email string) LeadResult {
	lead := eligibleLead()
	lead.Email = email
	return LeadResult{
		Lead:   lead,
		Plan:   ProvisioningPlan{Lead: lead, AppName: "MathApp"},
		UserID: "user-1",
		Outcomes: []Outcome{
			{Operation: OpAccountCreation, Status: StatusSuccess},
			{Operation: OpAppAssignment, Target: "MathApp", Status: StatusSuccess},
			{Operation: OpAssessmentAssignment, Target: "Math G3 Pre", Status: StatusSuccess},
		},
		Tracker: &ArtifactResult{Link: "link-1", Segment: "math-accel", GradeLabel: "Grade 3"},
	}
}

func failedResult(email string) LeadResult {
	lead := eligibleLead()
	lead.Email = email
	return LeadResult{
		Lead: lead,
		Plan: ProvisioningPlan{Lead: lead, AppName: "MathApp"},
		Outcomes: []Outcome{
			{Operation: OpAccountCreation, Status: StatusFailure, Detail: "status 500"},
			{Operation: OpAppAssignment, Target: "MathApp", Status: StatusSkipped, Detail: DetailDependencyFailed},
		},
	}
}

func TestSummarize(t *testing.T) {
	started := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Minute)

	rejections := []Rejection{
		{Reason: ReasonStale},
		{Reason: ReasonStale},
		{Reason: ReasonBlacklisted},
	}
	results := []LeadResult{successResult("a@example.com"), failedResult("b@example.com")}

	s := Summarize(10, rejections, results, started, finished)

	assert.Equal(t, 10, s.TotalLeads)
	assert.Equal(t, 2, s.Eligible)
	assert.Equal(t, 3, s.Rejected())
	assert.Equal(t, 2, s.RejectedByReason[ReasonStale])
	assert.Equal(t, 1, s.RejectedByReason[ReasonBlacklisted])
	assert.Equal(t, 1, s.AccountsCreated)
	assert.Equal(t, 1, s.AccountsFailed)
	assert.Equal(t, 1, s.AppsAssigned)
	assert.Equal(t, 0, s.AppsFailed) // skipped is not failed
	assert.Equal(t, 1, s.AssessmentsAssigned)
	assert.Equal(t, 1, s.TrackersCreated)
	assert.Equal(t, 50.0, s.SuccessRate())
}

func TestSummaryRunRecord(t *testing.T) {
	s := Summary{
		TotalLeads:       5,
		Eligible:         3,
		RejectedByReason: map[string]int{ReasonStale: 2},
		AccountsCreated:  3,
		StartedAt:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		FinishedAt:       time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC),
	}

	rec := s.RunRecord("run-1")

	assert.Equal(t, entity.RunRecord{
		ID:              "run-1",
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		TotalLeads:      5,
		Eligible:        3,
		Rejected:        2,
		AccountsCreated: 3,
	}, rec)
	assert.Equal(t, 5*time.Minute, rec.Duration())
}

func TestReporterFlush_Batches(t *testing.T) {
	sink := new(MockLogSink)
	sink.On("AppendRows", mock.Anything, SheetFailLog, mock.Anything).Return(nil)
	sink.On("AppendRows", mock.Anything, SheetSuccessLog, mock.Anything).Return(nil)
	sink.On("AppendRows", mock.Anything, SheetTrackers, mock.Anything).Return(nil)

	reporter := NewReporter(sink, nil)
	reporter.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	results := []LeadResult{successResult("a@example.com"), failedResult("b@example.com")}
	err := reporter.Flush(context.Background(), results)

	assert.NoError(t, err)
	sink.AssertExpectations(t)

	failRows := sink.Calls[0].Arguments.Get(2).([][]string)
	assert.Len(t, failRows, 2) // one failure plus one skip, both for b@
	assert.Equal(t, "b@example.com", failRows[0][1])
	assert.Equal(t, string(OpAccountCreation), failRows[0][4])

	successRows := sink.Calls[1].Arguments.Get(2).([][]string)
	assert.Len(t, successRows, 1)
	assert.Equal(t, "a@example.com", successRows[0][1])
	assert.Equal(t, "link-1", successRows[0][8])

	trackerRows := sink.Calls[2].Arguments.Get(2).([][]string)
	assert.Len(t, trackerRows, 1)
	assert.Equal(t, "link-1", trackerRows[0][3])
}

func TestReporterFlush_ContinuesPastFailedBatch(t *testing.T) {
	sink := new(MockLogSink)
	sink.On("AppendRows", mock.Anything, SheetFailLog, mock.Anything).
		Return(errors.New("api unavailable"))
	sink.On("AppendRows", mock.Anything, SheetSuccessLog, mock.Anything).Return(nil)
	sink.On("AppendRows", mock.Anything, SheetTrackers, mock.Anything).Return(nil)

	reporter := NewReporter(sink, nil)
	results := []LeadResult{successResult("a@example.com"), failedResult("b@example.com")}

	err := reporter.Flush(context.Background(), results)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), SheetFailLog)
	sink.AssertNumberOfCalls(t, "AppendRows", 3)
}

func TestReporterFlush_EmptyBatchesSkipped(t *testing.T) {
	sink := new(MockLogSink)
	reporter := NewReporter(sink, nil)

	err := reporter.Flush(context.Background(), nil)

	assert.NoError(t, err)
	sink.AssertNotCalled(t, "AppendRows", mock.Anything, mock.Anything, mock.Anything)
}
