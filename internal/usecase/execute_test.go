package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lwai/timeback-onboarding/internal/infra/integration/timeback"
)

type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) CreateStudent(ctx context.Context, p timeback.AccountPayload) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockPlatformClient) AssignProfile(ctx context.Context, userID string, p timeback.ProfilePayload) error {
	args := m.Called(ctx, userID, p)
	return args.Error(0)
}

func testPlan(t *testing.T, email string) ProvisioningPlan {
	t.Helper()
	lead := eligibleLead()
	lead.Email = email
	plan := BuildPlan(lead, map[string]string{"MathApp": "app-123"}, testAssessments())
	assert.True(t, plan.Buildable())
	return plan
}

func TestExecuteAll_FullSuccess(t *testing.T) {
	plan := testPlan(t, "ada@example.com")

	platform := new(MockPlatformClient)
	platform.On("CreateStudent", mock.Anything, plan.Account).Return("user-1", nil)
	platform.On("AssignProfile", mock.Anything, "user-1", mock.Anything).Return(nil)

	results := NewExecutor(platform, 1, 0, nil).ExecuteAll(context.Background(), []ProvisioningPlan{plan})

	assert.Len(t, results, 1)
	r := results[0]
	assert.True(t, r.AccountCreated())
	assert.Equal(t, "user-1", r.UserID)
	// account + app + two assessments
	assert.Len(t, r.Outcomes, 4)
	for _, o := range r.Outcomes {
		assert.Equal(t, StatusSuccess, o.Status)
	}
	platform.AssertNumberOfCalls(t, "AssignProfile", 3)
}

func TestExecuteAll_AccountFailureSkipsDependents(t *testing.T) {
	plan := testPlan(t, "ada@example.com")

	platform := new(MockPlatformClient)
	platform.On("CreateStudent", mock.Anything, mock.Anything).Return("", errors.New("status 500"))

	results := NewExecutor(platform, 1, 0, nil).ExecuteAll(context.Background(), []ProvisioningPlan{plan})

	r := results[0]
	assert.False(t, r.AccountCreated())
	assert.Len(t, r.Outcomes, 4)

	assert.Equal(t, OpAccountCreation, r.Outcomes[0].Operation)
	assert.Equal(t, StatusFailure, r.Outcomes[0].Status)
	for _, o := range r.Outcomes[1:] {
		assert.Equal(t, StatusSkipped, o.Status)
		assert.Equal(t, DetailDependencyFailed, o.Detail)
	}
	platform.AssertNotCalled(t, "AssignProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteAll_AssessmentFailureIsIndependent(t *testing.T) {
	plan := testPlan(t, "ada@example.com")

	platform := new(MockPlatformClient)
	platform.On("CreateStudent", mock.Anything, mock.Anything).Return("user-1", nil)
	platform.On("AssignProfile", mock.Anything, "user-1", plan.AppProfile).Return(nil)
	platform.On("AssignProfile", mock.Anything, "user-1", plan.Assessments[0].Payload).
		Return(errors.New("status 502"))
	platform.On("AssignProfile", mock.Anything, "user-1", plan.Assessments[1].Payload).Return(nil)

	results := NewExecutor(platform, 1, 0, nil).ExecuteAll(context.Background(), []ProvisioningPlan{plan})

	r := results[0]
	assert.True(t, r.AccountCreated())

	byTarget := make(map[string]Status)
	for _, o := range r.Outcomes {
		if o.Operation == OpAssessmentAssignment {
			byTarget[o.Target] = o.Status
		}
	}
	assert.Equal(t, StatusFailure, byTarget[plan.Assessments[0].Definition.Name])
	assert.Equal(t, StatusSuccess, byTarget[plan.Assessments[1].Definition.Name])
	platform.AssertNumberOfCalls(t, "AssignProfile", 3)
}

func TestExecuteAll_LeadFailuresAreIsolated(t *testing.T) {
	good := testPlan(t, "good@example.com")
	bad := testPlan(t, "bad@example.com")

	platform := new(MockPlatformClient)
	platform.On("CreateStudent", mock.Anything, bad.Account).Return("", errors.New("boom"))
	platform.On("CreateStudent", mock.Anything, good.Account).Return("user-good", nil)
	platform.On("AssignProfile", mock.Anything, "user-good", mock.Anything).Return(nil)

	results := NewExecutor(platform, 2, 0, nil).ExecuteAll(context.Background(), []ProvisioningPlan{bad, good})

	// results keep input order regardless of worker scheduling
	assert.Equal(t, "bad@example.com", results[0].Lead.Email)
	assert.Equal(t, "good@example.com", results[1].Lead.Email)
	assert.False(t, results[0].AccountCreated())
	assert.True(t, results[1].AccountCreated())
}

func TestExecuteAll_CancelledContextStopsScheduling(t *testing.T) {
	plan := testPlan(t, "ada@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	platform := new(MockPlatformClient)
	results := NewExecutor(platform, 1, 0, nil).ExecuteAll(ctx, []ProvisioningPlan{plan})

	assert.Len(t, results, 1)
	assert.False(t, results[0].AccountCreated())
	assert.Equal(t, StatusFailure, results[0].Outcomes[0].Status)
	platform.AssertNotCalled(t, "CreateStudent", mock.Anything, mock.Anything)
}
