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

type MockLeadSource struct {
	mock.Mock
}

func (m *MockLeadSource) LoadLeads(ctx context.Context) ([]entity.Lead, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadSource) LoadAccounts(ctx context.Context) (entity.EmailSet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.EmailSet), args.Error(1)
}

type MockConfigSource struct {
	mock.Mock
}

func (m *MockConfigSource) LoadSegmentConfigs(ctx context.Context) (entity.SegmentConfigSet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.SegmentConfigSet), args.Error(1)
}

func (m *MockConfigSource) LoadAssessmentCatalog(ctx context.Context) (entity.AssessmentCatalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.AssessmentCatalog), args.Error(1)
}

func (m *MockConfigSource) LoadBlacklist(ctx context.Context) (entity.EmailSet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.EmailSet), args.Error(1)
}

func (m *MockConfigSource) LoadTrackerCatalog(ctx context.Context) (entity.TrackerCatalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.TrackerCatalog), args.Error(1)
}

type MockAppLister struct {
	mock.Mock
}

func (m *MockAppLister) ListApplications(ctx context.Context, needed []string) (map[string]string, error) {
	args := m.Called(ctx, needed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyStart(ctx context.Context, totalLeads int) error {
	args := m.Called(ctx, totalLeads)
	return args.Error(0)
}

func (m *MockNotifier) NotifyComplete(ctx context.Context, s Summary, results []LeadResult) error {
	args := m.Called(ctx, s, results)
	return args.Error(0)
}

func (m *MockNotifier) NotifyError(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func pipelineFixture(t *testing.T) (*RunPipelineUseCase, *MockLeadSource, *MockConfigSource, *MockAppLister, *MockPlatformClient, *MockArtifactStore, *MockLogSink) {
	t.Helper()

	leads := new(MockLeadSource)
	configs := new(MockConfigSource)
	apps := new(MockAppLister)
	platform := new(MockPlatformClient)
	store := new(MockArtifactStore)
	sink := new(MockLogSink)

	uc := &RunPipelineUseCase{
		Leads:       leads,
		Config:      configs,
		Apps:        apps,
		Executor:    NewExecutor(platform, 1, 0, nil),
		Provisioner: NewProvisioner(store, "folder-1", nil),
		Reporter:    NewReporter(sink, nil),
		MaxLeadAge:  14 * 24 * time.Hour,
		Now:         func() time.Time { return filterNow },
	}
	return uc, leads, configs, apps, platform, store, sink
}

func stubConfigLoads(configs *MockConfigSource) {
	set, _ := entity.NewSegmentConfigSet([]entity.SegmentConfig{
		{Segment: "math-accel", AppName: "MathApp", MinGrade: 1, MaxGrade: 8, Active: true},
	})
	configs.On("LoadSegmentConfigs", mock.Anything).Return(set, nil)
	configs.On("LoadAssessmentCatalog", mock.Anything).Return(entity.AssessmentCatalog{}, nil)
	configs.On("LoadBlacklist", mock.Anything).Return(entity.NewEmailSet(), nil)
	configs.On("LoadTrackerCatalog", mock.Anything).Return(entity.TrackerCatalog{
		{App: "MathApp", SheetRef: "template-1"},
	}, nil)
}

func TestRunPipeline_EndToEnd(t *testing.T) {
	uc, leads, configs, apps, platform, store, sink := pipelineFixture(t)

	stubConfigLoads(configs)
	apps.On("ListApplications", mock.Anything, []string{"MathApp"}).
		Return(map[string]string{"MathApp": "app-123"}, nil)

	existing := freshLead("existing@example.com")
	fresh := freshLead("new@example.com")
	leads.On("LoadLeads", mock.Anything).Return([]entity.Lead{existing, fresh}, nil)
	leads.On("LoadAccounts", mock.Anything).Return(entity.NewEmailSet("existing@example.com"), nil)

	platform.On("CreateStudent", mock.Anything, mock.Anything).Return("user-1", nil)
	platform.On("AssignProfile", mock.Anything, "user-1", mock.Anything).Return(nil)

	ref := ArtifactRef{ID: "copy-1", Link: "link-1"}
	store.On("CopyTemplate", mock.Anything, "template-1", "folder-1", "new@example.com").Return(ref, nil)
	store.On("WriteCells", mock.Anything, ref, mock.Anything).Return(nil)
	store.On("GrantAccess", mock.Anything, ref, "new@example.com", "writer").Return(nil)

	sink.On("AppendRows", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	summary, err := uc.Execute(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, summary.TotalLeads)
	assert.Equal(t, 1, summary.Eligible)
	assert.Equal(t, 1, summary.RejectedByReason[ReasonExistingAccount])
	assert.Equal(t, 1, summary.AccountsCreated)
	assert.Equal(t, 1, summary.TrackersCreated)
	store.AssertExpectations(t)
}

func TestRunPipeline_ConfigFailureAborts(t *testing.T) {
	uc, leads, configs, apps, platform, _, _ := pipelineFixture(t)

	notifier := new(MockNotifier)
	notifier.On("NotifyError", mock.Anything, mock.Anything).Return(nil)
	uc.Notifier = notifier

	configs.On("LoadSegmentConfigs", mock.Anything).
		Return(nil, errors.New("sheet unreachable"))

	_, err := uc.Execute(context.Background())

	assert.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	leads.AssertNotCalled(t, "LoadLeads", mock.Anything)
	apps.AssertNotCalled(t, "ListApplications", mock.Anything, mock.Anything)
	platform.AssertNotCalled(t, "CreateStudent", mock.Anything, mock.Anything)
	notifier.AssertCalled(t, "NotifyError", mock.Anything, mock.Anything)
}

func TestRunPipeline_UnknownAppBecomesRejection(t *testing.T) {
	uc, leads, configs, apps, platform, _, sink := pipelineFixture(t)

	stubConfigLoads(configs)
	// platform has no application named MathApp
	apps.On("ListApplications", mock.Anything, []string{"MathApp"}).
		Return(map[string]string{}, nil)
	leads.On("LoadLeads", mock.Anything).Return([]entity.Lead{freshLead("ada@example.com")}, nil)
	leads.On("LoadAccounts", mock.Anything).Return(entity.NewEmailSet(), nil)
	sink.On("AppendRows", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	summary, err := uc.Execute(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, summary.AccountsCreated)
	assert.Equal(t, 1, summary.RejectedByReason[ReasonUnknownApp])
	platform.AssertNotCalled(t, "CreateStudent", mock.Anything, mock.Anything)
}

func TestRunPipeline_NotifierLifecycle(t *testing.T) {
	uc, leads, configs, apps, platform, store, sink := pipelineFixture(t)

	stubConfigLoads(configs)
	apps.On("ListApplications", mock.Anything, mock.Anything).
		Return(map[string]string{"MathApp": "app-123"}, nil)
	leads.On("LoadLeads", mock.Anything).Return([]entity.Lead{freshLead("ada@example.com")}, nil)
	leads.On("LoadAccounts", mock.Anything).Return(entity.NewEmailSet(), nil)
	platform.On("CreateStudent", mock.Anything, mock.Anything).Return("user-1", nil)
	platform.On("AssignProfile", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("CopyTemplate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(ArtifactRef{ID: "c", Link: "l"}, nil)
	store.On("WriteCells", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store.On("GrantAccess", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sink.On("AppendRows", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("NotifyStart", mock.Anything, 1).Return(nil)
	notifier.On("NotifyComplete", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	uc.Notifier = notifier

	_, err := uc.Execute(context.Background())

	assert.NoError(t, err)
	notifier.AssertExpectations(t)
}
