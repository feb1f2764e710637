package usecase

import (
	"context"

	"github.com/lwai/timeback-onboarding/internal/entity"
	"github.com/lwai/timeback-onboarding/internal/infra/queue"
)

// LeadSource produces the lead batch and existing-account set from blob
// storage. Pure data fetch; the pipeline owns all business logic.
type LeadSource interface {
	LoadLeads(ctx context.Context) ([]entity.Lead, error)
	LoadAccounts(ctx context.Context) (entity.EmailSet, error)
}

// ConfigSource produces the run's lookup structures. Any failure here is
// fatal: the run aborts before touching the platform.
type ConfigSource interface {
	LoadSegmentConfigs(ctx context.Context) (entity.SegmentConfigSet, error)
	LoadAssessmentCatalog(ctx context.Context) (entity.AssessmentCatalog, error)
	LoadBlacklist(ctx context.Context) (entity.EmailSet, error)
	LoadTrackerCatalog(ctx context.Context) (entity.TrackerCatalog, error)
}

// ApplicationLister fetches the platform's name-to-id application index,
// once per run, cached as an immutable snapshot.
type ApplicationLister interface {
	ListApplications(ctx context.Context, needed []string) (map[string]string, error)
}

// Notifier posts run lifecycle messages to the stakeholder chat.
// Best effort: failures are logged and never fail the run.
type Notifier interface {
	NotifyStart(ctx context.Context, totalLeads int) error
	NotifyComplete(ctx context.Context, s Summary, results []LeadResult) error
	NotifyError(ctx context.Context, message string) error
}

// ContactUpdatePublisher queues CRM property updates for async delivery.
type ContactUpdatePublisher interface {
	PublishContactUpdate(ctx context.Context, job queue.ContactUpdateJob) error
}

// RunLedger persists run records and per-lead outcomes, append-only.
type RunLedger interface {
	SaveRun(ctx context.Context, rec entity.RunRecord) error
	SaveLeadOutcomes(ctx context.Context, runID string, results []LeadResult) error
}

// SummaryMailer emails the run summary to stakeholders. Best effort.
type SummaryMailer interface {
	SendRunSummary(s Summary) error
}
