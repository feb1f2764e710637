package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lwai/timeback-onboarding/internal/entity"
	"github.com/lwai/timeback-onboarding/internal/infra/queue"
)

// RunPipelineUseCase wires the whole onboarding pass: load, filter, build,
// execute, provision, report. One invocation is one bounded batch run.
type RunPipelineUseCase struct {
	Leads       LeadSource
	Config      ConfigSource
	Apps        ApplicationLister
	Executor    *Executor
	Provisioner *Provisioner
	Reporter    *Reporter

	// Optional collaborators; nil disables the concern.
	Notifier Notifier
	Queue    ContactUpdatePublisher
	Ledger   RunLedger
	Mailer   SummaryMailer

	MaxLeadAge      time.Duration // staleness window, e.g. 14 days
	TrackerProperty string        // CRM property the tracker link lands in

	Logger *zap.Logger
	Now    func() time.Time
}

func (uc *RunPipelineUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Execute runs one full onboarding pass. Configuration and loader failures
// abort before any platform mutation; everything after that is isolated per
// lead and the run always completes with a summary.
func (uc *RunPipelineUseCase) Execute(ctx context.Context) (Summary, error) {
	log := uc.Logger
	if log == nil {
		log = zap.NewNop()
	}
	started := uc.now()

	snapshot, err := uc.loadSnapshot(ctx)
	if err != nil {
		uc.notifyError(ctx, err)
		return Summary{}, err
	}
	log.Info("configuration loaded",
		zap.Int("segments", len(snapshot.configs)),
		zap.Int("assessments", len(snapshot.catalog)),
		zap.Int("applications", len(snapshot.appIndex)),
		zap.Int("leads", len(snapshot.leads)),
		zap.Int("accounts", len(snapshot.accounts)))

	eligible, rejections := FilterLeads(snapshot.leads, FilterInput{
		Accounts:  snapshot.accounts,
		Blacklist: snapshot.blacklist,
		Configs:   snapshot.configs,
		Now:       started,
		MaxAge:    uc.MaxLeadAge,
	})
	log.Info("filtering done",
		zap.Int("eligible", len(eligible)), zap.Int("rejected", len(rejections)))

	if uc.Notifier != nil && len(eligible) > 0 {
		if err := uc.Notifier.NotifyStart(ctx, len(eligible)); err != nil {
			log.Warn("start notification failed", zap.Error(err))
		}
	}

	// Build phase: pure payload derivation, no network. Plans that cannot
	// resolve their application are data-configuration rejections, not
	// platform failures.
	var plans []ProvisioningPlan
	for _, lead := range eligible {
		plan := BuildPlan(lead, snapshot.appIndex, snapshot.catalog)
		if !plan.Buildable() {
			rejections = append(rejections, Rejection{Lead: lead.Lead, Reason: ReasonUnknownApp})
			log.Warn("plan unbuildable",
				zap.String("email", lead.Email), zap.String("detail", plan.BuildError))
			continue
		}
		plans = append(plans, plan)
	}

	results := uc.Executor.ExecuteAll(ctx, plans)

	for i := range results {
		if !results[i].AccountCreated() {
			continue
		}
		tracker := uc.Provisioner.Provision(ctx, results[i].Lead, snapshot.trackers)
		results[i].Tracker = &tracker
		if tracker.OK() {
			uc.publishContactUpdate(ctx, results[i].Lead, tracker.Link, log)
		}
	}

	finished := uc.now()
	summary := Summarize(len(snapshot.leads), rejections, results, started, finished)

	if err := uc.Reporter.Flush(ctx, results); err != nil {
		log.Error("audit flush incomplete", zap.Error(err))
	}
	uc.persistRun(ctx, summary, results, log)

	if uc.Notifier != nil {
		if err := uc.Notifier.NotifyComplete(ctx, summary, results); err != nil {
			log.Warn("completion notification failed", zap.Error(err))
		}
	}
	if uc.Mailer != nil {
		if err := uc.Mailer.SendRunSummary(summary); err != nil {
			log.Warn("summary email failed", zap.Error(err))
		}
	}

	log.Info("run complete",
		zap.Int("eligible", summary.Eligible),
		zap.Int("accounts_created", summary.AccountsCreated),
		zap.Int("accounts_failed", summary.AccountsFailed),
		zap.Duration("took", finished.Sub(started)))
	return summary, nil
}

// runSnapshot is the immutable input set one run operates on.
type runSnapshot struct {
	configs   entity.SegmentConfigSet
	catalog   entity.AssessmentCatalog
	blacklist entity.EmailSet
	trackers  entity.TrackerCatalog
	appIndex  map[string]string
	leads     []entity.Lead
	accounts  entity.EmailSet
}

func (uc *RunPipelineUseCase) loadSnapshot(ctx context.Context) (*runSnapshot, error) {
	var snap runSnapshot
	var err error

	if snap.configs, err = uc.Config.LoadSegmentConfigs(ctx); err != nil {
		return nil, &ConfigurationError{Stage: "segment config", Err: err}
	}
	if snap.catalog, err = uc.Config.LoadAssessmentCatalog(ctx); err != nil {
		return nil, &ConfigurationError{Stage: "assessment catalog", Err: err}
	}
	if snap.blacklist, err = uc.Config.LoadBlacklist(ctx); err != nil {
		return nil, &ConfigurationError{Stage: "blacklist", Err: err}
	}
	if snap.trackers, err = uc.Config.LoadTrackerCatalog(ctx); err != nil {
		return nil, &ConfigurationError{Stage: "tracker catalog", Err: err}
	}
	if snap.appIndex, err = uc.Apps.ListApplications(ctx, snap.configs.AppNames()); err != nil {
		return nil, &ConfigurationError{Stage: "application index", Err: err}
	}
	if snap.leads, err = uc.Leads.LoadLeads(ctx); err != nil {
		return nil, &ConfigurationError{Stage: "lead export", Err: err}
	}
	if snap.accounts, err = uc.Leads.LoadAccounts(ctx); err != nil {
		return nil, &ConfigurationError{Stage: "account export", Err: err}
	}
	return &snap, nil
}

func (uc *RunPipelineUseCase) publishContactUpdate(ctx context.Context, lead EligibleLead, link string, log *zap.Logger) {
	if uc.Queue == nil {
		return
	}
	job := queue.ContactUpdateJob{
		ContactID: lead.HubspotContactID,
		Email:     lead.Email,
		Property:  uc.TrackerProperty,
		Value:     link,
	}
	if err := uc.Queue.PublishContactUpdate(ctx, job); err != nil {
		log.Warn("contact update publish failed",
			zap.String("email", lead.Email), zap.Error(err))
	}
}

func (uc *RunPipelineUseCase) persistRun(ctx context.Context, summary Summary, results []LeadResult, log *zap.Logger) {
	if uc.Ledger == nil {
		return
	}
	runID := uuid.New().String()
	if err := uc.Ledger.SaveRun(ctx, summary.RunRecord(runID)); err != nil {
		log.Error("run ledger write failed", zap.Error(err))
		return
	}
	if err := uc.Ledger.SaveLeadOutcomes(ctx, runID, results); err != nil {
		log.Error("lead outcome ledger write failed", zap.Error(err))
	}
}

func (uc *RunPipelineUseCase) notifyError(ctx context.Context, err error) {
	if uc.Notifier == nil {
		return
	}
	msg := fmt.Sprintf("onboarding run aborted: %v", err)
	if nerr := uc.Notifier.NotifyError(ctx, msg); nerr != nil && uc.Logger != nil {
		uc.Logger.Warn("error notification failed", zap.Error(nerr))
	}
}
