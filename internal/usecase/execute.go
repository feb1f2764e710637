package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lwai/timeback-onboarding/internal/infra/integration/timeback"
)

type Operation string

const (
	OpAccountCreation      Operation = "account_creation"
	OpAppAssignment        Operation = "app_assignment"
	OpAssessmentAssignment Operation = "assessment_assignment"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// DetailDependencyFailed marks operations skipped because the account
// creation they depend on failed.
const DetailDependencyFailed = "dependency failed"

// Outcome is one recorded platform operation for one lead.
type Outcome struct {
	Operation Operation
	Target    string // app or assessment name; empty for the account call
	Status    Status
	Detail    string
}

// LeadResult aggregates everything that happened to one lead during
// execution. Failures stay inside the struct; they never cross lead
// boundaries as errors.
type LeadResult struct {
	Lead     EligibleLead
	Plan     ProvisioningPlan
	UserID   string
	Outcomes []Outcome
	Tracker  *ArtifactResult
}

func (r LeadResult) AccountCreated() bool {
	for _, o := range r.Outcomes {
		if o.Operation == OpAccountCreation {
			return o.Status == StatusSuccess
		}
	}
	return false
}

// PlatformClient is the slice of the platform API the executor needs. The
// implementation owns credential refresh and transient-failure retries.
type PlatformClient interface {
	CreateStudent(ctx context.Context, p timeback.AccountPayload) (string, error)
	AssignProfile(ctx context.Context, userID string, p timeback.ProfilePayload) error
}

// Executor runs per-lead provisioning pipelines against the platform.
// Leads are mutually independent; within one lead, account creation strictly
// precedes every assignment call.
type Executor struct {
	Platform  PlatformClient
	Workers   int           // bounded pool size, 1 when unset
	CallDelay time.Duration // pacing between calls, respects rate limits
	Logger    *zap.Logger
}

func NewExecutor(platform PlatformClient, workers int, callDelay time.Duration, logger *zap.Logger) *Executor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{Platform: platform, Workers: workers, CallDelay: callDelay, Logger: logger}
}

// ExecuteAll dispatches every plan to the worker pool and collects results
// by index, so output order matches input order regardless of scheduling.
// Cancelling ctx stops scheduling new leads; leads already started run to
// completion.
func (e *Executor) ExecuteAll(ctx context.Context, plans []ProvisioningPlan) []LeadResult {
	results := make([]LeadResult, len(plans))

	g := new(errgroup.Group)
	g.SetLimit(e.Workers)

	for i, plan := range plans {
		if ctx.Err() != nil {
			results[i] = LeadResult{Lead: plan.Lead, Plan: plan, Outcomes: []Outcome{
				{Operation: OpAccountCreation, Status: StatusFailure, Detail: "run aborted before execution"},
			}}
			continue
		}
		i, plan := i, plan
		g.Go(func() error {
			results[i] = e.executeLead(context.WithoutCancel(ctx), plan)
			return nil
		})
	}

	g.Wait()
	return results
}

func (e *Executor) executeLead(ctx context.Context, plan ProvisioningPlan) LeadResult {
	result := LeadResult{Lead: plan.Lead, Plan: plan}

	e.pace(ctx)
	userID, err := e.Platform.CreateStudent(ctx, plan.Account)
	if err != nil {
		result.Outcomes = append(result.Outcomes,
			Outcome{Operation: OpAccountCreation, Status: StatusFailure, Detail: err.Error()},
			Outcome{Operation: OpAppAssignment, Target: plan.AppName, Status: StatusSkipped, Detail: DetailDependencyFailed},
		)
		for _, a := range plan.Assessments {
			result.Outcomes = append(result.Outcomes, Outcome{
				Operation: OpAssessmentAssignment, Target: a.Definition.Name,
				Status: StatusSkipped, Detail: DetailDependencyFailed,
			})
		}
		e.Logger.Warn("account creation failed",
			zap.String("email", plan.Lead.Email),
			zap.Bool("transient", IsTransient(err)),
			zap.Error(err))
		return result
	}
	result.UserID = userID
	result.Outcomes = append(result.Outcomes, Outcome{Operation: OpAccountCreation, Status: StatusSuccess})

	e.pace(ctx)
	if err := e.Platform.AssignProfile(ctx, userID, plan.AppProfile); err != nil {
		result.Outcomes = append(result.Outcomes, Outcome{
			Operation: OpAppAssignment, Target: plan.AppName, Status: StatusFailure, Detail: err.Error(),
		})
		e.Logger.Warn("app assignment failed",
			zap.String("email", plan.Lead.Email), zap.String("app", plan.AppName), zap.Error(err))
	} else {
		result.Outcomes = append(result.Outcomes, Outcome{
			Operation: OpAppAssignment, Target: plan.AppName, Status: StatusSuccess,
		})
	}

	// Assessment assignments are independent of each other: one failure
	// never prevents attempting the rest.
	for _, a := range plan.Assessments {
		e.pace(ctx)
		outcome := Outcome{Operation: OpAssessmentAssignment, Target: a.Definition.Name, Status: StatusSuccess}
		if err := e.Platform.AssignProfile(ctx, userID, a.Payload); err != nil {
			outcome.Status = StatusFailure
			outcome.Detail = err.Error()
			e.Logger.Warn("assessment assignment failed",
				zap.String("email", plan.Lead.Email), zap.String("assessment", a.Definition.Name), zap.Error(err))
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result
}

func (e *Executor) pace(ctx context.Context) {
	if e.CallDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(e.CallDelay):
	}
}
