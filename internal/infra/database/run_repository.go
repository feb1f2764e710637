package database

import (
	"context"
	"database/sql"

	"github.com/lwai/timeback-onboarding/internal/entity"
	"github.com/lwai/timeback-onboarding/internal/usecase"
)

// RunRepository persists run records and per-lead outcomes. Append-only:
// rows are written once at the end of a run and never updated.
type RunRepository struct {
	DB *sql.DB
}

func (r *RunRepository) SaveRun(ctx context.Context, rec entity.RunRecord) error {
	query := `
		INSERT INTO onboarding_runs (
			id, started_at, finished_at,
			total_leads, eligible, rejected,
			accounts_created, accounts_failed,
			apps_assigned, apps_failed,
			assessments_assigned, assessments_failed,
			trackers_created, trackers_failed
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.StartedAt,
		rec.FinishedAt,
		rec.TotalLeads,
		rec.Eligible,
		rec.Rejected,
		rec.AccountsCreated,
		rec.AccountsFailed,
		rec.AppsAssigned,
		rec.AppsFailed,
		rec.AssessmentsAssigned,
		rec.AssessmentsFailed,
		rec.TrackersCreated,
		rec.TrackersFailed,
	)

	return err
}

func (r *RunRepository) SaveLeadOutcomes(ctx context.Context, runID string, results []usecase.LeadResult) error {
	query := `
		INSERT INTO onboarding_lead_outcomes (
			run_id, email, segment, operation, target, status, detail
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, result := range results {
		for _, o := range result.Outcomes {
			_, err := stmt.ExecContext(
				ctx,
				runID,
				result.Lead.Email,
				result.Lead.Segment,
				string(o.Operation),
				nullString(o.Target),
				string(o.Status),
				nullString(o.Detail),
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
