package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/lwai/timeback-onboarding/internal/entity"
)

// ArtifactRef points at a provisioned tracker document.
type ArtifactRef struct {
	ID   string
	Link string
}

type CellUpdate struct {
	Cell  string
	Value string
}

// ArtifactStore is the document backend the provisioner copies tracker
// templates through.
type ArtifactStore interface {
	// CopyTemplate duplicates the template into destFolder. newName is the
	// student identity the adapter works into the copy's title.
	CopyTemplate(ctx context.Context, templateRef, destFolder, newName string) (ArtifactRef, error)
	WriteCells(ctx context.Context, ref ArtifactRef, updates []CellUpdate) error
	GrantAccess(ctx context.Context, ref ArtifactRef, email, role string) error
}

// ArtifactResult is the provisioning outcome for one onboarded lead.
type ArtifactResult struct {
	Link       string
	Segment    string
	GradeLabel string
	Err        string // empty on success
}

func (r ArtifactResult) OK() bool { return r.Err == "" }

// Provisioner duplicates a tracker template per onboarded student, fills the
// identity cells, and shares the copy with the student.
type Provisioner struct {
	Store      ArtifactStore
	DestFolder string
	Logger     *zap.Logger
}

func NewProvisioner(store ArtifactStore, destFolder string, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{Store: store, DestFolder: destFolder, Logger: logger}
}

// Provision creates the tracker for one lead. Only called after account
// creation succeeded; a failure here never aborts provisioning for others.
func (p *Provisioner) Provision(ctx context.Context, lead EligibleLead, templates entity.TrackerCatalog) ArtifactResult {
	result := ArtifactResult{
		Segment:    lead.Segment,
		GradeLabel: "Grade " + entity.GradeLabel(lead.CurrentGrade),
	}

	grade := lead.CurrentGrade
	tmpl, ok := templates.Resolve(lead.Config.AppName, lead.Segment, &grade)
	if !ok {
		result.Err = "no tracker template found for app " + lead.Config.AppName
		return result
	}

	ref, err := p.Store.CopyTemplate(ctx, tmpl.SheetRef, p.DestFolder, lead.Email)
	if err != nil {
		result.Err = "copy template: " + err.Error()
		return result
	}

	updates := []CellUpdate{
		{Cell: "B2", Value: lead.Email},
		{Cell: "B3", Value: lead.CreatedAt.Format("2006-01-02")},
	}
	if err := p.Store.WriteCells(ctx, ref, updates); err != nil {
		result.Err = "write cells: " + err.Error()
		return result
	}

	// Sharing is best effort: the tracker exists either way.
	if err := p.Store.GrantAccess(ctx, ref, lead.Email, "writer"); err != nil {
		p.Logger.Warn("tracker share failed",
			zap.String("email", lead.Email), zap.Error(err))
	}

	result.Link = ref.Link
	return result
}
