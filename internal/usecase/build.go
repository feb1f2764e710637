package usecase

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lwai/timeback-onboarding/internal/entity"
	"github.com/lwai/timeback-onboarding/internal/infra/integration/timeback"
)

// AssessmentAssignment pairs a freshly generated profile id with the
// assessment definition it assigns.
type AssessmentAssignment struct {
	ProfileID  string
	Definition entity.AssessmentDefinition
	Payload    timeback.ProfilePayload
}

// ProvisioningPlan is everything the executor needs for one lead, derived
// once and never recomputed. AccountID doubles as the idempotency key:
// retrying the same plan can never create a second account.
type ProvisioningPlan struct {
	Lead         EligibleLead
	AccountID    string
	AppProfileID string
	AppName      string
	AppID        string
	Account      timeback.AccountPayload
	AppProfile   timeback.ProfilePayload
	Assessments  []AssessmentAssignment

	// BuildError marks the plan unbuildable; such plans are never executed.
	BuildError string
}

func (p ProvisioningPlan) Buildable() bool { return p.BuildError == "" }

// BuildPlan derives the full plan for one eligible lead. Pure apart from id
// generation: no I/O, no shared state, safe to run concurrently per lead.
func BuildPlan(lead EligibleLead, appIndex map[string]string, catalog entity.AssessmentCatalog) ProvisioningPlan {
	plan := ProvisioningPlan{
		Lead:         lead,
		AccountID:    uuid.New().String(),
		AppProfileID: uuid.New().String(),
		AppName:      lead.Config.AppName,
	}

	plan.Account = timeback.AccountPayload{Student: timeback.Student{
		SourcedID:          plan.AccountID,
		Email:              lead.Email,
		Username:           lead.Email,
		Status:             "active",
		EnabledUser:        "true",
		GivenName:          lead.FirstName,
		FamilyName:         lead.LastName,
		PreferredFirstName: lead.FirstName,
		Grades:             []string{entity.GradeLabel(lead.CurrentGrade)},
		PrimaryOrg: timeback.OrgRef{
			Href:      timeback.OrgHref,
			SourcedID: timeback.OrgSourcedID,
			Type:      "org",
		},
	}}
	if birth := normalizeBirthDate(lead.BirthDate); birth != "" {
		plan.Account.Student.Demographics = &timeback.Demographics{BirthDate: birth}
	}

	appID, ok := appIndex[lead.Config.AppName]
	if !ok {
		plan.BuildError = fmt.Sprintf("app %q not found in platform applications", lead.Config.AppName)
		return plan
	}
	plan.AppID = appID
	plan.AppProfile = timeback.ProfilePayload{
		ProfileID:     plan.AppProfileID,
		ApplicationID: appID,
		ProfileType:   "learning_app_profile",
		VendorID:      "alpha",
		Description:   "Automated assignment via TimeBack Platform API - " + lead.Config.AppName,
	}

	if !lead.Config.AssessmentsEnabled {
		return plan
	}
	for _, def := range catalog.For(lead.Segment, lead.CurrentGrade) {
		if def.SourcedID == "" {
			continue
		}
		profileID := uuid.New().String()
		plan.Assessments = append(plan.Assessments, AssessmentAssignment{
			ProfileID:  profileID,
			Definition: def,
			Payload: timeback.ProfilePayload{
				ProfileID:     profileID,
				ApplicationID: def.SourcedID,
				ProfileType:   "learning_app_profile",
				VendorID:      "alpha",
				Description:   "Automated assessment assignment - " + def.Name,
			},
		})
	}

	return plan
}

// normalizeBirthDate converts the CRM's MM-DD-YYYY birth date to the
// platform's YYYY-MM-DD. Already-normalized values pass through; anything
// else yields "" and the demographics block is omitted.
func normalizeBirthDate(raw string) string {
	if raw == "" {
		return ""
	}
	if t, err := time.Parse("01-02-2006", raw); err == nil {
		return t.Format("2006-01-02")
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format("2006-01-02")
	}
	return ""
}
