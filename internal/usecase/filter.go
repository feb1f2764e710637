package usecase

import (
	"time"

	"github.com/lwai/timeback-onboarding/internal/entity"
)

// Rejection reasons. A lead carries the reason of the first predicate that
// failed, never a later one.
const (
	ReasonExistingAccount = "existing account"
	ReasonStale           = "stale"
	ReasonBlacklisted     = "blacklisted"
	ReasonGradeRange      = "grade out of range"
	ReasonInactiveSegment = "inactive segment"
	ReasonUnknownApp      = "unknown application"
)

// Lead rows created before this date are bad CRM data, rejected as stale.
var minValidCreatedAt = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// EligibleLead is a Lead that survived every filter, carrying its resolved
// segment config and derived current grade.
type EligibleLead struct {
	entity.Lead
	Config       entity.SegmentConfig
	CurrentGrade int
}

type Rejection struct {
	Lead   entity.Lead
	Reason string
}

// FilterInput is the immutable snapshot the filter chain runs against.
// Injecting Now keeps the staleness check deterministic.
type FilterInput struct {
	Accounts  entity.EmailSet
	Blacklist entity.EmailSet
	Configs   entity.SegmentConfigSet
	Now       time.Time
	MaxAge    time.Duration
}

// A predicate returns a rejection reason, or "" to pass the lead on.
type predicate func(entity.Lead, FilterInput) string

// Evaluation order is fixed; each predicate only sees leads that passed all
// earlier ones.
var filterChain = []predicate{
	existingAccount,
	stale,
	blacklisted,
	gradeOutOfRange,
	inactiveSegment,
}

func existingAccount(l entity.Lead, in FilterInput) string {
	if in.Accounts.Has(l.Email) {
		return ReasonExistingAccount
	}
	return ""
}

func stale(l entity.Lead, in FilterInput) string {
	if in.Now.Sub(l.CreatedAt) > in.MaxAge || l.CreatedAt.Before(minValidCreatedAt) {
		return ReasonStale
	}
	return ""
}

func blacklisted(l entity.Lead, in FilterInput) string {
	if in.Blacklist.Has(l.Email) {
		return ReasonBlacklisted
	}
	return ""
}

func gradeOutOfRange(l entity.Lead, in FilterInput) string {
	grade, ok := l.CurrentGrade()
	if !ok || !entity.GradeInRange(grade) {
		return ReasonGradeRange
	}
	cfg, err := in.Configs.For(l.Segment)
	if err != nil || !cfg.GradeAllowed(grade) {
		return ReasonGradeRange
	}
	return ""
}

// inactiveSegment is a safety net behind gradeOutOfRange: it keeps the
// active-flag check independently testable even though the grade predicate
// already resolved the same config row.
func inactiveSegment(l entity.Lead, in FilterInput) string {
	cfg, err := in.Configs.For(l.Segment)
	if err != nil {
		return ReasonGradeRange
	}
	if !cfg.Active {
		return ReasonInactiveSegment
	}
	return ""
}

// FilterLeads runs every lead through the predicate chain and splits the
// batch into the eligible set and per-lead rejections. Pure: identical
// inputs always produce identical output.
func FilterLeads(leads []entity.Lead, in FilterInput) ([]EligibleLead, []Rejection) {
	var eligible []EligibleLead
	var rejections []Rejection

	for _, lead := range leads {
		reason := ""
		for _, pred := range filterChain {
			if reason = pred(lead, in); reason != "" {
				break
			}
		}
		if reason != "" {
			rejections = append(rejections, Rejection{Lead: lead, Reason: reason})
			continue
		}

		grade, _ := lead.CurrentGrade()
		cfg, _ := in.Configs.For(lead.Segment)
		eligible = append(eligible, EligibleLead{Lead: lead, Config: cfg, CurrentGrade: grade})
	}

	return eligible, rejections
}
