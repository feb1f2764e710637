package entity

// TrackerTemplate is one row of the program_trackers sheet: a template
// spreadsheet to duplicate for a newly onboarded student. Segment and Grade
// narrow the match; empty values act as wildcards.
type TrackerTemplate struct {
	App      string
	Segment  string
	Grade    *int
	SheetRef string // template spreadsheet id or full URL
}

// TrackerCatalog holds every template row, read-only for the run.
type TrackerCatalog []TrackerTemplate

// Resolve picks the template for an app with decreasing specificity:
// app+segment+grade, then app+segment, then app alone. Rows without a sheet
// reference are never selected.
func (c TrackerCatalog) Resolve(app, segment string, grade *int) (TrackerTemplate, bool) {
	if grade != nil {
		for _, t := range c {
			if t.App == app && t.Segment == segment && t.Grade != nil && *t.Grade == *grade && t.SheetRef != "" {
				return t, true
			}
		}
	}
	for _, t := range c {
		if t.App == app && t.Segment == segment && t.Segment != "" && t.SheetRef != "" {
			return t, true
		}
	}
	for _, t := range c {
		if t.App == app && t.SheetRef != "" {
			return t, true
		}
	}
	return TrackerTemplate{}, false
}
