package entity

// AssessmentDefinition maps a (segment, grade, unit, pre/post) slot to an
// external assessment id. A nil Grade applies to every grade in the segment.
type AssessmentDefinition struct {
	Segment   string
	Grade     *int
	Unit      string
	PrePost   string
	SourcedID string
	Name      string
}

func (d AssessmentDefinition) Matches(segment string, grade int) bool {
	if d.Segment != segment {
		return false
	}
	return d.Grade == nil || *d.Grade == grade
}

// AssessmentCatalog is the full assessment_ids sheet, read-only for the
// lifetime of a run.
type AssessmentCatalog []AssessmentDefinition

// For returns every definition matching the segment and grade, in sheet order.
func (c AssessmentCatalog) For(segment string, grade int) []AssessmentDefinition {
	var matches []AssessmentDefinition
	for _, d := range c {
		if d.Matches(segment, grade) {
			matches = append(matches, d)
		}
	}
	return matches
}
