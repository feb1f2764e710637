package entity

import "strconv"

// Platform grade vocabulary. Ordinals run from pre-kindergarten (-1) through
// grade 12; kindergarten is 0.
const (
	GradeMin = -1
	GradeMax = 12
)

// GradeInRange reports whether the ordinal is representable on the platform.
func GradeInRange(grade int) bool {
	return grade >= GradeMin && grade <= GradeMax
}

// GradeLabel converts an ordinal to the platform's grade string
// ("PK", "K", "1" through "12").
func GradeLabel(grade int) string {
	switch {
	case grade < 0:
		return "PK"
	case grade == 0:
		return "K"
	default:
		return strconv.Itoa(grade)
	}
}
