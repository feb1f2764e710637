package entity

import (
	"errors"
	"fmt"
)

var ErrSegmentNotFound = errors.New("segment not found in config")

// SegmentConfig is one row of the main_config sheet.
type SegmentConfig struct {
	Segment            string
	AppName            string
	AssessmentsEnabled bool
	MinGrade           int
	MaxGrade           int
	Active             bool
}

func (c SegmentConfig) Validate() error {
	if c.Segment == "" {
		return errors.New("segment key is required")
	}
	if c.AppName == "" {
		return fmt.Errorf("segment %q: app name is required", c.Segment)
	}
	if c.MinGrade > c.MaxGrade {
		return fmt.Errorf("segment %q: min_grade %d greater than max_grade %d", c.Segment, c.MinGrade, c.MaxGrade)
	}
	return nil
}

// GradeAllowed reports whether the grade falls inside this segment's
// inclusive range.
func (c SegmentConfig) GradeAllowed(grade int) bool {
	return grade >= c.MinGrade && grade <= c.MaxGrade
}

// SegmentConfigSet indexes config rows by segment key. An active row wins
// over an inactive one; two active rows for the same segment are a
// configuration error.
type SegmentConfigSet map[string]SegmentConfig

func NewSegmentConfigSet(rows []SegmentConfig) (SegmentConfigSet, error) {
	set := make(SegmentConfigSet, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
		existing, ok := set[row.Segment]
		if ok && existing.Active && row.Active {
			return nil, fmt.Errorf("segment %q has more than one active config row", row.Segment)
		}
		if !ok || row.Active {
			set[row.Segment] = row
		}
	}
	return set, nil
}

// For returns the config row for a segment, ErrSegmentNotFound when absent.
func (s SegmentConfigSet) For(segment string) (SegmentConfig, error) {
	cfg, ok := s[segment]
	if !ok {
		return SegmentConfig{}, ErrSegmentNotFound
	}
	return cfg, nil
}

// AppNames lists the distinct app names referenced by active segments.
func (s SegmentConfigSet) AppNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, cfg := range s {
		if !cfg.Active {
			continue
		}
		if _, ok := seen[cfg.AppName]; ok {
			continue
		}
		seen[cfg.AppName] = struct{}{}
		names = append(names, cfg.AppName)
	}
	return names
}
