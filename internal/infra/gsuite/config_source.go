package gsuite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lwai/timeback-onboarding/internal/entity"
)

// Configuration worksheets inside the ops spreadsheet.
const (
	SheetMainConfig    = "main_config"
	SheetAssessmentIDs = "assessment_ids"
	SheetBlacklist     = "blacklist"
	SheetTrackerIndex  = "program_trackers"
)

// RowReader is the worksheet access the config loader needs.
type RowReader interface {
	ReadRows(ctx context.Context, sheetName string) ([][]string, error)
}

// ConfigSource loads the run's lookup structures from the ops spreadsheet.
// Parse failures are returned as-is; the pipeline wraps them as fatal.
type ConfigSource struct {
	Sheets RowReader
}

func NewConfigSource(sheets RowReader) *ConfigSource {
	return &ConfigSource{Sheets: sheets}
}

func (c *ConfigSource) LoadSegmentConfigs(ctx context.Context) (entity.SegmentConfigSet, error) {
	table, err := c.readTable(ctx, SheetMainConfig)
	if err != nil {
		return nil, err
	}

	var rows []entity.SegmentConfig
	for i, row := range table.rows {
		minGrade, err := strconv.Atoi(strings.TrimSpace(table.cell(row, "min_grade")))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad min_grade: %w", SheetMainConfig, i+2, err)
		}
		maxGrade, err := strconv.Atoi(strings.TrimSpace(table.cell(row, "max_grade")))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: bad max_grade: %w", SheetMainConfig, i+2, err)
		}
		rows = append(rows, entity.SegmentConfig{
			Segment:            strings.TrimSpace(table.cell(row, "segment")),
			AppName:            strings.TrimSpace(table.cell(row, "app")),
			AssessmentsEnabled: truthy(table.cell(row, "assessments")),
			MinGrade:           minGrade,
			MaxGrade:           maxGrade,
			Active:             truthy(table.cell(row, "active")),
		})
	}
	return entity.NewSegmentConfigSet(rows)
}

func (c *ConfigSource) LoadAssessmentCatalog(ctx context.Context) (entity.AssessmentCatalog, error) {
	table, err := c.readTable(ctx, SheetAssessmentIDs)
	if err != nil {
		return nil, err
	}

	var catalog entity.AssessmentCatalog
	for _, row := range table.rows {
		def := entity.AssessmentDefinition{
			Segment:   strings.TrimSpace(table.cell(row, "segment")),
			Unit:      strings.TrimSpace(table.cell(row, "unit")),
			PrePost:   strings.TrimSpace(table.cell(row, "pre_post")),
			SourcedID: strings.TrimSpace(table.cell(row, "initial_assessment_id")),
			Name:      strings.TrimSpace(table.cell(row, "assessment_name")),
		}
		// Blank grade means the assessment applies at every grade.
		if raw := strings.TrimSpace(table.cell(row, "grade")); raw != "" {
			grade, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: bad grade %q", SheetAssessmentIDs, raw)
			}
			def.Grade = &grade
		}
		catalog = append(catalog, def)
	}
	return catalog, nil
}

func (c *ConfigSource) LoadBlacklist(ctx context.Context) (entity.EmailSet, error) {
	rows, err := c.Sheets.ReadRows(ctx, SheetBlacklist)
	if err != nil {
		return nil, err
	}

	set := make(entity.EmailSet)
	for i, row := range rows {
		if i == 0 || len(row) == 0 { // header
			continue
		}
		set.Add(row[0])
	}
	return set, nil
}

func (c *ConfigSource) LoadTrackerCatalog(ctx context.Context) (entity.TrackerCatalog, error) {
	table, err := c.readTable(ctx, SheetTrackerIndex)
	if err != nil {
		return nil, err
	}

	var catalog entity.TrackerCatalog
	for _, row := range table.rows {
		tmpl := entity.TrackerTemplate{
			App:      strings.TrimSpace(table.cell(row, "App")),
			Segment:  strings.TrimSpace(table.cell(row, "Segment")),
			SheetRef: strings.TrimSpace(table.cell(row, "Tracker")),
		}
		if raw := strings.TrimSpace(table.cell(row, "Grade")); raw != "" {
			if grade, err := strconv.Atoi(raw); err == nil {
				tmpl.Grade = &grade
			}
		}
		catalog = append(catalog, tmpl)
	}
	return catalog, nil
}

// table is a worksheet with its header row resolved into column positions.
type table struct {
	columns map[string]int
	rows    [][]string
}

func (c *ConfigSource) readTable(ctx context.Context, sheetName string) (*table, error) {
	rows, err := c.Sheets.ReadRows(ctx, sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: worksheet is empty", sheetName)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}
	return &table{columns: columns, rows: rows[1:]}, nil
}

func (t *table) cell(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "1.0", "true", "yes":
		return true
	}
	return false
}
