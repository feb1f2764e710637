package blob

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lwai/timeback-onboarding/internal/entity"
)

// CRM export columns. The export is wide; anything not listed is ignored.
const (
	colObjectID     = "hs_object_id"
	colEmail        = "hs_email"
	colPrimaryEmail = "hs_primary_email"
	colFirstName    = "hs_firstname"
	colLastName     = "hs_lastname"
	colBirthDate    = "hs_students_birthdate"
	colGradeNum     = "hs_StudentGradeNum"
	colAddedAt      = "hs_added_at"
	colSegment      = "segment_name"

	colAccountEmail = "tb_email"
)

// ParseLeads decodes the CRM lead export. Rows without a usable email are
// dropped, and duplicate emails keep the first row seen. The second return
// is the number of duplicates discarded.
func ParseLeads(r io.Reader) ([]entity.Lead, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	var (
		leads      []entity.Lead
		seen       = make(map[string]struct{})
		duplicates int
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		lead := leadFromRow(cols, row)
		if lead.Email == "" {
			continue
		}
		if _, ok := seen[lead.EmailKey()]; ok {
			duplicates++
			continue
		}
		seen[lead.EmailKey()] = struct{}{}
		leads = append(leads, lead)
	}
	return leads, duplicates, nil
}

// ParseAccounts decodes the existing-accounts export into an email set.
func ParseAccounts(r io.Reader) (entity.EmailSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	set := make(entity.EmailSet)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		set.Add(field(cols, row, colAccountEmail))
	}
	return set, nil
}

func leadFromRow(cols map[string]int, row []string) entity.Lead {
	email := field(cols, row, colPrimaryEmail)
	if email == "" {
		email = field(cols, row, colEmail)
	}

	lead := entity.Lead{
		Email:            email,
		HubspotContactID: field(cols, row, colObjectID),
		FirstName:        field(cols, row, colFirstName),
		LastName:         field(cols, row, colLastName),
		BirthDate:        field(cols, row, colBirthDate),
		Segment:          field(cols, row, colSegment),
	}
	if grade, err := strconv.Atoi(field(cols, row, colGradeNum)); err == nil {
		lead.LastCompletedGrade = &grade
	}
	// Signup timestamp is epoch milliseconds. Unparseable values stay zero
	// so the staleness filter rejects them as bad data.
	if ms, err := strconv.ParseInt(field(cols, row, colAddedAt), 10, 64); err == nil {
		lead.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return lead
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func field(cols map[string]int, row []string, column string) string {
	i, ok := cols[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
