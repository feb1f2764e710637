package gsuite

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/lwai/timeback-onboarding/internal/usecase"
)

const namePlaceholder = "[Student Name]"

// TrackerStore provisions per-student tracker spreadsheets by copying
// Drive templates into the destination folder.
type TrackerStore struct {
	Client *Client
}

func NewTrackerStore(client *Client) *TrackerStore {
	return &TrackerStore{Client: client}
}

type driveFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *TrackerStore) CopyTemplate(ctx context.Context, templateRef, destFolder, newName string) (usecase.ArtifactRef, error) {
	templateID := ExtractSpreadsheetID(templateRef)

	title, err := s.templateTitle(ctx, templateID)
	if err != nil {
		return usecase.ArtifactRef{}, err
	}

	copyURL := fmt.Sprintf("%s/files/%s/copy?supportsAllDrives=true", driveBaseURL, url.PathEscape(templateID))
	req := map[string]any{
		"name":    copyTitle(title, newName),
		"parents": []string{destFolder},
	}
	var copied driveFile
	if err := s.Client.doJSON(ctx, "POST", copyURL, req, &copied); err != nil {
		return usecase.ArtifactRef{}, fmt.Errorf("copy template %s: %w", templateID, err)
	}

	return usecase.ArtifactRef{
		ID:   copied.ID,
		Link: "https://docs.google.com/spreadsheets/d/" + copied.ID,
	}, nil
}

func (s *TrackerStore) WriteCells(ctx context.Context, ref usecase.ArtifactRef, cells []usecase.CellUpdate) error {
	for _, cell := range cells {
		if err := s.Client.UpdateCell(ctx, ref.ID, cell.Cell, cell.Value); err != nil {
			return fmt.Errorf("write cell %s: %w", cell.Cell, err)
		}
	}
	return nil
}

func (s *TrackerStore) GrantAccess(ctx context.Context, ref usecase.ArtifactRef, email, role string) error {
	permURL := fmt.Sprintf("%s/files/%s/permissions?sendNotificationEmail=false&supportsAllDrives=true",
		driveBaseURL, url.PathEscape(ref.ID))
	req := map[string]any{
		"type":         "user",
		"role":         role,
		"emailAddress": email,
	}
	if err := s.Client.doJSON(ctx, "POST", permURL, req, nil); err != nil {
		return fmt.Errorf("grant %s on %s: %w", role, ref.ID, err)
	}
	return nil
}

func (s *TrackerStore) templateTitle(ctx context.Context, templateID string) (string, error) {
	metaURL := fmt.Sprintf("%s/files/%s?fields=name&supportsAllDrives=true", driveBaseURL, url.PathEscape(templateID))
	var meta driveFile
	if err := s.Client.doJSON(ctx, "GET", metaURL, nil, &meta); err != nil {
		return "", fmt.Errorf("read template %s: %w", templateID, err)
	}
	return meta.Name, nil
}

// copyTitle substitutes the student placeholder in the template title,
// or appends the student identity when the template has no placeholder.
func copyTitle(templateTitle, student string) string {
	if strings.Contains(templateTitle, namePlaceholder) {
		return strings.ReplaceAll(templateTitle, namePlaceholder, student)
	}
	if templateTitle == "" {
		return student
	}
	return templateTitle + " - " + student
}
