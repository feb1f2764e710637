package gsuite

import (
	"context"
	"fmt"
	"net/url"
)

// Sheets reads and appends worksheet rows in one spreadsheet. Appends are
// a single API call per batch, so a batch lands fully or not at all.
type Sheets struct {
	Client        *Client
	SpreadsheetID string
}

func NewSheets(client *Client, spreadsheetID string) *Sheets {
	return &Sheets{Client: client, SpreadsheetID: spreadsheetID}
}

type valuesResponse struct {
	Values [][]any `json:"values"`
}

type valuesRequest struct {
	Values [][]string `json:"values"`
}

// ReadRows returns every row of a worksheet as strings, without the header
// row trimmed; callers decide what the first row means.
func (s *Sheets) ReadRows(ctx context.Context, sheetName string) ([][]string, error) {
	u := fmt.Sprintf("%s/%s/values/%s", sheetsBaseURL, s.SpreadsheetID, url.PathEscape(sheetName))

	var resp valuesResponse
	if err := s.Client.doJSON(ctx, "GET", u, nil, &resp); err != nil {
		return nil, fmt.Errorf("read %s: %w", sheetName, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRows appends a batch of rows after the worksheet's current data.
func (s *Sheets) AppendRows(ctx context.Context, sheetName string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	u := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		sheetsBaseURL, s.SpreadsheetID, url.PathEscape(sheetName+"!A1"))

	if err := s.Client.doJSON(ctx, "POST", u, valuesRequest{Values: rows}, nil); err != nil {
		return fmt.Errorf("append to %s: %w", sheetName, err)
	}
	return nil
}

// UpdateCell writes a single cell in any spreadsheet (not just the config
// one); the tracker store uses it to fill freshly copied documents.
func (c *Client) UpdateCell(ctx context.Context, spreadsheetID, cell, value string) error {
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=USER_ENTERED",
		sheetsBaseURL, spreadsheetID, url.PathEscape(cell))

	body := valuesRequest{Values: [][]string{{value}}}
	if err := c.doJSON(ctx, "PUT", u, body, nil); err != nil {
		return fmt.Errorf("update cell %s: %w", cell, err)
	}
	return nil
}
