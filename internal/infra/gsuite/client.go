package gsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	sheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	driveBaseURL  = "https://www.googleapis.com/drive/v3"
)

// TokenProvider supplies a valid OAuth bearer token for the Sheets and
// Drive APIs (service-account flow handled outside this package).
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken adapts a fixed token to a TokenProvider.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) {
		if token == "" {
			return "", fmt.Errorf("google api token not configured")
		}
		return token, nil
	}
}

// Client is the shared HTTP plumbing for the Sheets and Drive adapters.
type Client struct {
	Token      TokenProvider
	HTTPClient *http.Client
}

func NewClient(token TokenProvider) *Client {
	return &Client{
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("google api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("google api: status %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ExtractSpreadsheetID accepts either a bare spreadsheet id or a full
// docs.google.com URL and returns the id.
func ExtractSpreadsheetID(ref string) string {
	const marker = "/spreadsheets/d/"
	idx := strings.Index(ref, marker)
	if idx < 0 {
		return ref
	}
	id := ref[idx+len(marker):]
	for _, sep := range []string{"/", "?", "#"} {
		if cut := strings.Index(id, sep); cut >= 0 {
			id = id[:cut]
		}
	}
	return id
}
