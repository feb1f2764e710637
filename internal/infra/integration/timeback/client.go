package timeback

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// OAuth scope required for rostering and LTI calls.
const tokenScope = "https://purl.imsglobal.org/spec/or/v1p2/scope/roster.createput " +
	"https://purl.imsglobal.org/spec/or/v1p2/scope/roster.readonly " +
	"https://purl.imsglobal.org/spec/lti/v1p3/scope/lti.readonly " +
	"https://purl.imsglobal.org/spec/lti/v1p3/scope/lti.createput"

const (
	maxAttempts  = 3
	initialDelay = time.Second
	maxDelay     = 60 * time.Second
)

// APIError is a non-2xx platform response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("timeback api: status %d: %s", e.StatusCode, e.Body)
}

// Transient reports whether the call is worth retrying.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ensureToken refreshes the cached bearer token when it is missing or about
// to expire. force discards the cached token first, used after a 401.
func (c *Client) ensureToken(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if force {
		c.token = ""
	}
	if c.token != "" && time.Now().Add(30*time.Second).Before(c.tokenExpiry) {
		return c.token, nil
	}

	creds := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", tokenScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth/1.0/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}

	exp := tok.ExpiresIn
	if exp == 0 {
		exp = 3600
	}
	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(exp) * time.Second)
	return c.token, nil
}

// do issues one authenticated request with bounded exponential backoff.
// Transport errors, 429 and 5xx are retried up to maxAttempts; a 401 is
// retried exactly once with a fresh token; other 4xx surface immediately.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal request body: %w", err)
		}
	}

	delay := initialDelay
	refreshed := false
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(min(delay, maxDelay)):
			}
			delay *= 2
		}

		token, err := c.ensureToken(ctx, false)
		if err != nil {
			lastErr = err
			continue
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("timeback request: %w", err)
			continue
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 400 {
			return respBody, resp.StatusCode, nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		if resp.StatusCode == http.StatusUnauthorized && !refreshed {
			refreshed = true
			if _, err := c.ensureToken(ctx, true); err != nil {
				return nil, resp.StatusCode, err
			}
			attempt-- // the credential refresh does not consume an attempt
			continue
		}
		if !apiErr.Transient() {
			return respBody, resp.StatusCode, apiErr
		}
		lastErr = apiErr
	}

	return nil, 0, lastErr
}

// CreateStudent issues the idempotent account PUT. A 409 means the account
// already exists under the same sourcedId and is treated as success; the
// returned user id is the platform's when it echoes one, the payload's
// otherwise.
func (c *Client) CreateStudent(ctx context.Context, p AccountPayload) (string, error) {
	body, _, err := c.do(ctx, http.MethodPut, "/rostering/1.0/students", p)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return p.Student.SourcedID, nil
		}
		return "", err
	}

	var parsed studentResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Student.SourcedID != "" {
		return parsed.Student.SourcedID, nil
	}
	return p.Student.SourcedID, nil
}

// AssignProfile attaches a learning app or assessment profile to a user.
// The profile id in the URL makes the PUT idempotent.
func (c *Client) AssignProfile(ctx context.Context, userID string, p ProfilePayload) error {
	path := fmt.Sprintf("/rostering/1.0/users/%s/profiles/%s", url.PathEscape(userID), url.PathEscape(p.ProfileID))
	_, _, err := c.do(ctx, http.MethodPut, path, p)
	return err
}

// ListApplications fetches the full name-to-id application index. Names in
// needed that the paginated listing missed are looked up again with an
// exact-name filter; pagination on the platform is not always exhaustive.
func (c *Client) ListApplications(ctx context.Context, needed []string) (map[string]string, error) {
	index := make(map[string]string)
	const limit = 100

	for offset := 0; ; offset += limit {
		body, _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/applications/1.0?limit=%d&offset=%d", limit, offset), nil)
		if err != nil {
			return nil, err
		}
		var page applicationsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode applications page: %w", err)
		}
		for _, app := range page.Applications {
			if app.Name != "" && app.SourcedID != "" {
				index[app.Name] = app.SourcedID
			}
		}
		if !page.Pagination.HasMore {
			break
		}
	}

	for _, name := range needed {
		if _, ok := index[name]; ok {
			continue
		}
		filter := url.QueryEscape(fmt.Sprintf("name='%s'", name))
		body, _, err := c.do(ctx, http.MethodGet, "/applications/1.0?filter="+filter, nil)
		if err != nil {
			continue // missing apps surface later as unbuildable plans
		}
		var page applicationsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			continue
		}
		for _, app := range page.Applications {
			if app.Name == name && app.SourcedID != "" {
				index[name] = app.SourcedID
			}
		}
	}

	return index, nil
}
