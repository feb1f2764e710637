package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const DefaultBaseURL = "https://api.hubapi.com"

// Client talks to the HubSpot contacts API with a private-app access token.
type Client struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
}

func NewClient(accessToken string) *Client {
	return &Client{
		BaseURL:     DefaultBaseURL,
		AccessToken: accessToken,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FindContactByEmail resolves a contact id (vid). Returns "" without error
// when the contact does not exist.
func (c *Client) FindContactByEmail(ctx context.Context, email string) (string, error) {
	path := fmt.Sprintf("/contacts/v1/contact/email/%s/profile", url.PathEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("hubspot lookup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("hubspot lookup: status %d: %s", resp.StatusCode, string(body))
	}

	var contact contactProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&contact); err != nil {
		return "", fmt.Errorf("decode hubspot contact: %w", err)
	}
	if contact.VID != 0 {
		return strconv.FormatInt(contact.VID, 10), nil
	}
	return contact.ID, nil
}

// UpdateContactProperty sets one property on a contact. When contactID is
// empty the contact is resolved by email first.
func (c *Client) UpdateContactProperty(ctx context.Context, contactID, email, property, value string) error {
	if contactID == "" {
		id, err := c.FindContactByEmail(ctx, email)
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("hubspot contact not found for %s", email)
		}
		contactID = id
	}

	payload, err := json.Marshal(updatePropertiesRequest{
		Properties: []propertyUpdate{{Property: property, Value: value}},
	})
	if err != nil {
		return fmt.Errorf("marshal property update: %w", err)
	}

	path := fmt.Sprintf("/contacts/v1/contact/vid/%s/profile", url.PathEscape(contactID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot update: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("hubspot update: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
}
