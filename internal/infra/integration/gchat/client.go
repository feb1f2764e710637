package gchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts messages to a Google Chat space through an incoming webhook.
// Everything here is best effort; callers treat errors as log-worthy only.
type Client struct {
	WebhookURL string
	HTTPClient *http.Client
}

func NewClient(webhookURL string) *Client {
	return &Client{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type message struct {
	Text   string  `json:"text"`
	Thread *thread `json:"thread,omitempty"`
}

type thread struct {
	Name string `json:"name"`
}

func (c *Client) send(ctx context.Context, text, threadKey string) error {
	if c.WebhookURL == "" {
		return fmt.Errorf("chat webhook not configured")
	}

	msg := message{Text: text}
	if threadKey != "" {
		msg.Thread = &thread{Name: threadKey}
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send chat message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat webhook: status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
