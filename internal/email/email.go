// Package email is the transactional-email collaborator. Delivery is
// fire-and-forget from the bot's perspective; failures are logged by the
// caller and never block a flow.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Mailer sends a templated transactional email.
type Mailer interface {
	SendTransactional(ctx context.Context, template, recipient string, vars map[string]string) error
}

// Client is a thin HTTP client for the email provider's send endpoint.
type Client struct {
	apiBase   string
	apiKey    string
	fromEmail string
	fromName  string
	http      *http.Client
}

func NewClient(apiBase, apiKey, fromEmail, fromName string) *Client {
	return &Client{
		apiBase:   apiBase,
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) SendTransactional(ctx context.Context, template, recipient string, vars map[string]string) error {
	payload := map[string]any{
		"template":  template,
		"to":        recipient,
		"from":      map[string]string{"email": c.fromEmail, "name": c.fromName},
		"variables": vars,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email send: status %d", resp.StatusCode)
	}
	return nil
}

// Noop discards all email; used when no provider is configured.
type Noop struct{}

func (Noop) SendTransactional(ctx context.Context, template, recipient string, vars map[string]string) error {
	return nil
}
