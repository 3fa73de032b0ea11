package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WhatsAppClient is a thin wrapper around the WhatsApp Cloud API. It sends
// exactly one HTTP request per call; callers own retry policy.
type WhatsAppClient struct {
	apiBase       string
	accessToken   string
	phoneNumberID string
	http          *http.Client
}

func NewWhatsAppClient(apiBase, accessToken, phoneNumberID string) *WhatsAppClient {
	return &WhatsAppClient{
		apiBase:       apiBase,
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		http:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *WhatsAppClient) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/%s/messages", c.apiBase, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp send: status %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

func (c *WhatsAppClient) SendText(ctx context.Context, to, body string) error {
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": body},
	})
}

func (c *WhatsAppClient) SendButtons(ctx context.Context, to, body string, buttons []Button) error {
	buttons = ClampButtons(buttons)
	btns := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		btns = append(btns, map[string]any{
			"type":  "reply",
			"reply": map[string]any{"id": b.ID, "title": b.Label},
		})
	}
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "button",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"buttons": btns},
		},
	})
}

func (c *WhatsAppClient) SendList(ctx context.Context, to, body, buttonLabel string, sections []Section) error {
	sections = ClampSections(sections)
	secs := make([]map[string]any, 0, len(sections))
	for _, s := range sections {
		rows := make([]map[string]any, 0, len(s.Rows))
		for _, r := range s.Rows {
			row := map[string]any{"id": r.ID, "title": r.Title}
			if r.Description != "" {
				row["description"] = r.Description
			}
			rows = append(rows, row)
		}
		secs = append(secs, map[string]any{"title": s.Title, "rows": rows})
	}
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type":   "list",
			"body":   map[string]any{"text": body},
			"action": map[string]any{"button": Truncate(buttonLabel, MaxButtonLabel), "sections": secs},
		},
	})
}

func (c *WhatsAppClient) SendMedia(ctx context.Context, to, url, caption string) error {
	img := map[string]any{"link": url}
	if caption != "" {
		img["caption"] = caption
	}
	return c.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "image",
		"image":             img,
	})
}

// Fetch resolves a media ID to its bytes: one request for the download URL,
// one for the content.
func (c *WhatsAppClient) Fetch(ctx context.Context, mediaID string) ([]byte, string, error) {
	metaURL := fmt.Sprintf("%s/%s", c.apiBase, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metaURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("media lookup: status %d", resp.StatusCode)
	}
	var meta struct {
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, "", fmt.Errorf("media lookup: %w", err)
	}

	dl, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, "", err
	}
	dl.Header.Set("Authorization", "Bearer "+c.accessToken)
	dlResp, err := c.http.Do(dl)
	if err != nil {
		return nil, "", fmt.Errorf("media download: %w", err)
	}
	defer dlResp.Body.Close()
	if dlResp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("media download: status %d", dlResp.StatusCode)
	}
	b, err := io.ReadAll(dlResp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("media download: %w", err)
	}
	return b, meta.MimeType, nil
}
