package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Webhook is a server-held callback registration. UUID is assigned by the
// server.
type Webhook struct {
	UUID         string `json:"uuid"`
	WebhookURL   string `json:"webhookUrl"`
	WebhookToken string `json:"webhookToken"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

func (w Webhook) ParsedCreatedAt() time.Time {
	return parseTime(w.CreatedAt)
}

func (w Webhook) ParsedUpdatedAt() time.Time {
	return parseTime(w.UpdatedAt)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

type webhookRequest struct {
	WebhookURL string `json:"webhookUrl"`
}

func (c *Client) GetWebhooks(ctx context.Context) ([]Webhook, error) {
	var payload []Webhook
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   webhooksListPath,
	}, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) CreateWebhook(ctx context.Context, webhookURL string) (*Webhook, error) {
	var payload Webhook
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   webhooksPath,
		body:   webhookRequest{WebhookURL: webhookURL},
	}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) UpdateWebhook(ctx context.Context, id, webhookURL string) (*Webhook, error) {
	var payload Webhook
	if err := c.do(ctx, request{
		method: http.MethodPut,
		path:   webhooksPath + "/" + url.PathEscape(id),
		body:   webhookRequest{WebhookURL: webhookURL},
	}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, id string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   webhooksPath + "/" + url.PathEscape(id),
	}, nil)
}

// TestWebhook asks the server to send a test notification to the webhook.
func (c *Client) TestWebhook(ctx context.Context, id string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   webhookTestPath + url.PathEscape(id),
	}, nil)
}
