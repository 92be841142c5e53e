package provider

import (
	"context"
	"fmt"
	"net/http"

	"tableline/internal/config"
)

// EmailClient sends transactional email through a Resend-compatible API.
type EmailClient struct {
	http    httpClient
	baseURL string
	apiKey  string
	from    string
}

// NewEmailClient creates a client from config.
func NewEmailClient(cfg config.EmailConfig) *EmailClient {
	return &EmailClient{
		http:    newHTTPClient("email provider", cfg.Timeout),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
	}
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type emailResponse struct {
	ID string `json:"id"`
}

// SendEmail sends a plain-text email and returns the provider's message id.
func (c *EmailClient) SendEmail(ctx context.Context, to []string, subject, text string) (string, error) {
	reader, err := jsonBody(emailRequest{From: c.from, To: to, Subject: subject, Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", reader)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var out emailResponse
	if err := c.http.do(req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
