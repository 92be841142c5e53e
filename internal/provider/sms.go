package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"tableline/internal/config"
)

// SMSClient sends text messages through a Twilio-compatible API.
type SMSClient struct {
	http       httpClient
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

// NewSMSClient creates a client from config.
func NewSMSClient(cfg config.SMSConfig) *SMSClient {
	return &SMSClient{
		http:       newHTTPClient("sms provider", cfg.Timeout),
		baseURL:    cfg.BaseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
	}
}

type smsResponse struct {
	SID string `json:"sid"`
}

// SendSMS sends body to the E.164 number to and returns the message id.
func (c *SMSClient) SendSMS(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	var out smsResponse
	if err := c.http.do(req, &out); err != nil {
		return "", err
	}
	return out.SID, nil
}
