// Package provider holds the HTTP clients for the third-party APIs the
// service calls: the voice-agent provider, the SMS provider and the email
// provider. Every call is a single synchronous request; a transport error or
// a non-2xx status is returned as ErrUpstreamFailure and never retried.
package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "tableline/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxErrorBody bounds how much of an error response is kept for logs.
const maxErrorBody = 512

type httpClient struct {
	name   string
	client *http.Client
}

func newHTTPClient(name string, timeout time.Duration) httpClient {
	return httpClient{
		name: name,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// UpstreamError is a failed provider call. Error() carries the status and
// the provider's response for logs; the caller-facing message stays generic
// so provider internals never reach API clients.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Detail)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Provider, e.StatusCode, e.Detail)
}

// Unwrap exposes an ErrUpstreamFailure AppError with the generic message.
func (e *UpstreamError) Unwrap() error {
	return apperrors.New(apperrors.ErrUpstreamFailure, fmt.Sprintf("The %s could not complete the request.", e.Provider))
}

// do sends req and decodes a 2xx JSON response into out (when non-nil).
func (c httpClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return &UpstreamError{Provider: c.name, Detail: "unreachable: " + err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &UpstreamError{Provider: c.name, StatusCode: resp.StatusCode, Detail: string(bytes.TrimSpace(body))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Provider: c.name, StatusCode: resp.StatusCode, Detail: "unreadable body: " + err.Error()}
	}
	return nil
}
