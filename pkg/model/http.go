package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/judgment/pkg/decision"
	"mercator-hq/judgment/pkg/telemetry/tracing"
)

// DefaultHTTPTimeout bounds one HTTP model call when no timeout is set.
const DefaultHTTPTimeout = 60 * time.Second

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 4096

// HTTPConfig configures an HTTP model.
type HTTPConfig struct {
	// URL receives a POST with the request as a JSON object and must
	// answer with a JSON object.
	URL string

	// Timeout bounds each call. Zero uses DefaultHTTPTimeout.
	Timeout time.Duration

	// Headers are added to every request, e.g. Authorization.
	Headers map[string]string
}

// HTTPError is returned when the endpoint answers with a non-2xx status or
// an undecodable body.
type HTTPError struct {
	URL        string
	StatusCode int // 0 when the failure is not a status error
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("model endpoint %s error (status %d): %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("model endpoint %s error: %s", e.URL, e.Message)
}

// Unwrap returns the underlying cause.
func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// HTTPModel calls a remote model over HTTP. It performs no retries.
type HTTPModel struct {
	config HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTP creates an HTTP model. A nil logger uses slog.Default().
func NewHTTP(cfg HTTPConfig, logger *slog.Logger) (*HTTPModel, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("model URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultHTTPTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPModel{
		config: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			Timeout: cfg.Timeout,
		},
		logger: logger.With("component", "http_model"),
	}, nil
}

// Invoke posts req to the endpoint and decodes the response object. The
// current trace context is propagated in the request headers.
func (m *HTTPModel) Invoke(ctx context.Context, req decision.Request) (decision.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create model request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range m.config.Headers {
		httpReq.Header.Set(k, v)
	}
	tracing.Inject(ctx, httpReq.Header)

	m.logger.Debug("calling model endpoint", "url", m.config.URL)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, &HTTPError{URL: m.config.URL, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			URL:        m.config.URL,
			StatusCode: resp.StatusCode,
			Message:    string(bytes.TrimSpace(msg)),
		}
	}

	var out decision.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &HTTPError{URL: m.config.URL, Message: "invalid response body", Cause: err}
	}
	if out == nil {
		return nil, &HTTPError{URL: m.config.URL, Message: "response is not a JSON object"}
	}

	return out, nil
}

// Func returns m.Invoke as a Func.
func (m *HTTPModel) Func() Func {
	return m.Invoke
}
