package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mchmarny/scoring/pkg/metrics"
	snet "github.com/mchmarny/scoring/pkg/net"
	"github.com/xeipuuv/gojsonschema"
)

const (
	consentPath = "/consent"
	predictPath = "/predict"
	reportPath  = "/report"

	opConsent = "consent"
	opPredict = "predict"
	opReport  = "report"

	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20
)

var (
	ErrInvalidURL = errors.New("invalid scoring service URL")
	ErrTransport  = errors.New("scoring service unreachable")
	ErrDecode     = errors.New("scoring service returned malformed JSON")
	ErrSchema     = errors.New("scoring service response does not match contract")
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("scoring service returned status %d", e.Code)
	}
	return fmt.Sprintf("scoring service returned status %d: %s", e.Code, e.Detail)
}

// Client calls the external scoring service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the service at baseURL, for example
// http://localhost:8000/api/v1.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: snet.GetHTTPClient(0, ""),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the normalized service URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SendConsent posts the user consent choice.
func (c *Client) SendConsent(ctx context.Context, req ConsentRequest) (*ConsentResponse, error) {
	body, err := c.do(ctx, opConsent, http.MethodPost, consentPath, req, consentSchema)
	if err != nil {
		return nil, err
	}
	return &ConsentResponse{Raw: body}, nil
}

// SubmitApplication posts the application record and returns the decision.
func (c *Client) SubmitApplication(ctx context.Context, app Application) (*Prediction, error) {
	if app == nil {
		app = Application{}
	}

	body, err := c.do(ctx, opPredict, http.MethodPost, predictPath, app, predictionSchema)
	if err != nil {
		return nil, err
	}

	var p Prediction
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	p.Raw = body
	return &p, nil
}

// GetModelReport fetches the model quality report.
func (c *Client) GetModelReport(ctx context.Context) (*Report, error) {
	body, err := c.do(ctx, opReport, http.MethodGet, reportPath, nil, reportSchema)
	if err != nil {
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &r, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, schema *gojsonschema.Schema) (body []byte, err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.UpstreamRequests.WithLabelValues(op, outcome).Inc()
		metrics.UpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if reqBody != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	slog.Debug("calling scoring service", "operation", op, "method", method, "url", req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()
	snet.PrintHTTPResponse(resp)

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", ErrTransport, op, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: resp.StatusCode, Detail: errorDetail(body)}
	}

	if err := validate(schema, body); err != nil {
		return nil, fmt.Errorf("%s response: %w", op, err)
	}
	return body, nil
}

// errorDetail extracts the "detail" or "error" text of an error body.
func errorDetail(body []byte) string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return ""
	}
	for _, k := range []string{"detail", "error", "message"} {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	return ""
}
