// Package client is the Go SDK for the PatentCliff HTTP API.
//
//	c, err := client.NewClient("http://localhost:8080", client.WithTimeout(time.Minute))
//	out, err := c.Consolidate(ctx, &client.Request{Records: records})
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/PatentCliff/internal/application/consolidation"
	"github.com/turtacn/PatentCliff/internal/application/reporting"
	"github.com/turtacn/PatentCliff/internal/domain/cliff"
	domainCons "github.com/turtacn/PatentCliff/internal/domain/consolidation"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

const Version = "0.1.0"

// ErrInvalidConfig is returned by NewClient for an unusable base URL.
var ErrInvalidConfig = stderrors.New("patentcliff: invalid client configuration")

// Wire types shared with the server.
type (
	Request        = consolidation.Request
	RequestOptions = consolidation.RequestOptions
	Output         = domainCons.Output
	Run            = domainCons.Run
	CliffResult    = cliff.Result
	ReportFormat   = reporting.Format
)

const (
	ReportMarkdown = reporting.FormatMarkdown
	ReportHTML     = reporting.FormatHTML
)

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client talks to one PatentCliff API server.  It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// APIError is a non-2xx answer decoded from the server's {code,message} body.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("patentcliff: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

// ErrorCode returns the server's error code.
func (e *APIError) ErrorCode() errors.ErrorCode {
	return errors.ErrorCode(e.Code)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsValidation() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// ListRunsResponse is the body of GET /api/v1/consolidations.
type ListRunsResponse struct {
	Runs  []*Run `json:"runs"`
	Limit int    `json:"limit"`
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrInvalidConfig
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid baseURL: %v", ErrInvalidConfig, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: baseURL scheme must be http or https", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		userAgent:    fmt.Sprintf("patentcliff-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// ─────────────────────────────────────────────────────────────────────────────
// API
// ─────────────────────────────────────────────────────────────────────────────

// Consolidate posts records for consolidation and returns the full output.
func (c *Client) Consolidate(ctx context.Context, req *Request) (*Output, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidConfig)
	}
	var out Output
	if err := c.post(ctx, "/api/v1/consolidations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cliff posts records for a cliff-only analysis.
func (c *Client) Cliff(ctx context.Context, req *Request) (*CliffResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidConfig)
	}
	var res CliffResult
	if err := c.post(ctx, "/api/v1/cliff", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetRun fetches the summary of one persisted run.
func (c *Client) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty run id", ErrInvalidConfig)
	}
	var run Run
	if err := c.get(ctx, "/api/v1/consolidations/"+url.PathEscape(id), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs.  limit <= 0 uses the server default.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	path := "/api/v1/consolidations"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp ListRunsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

// Report downloads the rendered report of a run.
func (c *Client) Report(ctx context.Context, id string, format ReportFormat) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty run id", ErrInvalidConfig)
	}
	q := url.Values{}
	if format != "" {
		q.Set("format", string(format))
	}
	path := "/api/v1/consolidations/" + url.PathEscape(id) + "/report"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, "*/*")
}

// ─────────────────────────────────────────────────────────────────────────────
// Transport
// ─────────────────────────────────────────────────────────────────────────────

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = b
	}
	respBody, err := c.do(ctx, method, path, payload, "application/json")
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// do performs an HTTP request with retry on network errors, 5xx and 429.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, accept string) ([]byte, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var (
		lastErr error
		wait    time.Duration
	)
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			if wait == 0 {
				wait = c.calculateBackoff(attempt)
			}
			c.logger.Debugf("Retry attempt %d after %v", attempt, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			wait = 0
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		requestID := uuid.New().String()
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Errorf("Request failed: %v", err)
			lastErr = err
			continue
		}
		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, time.Since(start))

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode < 400 {
			return respBody, nil
		}

		apiErr := decodeAPIError(resp, respBody, requestID)
		lastErr = apiErr
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if d, ok := retryAfter(resp.Header.Get("Retry-After")); ok {
				c.logger.Infof("Rate limited, retrying after %v", d)
				wait = d
			}
		case apiErr.IsServerError():
		default:
			return nil, apiErr
		}
	}
	return nil, lastErr
}

func decodeAPIError(resp *http.Response, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: requestID}
	if id := resp.Header.Get("X-Request-ID"); id != "" {
		apiErr.RequestID = id
	}
	if len(body) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
		apiErr.Code = errResp.Code
		apiErr.Message = errResp.Message
	} else {
		apiErr.Message = string(body)
	}
	return apiErr
}

func retryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	// up to 25% jitter
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}

//Personal.AI order the ending
