// Package remote is the HTTP client of the algorithms API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wagnerlima/algolab/internal/models"
)

var tracer = otel.Tracer("algolab/remote")

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the API (e.g. "http://localhost:8000").
	BaseURL string

	// HTTPClient is an optional custom HTTP client. If nil, a client with
	// Timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual requests. Defaults to 30 seconds.
	Timeout time.Duration
}

// Client talks to the algorithms API. All methods are safe for concurrent
// use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid BaseURL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// ListAlgorithms fetches the catalog: GET /algorithms.
func (c *Client) ListAlgorithms(ctx context.Context) ([]models.Algorithm, error) {
	var resp models.AlgorithmList
	if err := c.get(ctx, "/algorithms", &resp); err != nil {
		return nil, err
	}
	return resp.Algorithms, nil
}

// GetAlgorithmDetails fetches one algorithm: GET /algorithms/{name}.
func (c *Client) GetAlgorithmDetails(ctx context.Context, name string) (*models.AlgorithmDetails, error) {
	var resp models.AlgorithmDetails
	if err := c.get(ctx, "/algorithms/"+url.PathEscape(name), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunAlgorithm executes an algorithm remotely: POST /algorithms/{name}.
func (c *Client) RunAlgorithm(ctx context.Context, name string, params models.DataValueList) (*models.AlgorithmResponse, error) {
	if params.Parameters == nil {
		params.Parameters = []models.DataValue{}
	}
	var resp models.AlgorithmResponse
	if err := c.post(ctx, "/algorithms/"+url.PathEscape(name), params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OpenScript starts downloading the script of an algorithm:
// GET /algorithms/{name}/download. The caller must close the body.
func (c *Client) OpenScript(ctx context.Context, name string) (io.ReadCloser, error) {
	ctx, span := startSpan(ctx, "remote.OpenScript", "/algorithms/"+name+"/download")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/algorithms/"+url.PathEscape(name)+"/download", nil)
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		endSpan(span, err)
		return nil, fmt.Errorf("remote: %s %s: %w", req.Method, req.URL.Path, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		err := parseErrorResponse(resp.StatusCode, body)
		endSpan(span, err)
		return nil, err
	}
	return resp.Body, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// errorEnvelope is the API's error body; the message sits in "errors".
type errorEnvelope struct {
	Errors *string `json:"errors"`
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("remote: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("remote: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("remote: create request: %w", err)
	}

	return c.doRequest(req, dest)
}

func (c *Client) doRequest(req *http.Request, dest any) (err error) {
	ctx, span := startSpan(req.Context(), "remote."+req.Method, req.URL.Path)
	defer func() {
		endSpan(span, err)
		span.End()
	}()
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return handleResponse(resp, dest)
}

func handleResponse(resp *http.Response, dest any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("remote: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}
	if resp.StatusCode == http.StatusNoContent || dest == nil {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, dest); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Errors != nil && *envelope.Errors != "" {
		apiErr.Message = *envelope.Errors
	} else if len(bytes.TrimSpace(body)) > 0 {
		apiErr.Message = string(bytes.TrimSpace(body))
	} else {
		apiErr.Message = http.StatusText(statusCode)
	}

	return apiErr
}

func startSpan(ctx context.Context, name, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", path)),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
