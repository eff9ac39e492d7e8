// Package ado is a minimal Azure DevOps REST client for user stories, test
// case work items and test suite membership.
package ado

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/logging"
)

// Defaults for the REST client.
const (
	DefaultAPIVersion          = "7.1"
	DefaultTestPlansAPIVersion = "7.1-preview.2"
	DefaultTimeout             = 30 * time.Second
	DefaultMaxRetries          = 3
	DefaultBackoff             = 500 * time.Millisecond
	defaultHost                = "https://dev.azure.com"

	contentJSON      = "application/json"
	contentJSONPatch = "application/json-patch+json"
	maxErrorBody     = 500
)

// Options configures a Client. BaseURL overrides the organization/project URL.
type Options struct {
	Org                 string
	Project             string
	PAT                 string
	BaseURL             string
	APIVersion          string
	TestPlansAPIVersion string
	Timeout             time.Duration
	MaxRetries          int
	Backoff             time.Duration
	HTTPClient          *http.Client
	Logger              *zap.Logger
}

// Client talks to one Azure DevOps project.
type Client struct {
	baseURL      string
	auth         string
	apiVersion   string
	plansVersion string
	maxRetries   int
	backoff      time.Duration
	http         *http.Client
	logger       *zap.Logger
}

// Error represents a failed Azure DevOps request.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Body       string
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ado %s %s: %s", e.Method, e.URL, e.Message)
	if e.Body != "" {
		msg += " | " + e.Body
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsConflict reports whether err says the resource already exists.
func IsConflict(err error) bool {
	var adoErr *Error
	if !errors.As(err, &adoErr) {
		return false
	}
	if adoErr.StatusCode == http.StatusConflict {
		return true
	}
	body := strings.ToLower(adoErr.Body)
	return strings.Contains(body, "already exists") || strings.Contains(body, "duplicate")
}

// NewClient validates opts and returns a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.PAT == "" {
		return nil, fmt.Errorf("personal access token is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		if opts.Org == "" || opts.Project == "" {
			return nil, fmt.Errorf("organization and project are required")
		}
		base = fmt.Sprintf("%s/%s/%s", defaultHost, url.PathEscape(opts.Org), url.PathEscape(opts.Project))
	}

	if opts.APIVersion == "" {
		opts.APIVersion = DefaultAPIVersion
	}
	if opts.TestPlansAPIVersion == "" {
		opts.TestPlansAPIVersion = DefaultTestPlansAPIVersion
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:      base,
		auth:         "Basic " + base64.StdEncoding.EncodeToString([]byte(":"+opts.PAT)),
		apiVersion:   opts.APIVersion,
		plansVersion: opts.TestPlansAPIVersion,
		maxRetries:   opts.MaxRetries,
		backoff:      opts.Backoff,
		http:         httpClient,
		logger:       logging.OrNop(opts.Logger),
	}, nil
}

// request describes one call relative to the project base URL.
type request struct {
	method      string
	path        string
	query       url.Values
	contentType string
	body        any
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// do sends req, retrying transport failures, 429 and 5xx responses with
// linear backoff, and decodes a successful JSON response into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	target := c.baseURL + "/" + strings.TrimLeft(req.path, "/")
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return &Error{Method: req.method, URL: target, Message: "failed to encode body", Cause: err}
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(attempt)
			c.logger.Debug("retrying ado request",
				zap.String("method", req.method),
				zap.String("url", target),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait))
			select {
			case <-ctx.Done():
				return &Error{Method: req.method, URL: target, Message: "request cancelled", Cause: ctx.Err()}
			case <-time.After(wait):
			}
		}

		retry, err := c.once(ctx, req, target, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, req request, target string, payload []byte, out any) (bool, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return false, &Error{Method: req.method, URL: target, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Authorization", c.auth)
	httpReq.Header.Set("Accept", contentJSON)
	if payload != nil {
		contentType := req.contentType
		if contentType == "" {
			contentType = contentJSON
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ctx.Err() == nil, &Error{Method: req.method, URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, &Error{Method: req.method, URL: target, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return retryable(resp.StatusCode), &Error{
			Method:     req.method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			Body:       strings.TrimSpace(snippet),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, &Error{Method: req.method, URL: target, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	return false, nil
}

func (c *Client) query(extra map[string]string) url.Values {
	q := url.Values{"api-version": {c.apiVersion}}
	for k, v := range extra {
		q.Set(k, v)
	}
	return q
}
