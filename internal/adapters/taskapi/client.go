// Package taskapi is the REST client for the task-management API.
// Requests run through a RoundTripper pipeline: request id, bearer token, unauthorized detection.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	apperrors "github.com/target/taskdesk/internal/errors"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "taskdesk"
	maxErrorBody     = 64 << 10
)

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Transport is the innermost RoundTripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Token supplies the bearer token for authenticated requests.
	Token TokenFunc
	// OnUnauthorized is called asynchronously, once per rejected token, when an
	// authenticated request gets 401. Client.Wait blocks until those calls finish.
	OnUnauthorized RejectionHandler
	Logger         *slog.Logger
}

// Client talks to the task API.
type Client struct {
	base      *url.URL
	userAgent string
	hc         *http.Client
	rejections *Rejections
	logger     *slog.Logger
}

// NewClient builds a Client and its transport pipeline. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("task api base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse task api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("task api base url must be http or https, got %q", base.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	rejections := NewRejections(cfg.OnUnauthorized)
	transport := Chain(cfg.Transport,
		RequestIDStage(),
		BearerStage(SessionTokenSource(cfg.Token)),
		rejections.Stage(),
	)

	return &Client{
		base:       base,
		userAgent:  userAgent,
		hc:         &http.Client{Timeout: timeout, Transport: transport, Jar: jar},
		rejections: rejections,
		logger:     logger.With("component", "taskapi"),
	}, nil
}

// Wait blocks until pending forced-logout callbacks have run, or ctx is done.
// Call it before the process exits so a rejected session is not left on disk.
func (c *Client) Wait(ctx context.Context) error {
	return c.rejections.Wait(ctx)
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.base.String() }

// Tasks returns the task resource client.
func (c *Client) Tasks() *TaskClient { return &TaskClient{c: c} }

// Users returns the user resource client.
func (c *Client) Users() *UserClient { return &UserClient{c: c} }

// Auth returns the authentication client.
func (c *Client) Auth() *AuthClient { return &AuthClient{c: c} }

// APIError is a non-2xx response from the task API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

type call struct {
	method string
	path   []string
	query  url.Values
	in     any
	out    any
}

func (c *Client) endpoint(segments []string, query url.Values) string {
	u := c.base.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs a JSON call. Non-2xx responses come back as *AppError wrapping *APIError.
func (c *Client) do(ctx context.Context, cl call) error {
	var body io.Reader
	if cl.in != nil {
		payload, err := json.Marshal(cl.in)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
		}
		body = bytes.NewReader(payload)
	}

	target := c.endpoint(cl.path, cl.query)
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "create task api request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "task api request failed",
			"method", cl.method, "path", req.URL.Path, "error", err)
		return apperrors.MapTransportError(err)
	}
	c.logger.DebugContext(ctx, "task api request",
		"method", cl.method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.MapHTTPStatus(resp.StatusCode, readAPIError(resp, cl.method, req.URL.Path))
	}
	return decodeBody(resp, cl.out)
}

func decodeBody(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil || resp.StatusCode == http.StatusNoContent {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "drain task api response")
		}
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeTransientIO, "decode task api response")
	}
	return nil
}

func readAPIError(resp *http.Response, method, path string) *APIError {
	defer resp.Body.Close()
	apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return apiErr
	}

	var envelope struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		apiErr.Message = envelopeMessage(envelope.Message, envelope.Error)
		if apiErr.Message != "" {
			return apiErr
		}
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}

// envelopeMessage flattens {"message": "..."} and {"message": ["...", "..."]} bodies.
func envelopeMessage(message any, fallback string) string {
	switch m := message.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return fallback
}

// StatusCode extracts the HTTP status from an error produced by this package, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
