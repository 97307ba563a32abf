package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/office-admin/pkg/errors"
	"github.com/noah-isme/office-admin/pkg/middleware/requestid"
)

// GenericErrorMessage is shown when the API gives no readable reason.
const GenericErrorMessage = "An error occurred"

// TokenSource yields the bearer credential for outgoing requests. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed credential.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() string { return string(t) }

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Observer receives the timing of every upstream call.
type Observer interface {
	ObserveUpstream(method, collection string, status int, duration time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	HTTPClient     *http.Client
	Tokens         TokenSource
	OnUnauthorized func()
	Metrics        Observer
	Logger         *zap.Logger
}

// Client talks JSON to the remote REST API.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
	metrics        Observer
	logger         *zap.Logger
}

// New constructs a client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		http:           httpClient,
		tokens:         opts.Tokens,
		onUnauthorized: opts.OnUnauthorized,
		metrics:        opts.Metrics,
		logger:         logger,
	}
}

// WithSession returns a copy bound to another credential and rejection hook.
// The underlying transport is shared.
func (c *Client) WithSession(tokens TokenSource, onUnauthorized func()) *Client {
	clone := *c
	clone.tokens = tokens
	clone.onUnauthorized = onUnauthorized
	return &clone
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Do sends body as JSON to path and decodes a successful response into out.
// A 401 fires the rejection hook once and yields ErrUnauthorized.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.do(ctx, method, path, body, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, rejectHook bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	collection := collectionOf(path)
	if err != nil {
		c.observe(method, collection, 0, time.Since(start))
		c.logger.Warn("upstream unreachable", zap.String("method", method), zap.String("path", path), zap.Error(err))
		if errors.Is(err, context.Canceled) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, appErrors.ErrUpstreamUnavailable.Message)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	c.observe(method, collection, resp.StatusCode, time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "read upstream response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp.StatusCode, raw)
		c.logger.Debug("upstream rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		if resp.StatusCode == http.StatusUnauthorized && rejectHook && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, http.StatusBadGateway, "unexpected response from API")
	}
	return nil
}

func (c *Client) observe(method, collection string, status int, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveUpstream(method, collection, status, d)
	}
}

// errorFromResponse turns a non-2xx answer into a typed error whose message
// is the body's message field, then detail, then the generic text.
func errorFromResponse(status int, raw []byte) *appErrors.Error {
	msg := GenericErrorMessage
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err == nil {
		if s, ok := body["message"].(string); ok && strings.TrimSpace(s) != "" {
			msg = s
		} else if s, ok := body["detail"].(string); ok && strings.TrimSpace(s) != "" {
			msg = s
		}
	}

	var code string
	switch status {
	case http.StatusUnauthorized:
		code = appErrors.ErrUnauthorized.Code
	case http.StatusForbidden:
		code = appErrors.ErrForbidden.Code
	case http.StatusNotFound:
		code = appErrors.ErrNotFound.Code
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = appErrors.ErrValidation.Code
	case http.StatusConflict:
		code = appErrors.ErrConflict.Code
	default:
		code = appErrors.ErrUpstream.Code
	}
	return &appErrors.Error{Code: code, Status: status, Message: msg}
}

// collectionOf maps /api/admin/users/3/ to admin/users for metric labels.
func collectionOf(path string) string {
	p := strings.TrimPrefix(path, "/api/")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" || isDigits(part) {
			continue
		}
		kept = append(kept, part)
	}
	if len(kept) == 0 {
		return "root"
	}
	return strings.Join(kept, "/")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func itemPath(collection string, id int64) string {
	return fmt.Sprintf("/api/%s/%d/", collection, id)
}

func listPath(collection string) string {
	return "/api/" + collection + "/"
}
