// Package apiclient wraps calls to the storefront REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Observer receives one notification per backend call.
type Observer interface {
	ObserveBackend(method, endpoint string, status int, elapsed time.Duration)
}

// Client issues requests against a configured backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	custom     bool
	timeout    time.Duration
	observer   Observer
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
			c.custom = true
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client. A
// client passed through WithHTTPClient keeps its own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && !c.custom {
		c.httpClient.Timeout = c.timeout
	}
	return c
}

// Options describes a single backend call.
type Options struct {
	Method string
	// Body is encoded as JSON when non-nil.
	Body any
	// Form is sent url-encoded when non-nil and Body is nil.
	Form  url.Values
	Query url.Values
	Token string
}

// Result is a successful backend response.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
}

// IsJSON reports whether the response declared a JSON content type.
func (r *Result) IsJSON() bool {
	return isJSONContentType(r.ContentType)
}

// Text returns the raw body.
func (r *Result) Text() string {
	return string(r.Body)
}

// Decode unmarshals a JSON body into v.
func (r *Result) Decode(v any) error {
	if !r.IsJSON() {
		return fmt.Errorf("%w: content type %q", ErrMalformedResponse, r.ContentType)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// Request performs the call and classifies failures into RequestError,
// TransportError or ErrMalformedResponse.
func (c *Client) Request(ctx context.Context, path string, opts Options) (*Result, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var body io.Reader
	contentType := "application/json"
	switch {
	case opts.Body != nil:
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	case opts.Form != nil:
		body = strings.NewReader(opts.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, 0, start)
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(method, path, resp.StatusCode, start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("backend rejected request",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return nil, &RequestError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	result := &Result{Status: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: raw}
	if result.IsJSON() && !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s %s", ErrMalformedResponse, method, path)
	}
	return result, nil
}

// JSON performs the call and decodes the JSON response into out.
func (c *Client) JSON(ctx context.Context, path string, opts Options, out any) error {
	res, err := c.Request(ctx, path, opts)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackend(method, EndpointLabel(path), status, time.Since(start))
}

// EndpointLabel collapses resource identifiers so metric labels stay bounded.
func EndpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "/"
	}
	if parts[0] != "auth" && len(parts) > 1 {
		parts[1] = "{id}"
	}
	return "/" + strings.Join(parts, "/")
}

func isJSONContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.Contains(ct, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// StatusText renders a status for logs.
func StatusText(status int) string {
	if status == 0 {
		return "transport_error"
	}
	return strconv.Itoa(status)
}
