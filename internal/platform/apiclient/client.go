// Package apiclient is the single HTTP boundary between the console and the
// practice REST API. It attaches the session token, tags every request with
// an X-Request-ID, normalizes response envelopes and turns failures into
// *Error values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/praxis/pkg/pagination"
)

const (
	RequestIDHeader = "X-Request-ID"

	AuthBearer     = "bearer"
	AuthXAuthToken = "x-auth-token"

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 10 << 20
)

// TokenSource yields the token for the current session.
type TokenSource interface {
	Token() (string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithTokenSource sets where the session token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithAuthHeader selects "bearer" (Authorization: Bearer) or "x-auth-token".
func WithAuthHeader(scheme string) Option {
	return func(c *Client) { c.authHeader = strings.ToLower(scheme) }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client talks to the practice REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	authHeader string
	logger     zerolog.Logger
}

// New creates a Client for baseURL, e.g. "https://praxis.example.org/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url scheme must be http or https, got %q", u.Scheme)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		authHeader: AuthBearer,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.authHeader != AuthBearer && c.authHeader != AuthXAuthToken {
		return nil, fmt.Errorf("unsupported auth header %q", c.authHeader)
	}
	return c, nil
}

// List fetches one page of resource.
func (c *Client) List(ctx context.Context, resource string, q pagination.Query) (*pagination.Page[map[string]any], error) {
	body, err := c.do(ctx, http.MethodGet, []string{resource}, q.Values(), nil, "", true)
	if err != nil {
		return nil, err
	}
	items, meta, err := decodeList(body, q)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: "unexpected list response", Err: err}
	}
	return &pagination.Page[map[string]any]{Items: items, Meta: meta}, nil
}

// Get fetches a single record.
func (c *Client) Get(ctx context.Context, resource, id string) (map[string]any, error) {
	return c.one(ctx, http.MethodGet, []string{resource, id}, nil)
}

// Create POSTs a new record.
func (c *Client) Create(ctx context.Context, resource string, payload any) (map[string]any, error) {
	return c.one(ctx, http.MethodPost, []string{resource}, payload)
}

// Update PUTs a record.
func (c *Client) Update(ctx context.Context, resource, id string, payload any) (map[string]any, error) {
	return c.one(ctx, http.MethodPut, []string{resource, id}, payload)
}

// Delete removes a record. The body of a successful response is ignored.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	_, err := c.do(ctx, http.MethodDelete, []string{resource, id}, nil, nil, "", true)
	return err
}

// Action POSTs to a resource-specific action endpoint such as
// /absences/:id/approve.
func (c *Client) Action(ctx context.Context, resource, id, action string, payload any) (map[string]any, error) {
	return c.one(ctx, http.MethodPost, []string{resource, id, action}, payload)
}

// FilePart is a file sent in a multipart upload.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Content     io.Reader
}

// Upload sends a multipart/form-data POST to /<resource>/upload.
func (c *Client) Upload(ctx context.Context, resource string, file FilePart, fields map[string]string) (map[string]any, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	field := file.Field
	if field == "" {
		field = "file"
	}
	part, err := w.CreateFormFile(field, file.FileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, []string{resource, "upload"}, nil, &buf, w.FormDataContentType(), true)
	if err != nil {
		return nil, err
	}
	rec, err := decodeOne(body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: "unexpected upload response", Err: err}
	}
	return rec, nil
}

// Login exchanges credentials for a session token at /auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, http.MethodPost, []string{"auth", "login"}, nil, bytes.NewReader(payload), "application/json", false)
	if err != nil {
		return "", err
	}
	rec, err := decodeOne(body)
	if err != nil {
		return "", &Error{Kind: KindUnknown, Op: "unexpected login response", Err: err}
	}
	tok, _ := rec["token"].(string)
	if tok == "" {
		return "", &Error{Kind: KindUnknown, Op: "login response carries no token"}
	}
	return tok, nil
}

func (c *Client) one(ctx context.Context, method string, segments []string, payload any) (map[string]any, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, segments, nil, body, contentType, true)
	if err != nil {
		return nil, err
	}
	rec, err := decodeOne(resp)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: "unexpected response", Err: err}
	}
	return rec, nil
}

// do performs one request and returns the raw body of a successful response.
// It never retries.
func (c *Client) do(ctx context.Context, method string, segments []string, query url.Values, body io.Reader, contentType string, authenticate bool) ([]byte, error) {
	rid := uuid.New().String()
	u := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: "build request", RequestID: rid, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, rid)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if authenticate && c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, &Error{Kind: KindAuth, Op: "not signed in", RequestID: rid, Err: err}
		}
		if c.authHeader == AuthXAuthToken {
			req.Header.Set("x-auth-token", tok)
		} else {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("request_id", rid).
			Str("method", method).
			Str("path", u.Path).
			Dur("latency", time.Since(start)).
			Msg("api request failed")
		return nil, &Error{Kind: KindNetwork, Op: "network error", RequestID: rid, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.logger.Debug().
		Str("request_id", rid).
		Str("method", method).
		Str("path", u.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request")
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Op: "read response", RequestID: rid, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failure(resp.StatusCode, data, rid)
	}

	// Some endpoints answer 200 with success:false.
	if isObject(data) {
		env, fields, ok := decodeFailure(data)
		if ok && env.Success != nil && !*env.Success {
			kind := KindServer
			if len(fields) > 0 {
				kind = KindServerValidation
			}
			return nil, &Error{Kind: kind, Status: resp.StatusCode, Message: env.message(), FieldErrors: fields, RequestID: rid}
		}
	}
	return data, nil
}

func failure(status int, body []byte, rid string) *Error {
	env, fields, ok := decodeFailure(body)
	if !ok {
		return &Error{Kind: kindForStatus(status, false), Status: status, RequestID: rid}
	}
	return &Error{
		Kind:        kindForStatus(status, len(fields) > 0),
		Status:      status,
		Message:     env.message(),
		FieldErrors: fields,
		RequestID:   rid,
	}
}
