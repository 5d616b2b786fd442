// Package api binds the dashboard's REST endpoints. It owns request/response
// plumbing and the error taxonomy; session state lives in the auth package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds every request made with the default HTTP client.
// A timed-out call fails as a network error, not a 401, so it never
// triggers a token refresh.
const DefaultTimeout = 30 * time.Second

// Client issues requests against a single base URL. Auth endpoints are
// called with a bare HTTP client; resource endpoints are expected to be
// called through a client carrying the session transport.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. The session transport is
// attached to this client by the caller, not here.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// New creates a client for the given base URL, e.g.
// "https://api.example.com/api/v1".
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: DefaultTimeout}
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, "", out)
}

// do sends one request and decodes the response. bearer, when non-empty, is
// attached explicitly; the auth endpoints need this because they run outside
// the session transport.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, bearer string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[api.do] marshal %s %s", method, path)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return errors.Wrapf(err, "[api.do] build %s %s", method, path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "[api.do] %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "[api.do] decode %s %s", method, path)
	}
	return nil
}

// decodeError turns a non-2xx response into an *Error, pulling the FastAPI
// style {"detail": ...} message out of the body when present.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Detail == nil {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		// Validation errors arrive as structured detail; keep it raw.
		detail = string(payload.Detail)
	}
	apiErr.Detail = detail
	return apiErr
}
