// Package transport wraps an http.Client with session handling: it attaches
// the current bearer token and a correlation id to every request, and
// transparently recovers once from an expired token by refreshing and
// resending. Everything else - credential rejections, network failures,
// server errors - passes through untouched for the caller to handle.
package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// TokenReader supplies the current access token, or "" when no session
// exists. Reads go through the lifecycle manager so the transport can never
// drift from the store.
type TokenReader interface {
	AccessToken() string
}

// Refresher performs the single-flight session refresh and returns the new
// access token. On failure the refresher is responsible for tearing the
// session down; the transport only propagates the original 401.
type Refresher interface {
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Transport is the session-aware http.RoundTripper.
type Transport struct {
	base      http.RoundTripper
	tokens    TokenReader
	refresher Refresher
}

var _ http.RoundTripper = (*Transport)(nil)

// New creates a Transport delegating to base. A nil base uses
// http.DefaultTransport.
func New(tokens TokenReader, refresher Refresher, base http.RoundTripper) *Transport {
	return &Transport{
		base:      base,
		tokens:    tokens,
		refresher: refresher,
	}
}

func (t *Transport) roundTripper() http.RoundTripper {
	if t.base != nil {
		return t.base
	}
	return http.DefaultTransport
}

// RoundTrip sends the request with the current token attached. A 401
// response triggers exactly one refresh-then-resend; a second 401 on the
// resent request is returned as-is, never another refresh cycle.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	outgoing := t.decorate(req)

	resp, err := t.roundTripper().RoundTrip(outgoing)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if t.refresher == nil {
		return resp, nil
	}
	// A non-replayable body cannot be resent safely.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	newToken, refreshErr := t.refresher.RefreshAccessToken(req.Context())
	if refreshErr != nil {
		log.Err(refreshErr).Str("url", req.URL.Path).Msg("Session refresh failed, propagating 401")
		return resp, nil
	}

	retry := t.decorate(req)
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return resp, nil
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+newToken)

	drain(resp)
	return t.roundTripper().RoundTrip(retry)
}

// decorate clones req and attaches the bearer credential and a fresh
// correlation id. The caller's request is never mutated.
func (t *Transport) decorate(req *http.Request) *http.Request {
	out := req.Clone(req.Context())
	if token := t.tokens.AccessToken(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	out.Header.Set(RequestIDHeader, uuid.New().String())
	return out
}

// drain discards a response body so the underlying connection can be
// reused before the retry.
func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
	resp.Body.Close()
}
