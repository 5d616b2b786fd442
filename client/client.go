// Package client assembles the SDK into one disposable unit: a session
// store, the lifecycle manager, a session-aware HTTP client, and the
// resource API bound to it. Applications create exactly one Client at start
// and call Dispose on teardown; a re-initialization path must dispose the
// old instance before building a new one.
package client

import (
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/bizfinhq/bizfin-go/api"
	"github.com/bizfinhq/bizfin-go/auth"
	"github.com/bizfinhq/bizfin-go/session"
	"github.com/bizfinhq/bizfin-go/transport"
)

// Client is the assembled SDK.
//
// Session drives the lifecycle (login, refresh, logout, status); API issues
// resource requests (payments, financing, billing) through the session-aware
// HTTP client, so expired tokens are refreshed and retried transparently.
type Client struct {
	Session *auth.Manager
	API     *api.Client

	httpc *http.Client
}

// Options configure the assembly.
type Options struct {
	// HTTPTimeout bounds every request. Zero uses api.DefaultTimeout.
	HTTPTimeout time.Duration

	// ManagerOptions are passed through to the lifecycle manager
	// (lead time, clock and timer seams).
	ManagerOptions []auth.Option
}

// New wires a Client against baseURL using the given session store.
//
// The auth endpoints are called with a bare HTTP client: a login or refresh
// request must never recurse into the 401-retry interceptor. Resource
// requests go through a second client carrying the session transport.
func New(baseURL string, store session.Store, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[client.New] base URL is required")
	}
	if store == nil {
		return nil, errors.New("[client.New] session store is required")
	}

	timeout := api.DefaultTimeout
	if opts.HTTPTimeout > 0 {
		timeout = opts.HTTPTimeout
	}

	authAPI := api.New(baseURL, api.WithHTTPClient(&http.Client{Timeout: timeout}))
	manager, err := auth.NewManager(authAPI, store, opts.ManagerOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "[client.New] create session manager")
	}

	httpc := &http.Client{Timeout: timeout}
	transport.Attach(httpc, manager, manager)

	return &Client{
		Session: manager,
		API:     api.New(baseURL, api.WithHTTPClient(httpc)),
		httpc:   httpc,
	}, nil
}

// Dispose detaches the HTTP interceptor and cancels the manager's timers.
// The stored session is left intact for the next start-up to hydrate from.
func (c *Client) Dispose() {
	transport.Detach(c.httpc)
	c.Session.Dispose()
}
