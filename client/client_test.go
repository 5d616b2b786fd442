package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/bizfinhq/bizfin-go/api"
	"github.com/bizfinhq/bizfin-go/auth"
	"github.com/bizfinhq/bizfin-go/client"
	"github.com/bizfinhq/bizfin-go/session"
	"github.com/bizfinhq/bizfin-go/session/storefake"
)

// dashboardBackend is a minimal stand-in for the real API: it issues token
// pairs, remembers which access token is currently valid, and serves one
// resource endpoint that enforces it.
type dashboardBackend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	issued       int

	refreshCalls     atomic.Int32
	transactionCalls atomic.Int32
	logoutCalls      atomic.Int32
}

func (b *dashboardBackend) issue(t *testing.T) api.TokenResponse {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	b.validAccess = signedToken(t, time.Now().Add(10*time.Minute))
	b.validRefresh = "refresh-" + string(rune('0'+b.issued))
	return api.TokenResponse{
		User:         session.User{ID: "user-1", Email: "owner@acme.test"},
		AccessToken:  b.validAccess,
		TokenType:    "bearer",
		RefreshToken: b.validRefresh,
	}
}

// expireAccessToken simulates the access token aging out server-side while
// the refresh token stays good.
func (b *dashboardBackend) expireAccessToken() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = ""
}

func (b *dashboardBackend) revokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess = ""
	b.validRefresh = ""
}

func (b *dashboardBackend) currentAccess() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.validAccess
}

func (b *dashboardBackend) authorized(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.validAccess != "" && r.Header.Get("Authorization") == "Bearer "+b.validAccess
}

func (b *dashboardBackend) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(b.issue(t))
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		valid := b.validRefresh != "" && body.RefreshToken == b.validRefresh
		b.mu.Unlock()
		if !valid {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid refresh token"})
			return
		}
		_ = json.NewEncoder(w).Encode(b.issue(t))
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logoutCalls.Add(1)
		b.revokeAll()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/payments/transactions", func(w http.ResponseWriter, r *http.Request) {
		b.transactionCalls.Add(1)
		if !b.authorized(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.TransactionPage{
			Transactions: []api.Transaction{{ID: "txn-1", Amount: 125.50, Status: "completed"}},
			TotalCount:   1,
			Page:         1,
			Limit:        10,
			TotalPages:   1,
		})
	})
	return mux
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	raw, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return raw
}

func TestSessionLifecycleEndToEnd(t *testing.T) {
	backend := &dashboardBackend{}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	store := storefake.NewFakeStore()
	c, err := client.New(server.URL, store, client.Options{})
	require.NoError(t, err)
	defer c.Dispose()

	ctx := context.Background()

	// Login populates the store and the resource client works off it.
	sess, err := c.Session.Login(ctx, "owner@acme.test", "secret")
	require.NoError(t, err)
	require.Equal(t, sess.AccessToken, store.Get().AccessToken)
	require.Equal(t, auth.StatusAuthenticated, c.Session.Status())

	page, err := c.API.Transactions(ctx, api.TransactionListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	require.Equal(t, int32(1), backend.transactionCalls.Load())

	// The server stops honoring the access token; the next request refreshes
	// once behind the scenes and succeeds.
	backend.expireAccessToken()

	page, err = c.API.Transactions(ctx, api.TransactionListOptions{})
	require.NoError(t, err)
	require.Equal(t, "txn-1", page.Transactions[0].ID)
	require.Equal(t, int32(1), backend.refreshCalls.Load())
	require.Equal(t, int32(3), backend.transactionCalls.Load(), "one rejected attempt, one retry")

	// The rotated pair landed in the store.
	require.Equal(t, store.Get().AccessToken, backend.currentAccess())
	require.Equal(t, auth.StatusAuthenticated, c.Session.Status())

	// Logout clears the store; the resource call is rejected and the dead
	// refresh token cannot resurrect the session.
	require.NoError(t, c.Session.Logout(ctx))
	require.True(t, store.Get().Empty())
	require.Equal(t, int32(1), backend.logoutCalls.Load())
	require.Equal(t, auth.StatusIdle, c.Session.Status())

	_, err = c.API.Transactions(ctx, api.TransactionListOptions{})
	require.Error(t, err)
	require.True(t, api.IsUnauthorized(err))
	require.Equal(t, int32(1), backend.refreshCalls.Load(), "no session means no refresh attempt")
}

func TestClientNewValidation(t *testing.T) {
	_, err := client.New("", storefake.NewFakeStore(), client.Options{})
	require.Error(t, err)

	_, err = client.New("http://localhost:8000/api/v1", nil, client.Options{})
	require.Error(t, err)
}

func TestDisposeDetachesInterceptor(t *testing.T) {
	backend := &dashboardBackend{}
	server := httptest.NewServer(backend.handler(t))
	defer server.Close()

	store := storefake.NewFakeStore()
	c, err := client.New(server.URL, store, client.Options{})
	require.NoError(t, err)

	_, err = c.Session.Login(context.Background(), "owner@acme.test", "secret")
	require.NoError(t, err)

	c.Dispose()

	// A disposed client keeps the stored session for the next start-up.
	require.False(t, store.Get().Empty())
	_, err = c.Session.Refresh(context.Background())
	require.ErrorIs(t, err, auth.ErrDisposed)
}
