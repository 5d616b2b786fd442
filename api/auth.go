package api

import (
	"context"
	"net/http"

	"github.com/bizfinhq/bizfin-go/session"
)

// TokenResponse is the body returned by login, register, refresh, and the
// demo-user endpoint: the full user record plus a fresh token pair. Refresh
// rotates both tokens.
type TokenResponse struct {
	User         session.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	RefreshToken string       `json:"refresh_token"`
}

// RegisterRequest is the registration payload. The consent flags mirror what
// the signup form collects.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	BusinessName    string `json:"business_name"`
	BusinessType    string `json:"business_type,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	GDPRConsent     bool   `json:"gdpr_consent"`
	TermsAccepted   bool   `json:"terms_accepted"`
	PrivacyAccepted bool   `json:"privacy_accepted"`
}

// Login exchanges credentials for a token pair. Bad credentials come back
// as a 401 satisfying IsCredential.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp TokenResponse
	if err := c.post(ctx, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and logs it in immediately.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a rotated token pair. A 401 means
// the refresh token itself is invalid or expired, which is terminal for the
// session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var resp TokenResponse
	if err := c.post(ctx, "/auth/refresh", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the profile behind an access token. The token is passed
// explicitly because the lifecycle manager calls this outside the session
// transport.
func (c *Client) Me(ctx context.Context, accessToken string) (*session.User, error) {
	var user session.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates a refresh token server-side. The server answers 204
// even for tokens it no longer knows about.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	return c.post(ctx, "/auth/logout", body, nil)
}

// CreateDemoUser provisions the shared demo account and returns its tokens.
func (c *Client) CreateDemoUser(ctx context.Context) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/auth/create-demo-user", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
