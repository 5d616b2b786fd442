package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ErrNoExpiryClaim is returned when an access token carries no exp claim.
// A session can never be stored without a derivable expiry.
var ErrNoExpiryClaim = errors.New("access token has no expiry claim")

// User is the cached profile returned by the dashboard API. Only the fields
// the dashboard renders are kept; everything else the server sends is dropped.
type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	BusinessName       string     `json:"business_name"`
	BusinessType       string     `json:"business_type,omitempty"`
	PhoneNumber        string     `json:"phone_number,omitempty"`
	SubscriptionTier   string     `json:"subscription_tier,omitempty"`
	SubscriptionStatus string     `json:"subscription_status,omitempty"`
	Currency           string     `json:"currency,omitempty"`
	IsActive           bool       `json:"is_active"`
	IsVerified         bool       `json:"is_verified"`
	IsPremium          bool       `json:"is_premium"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
}

// FullName returns the display name used by the dashboard header.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Session holds the authenticated state for a single user: the token pair,
// the cached profile, and the access token's expiry. The Store owns the
// canonical copy; everything else reads it through the lifecycle manager.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         User
	ExpiresAt    time.Time
}

// New builds a Session from a freshly issued token pair, deriving ExpiresAt
// from the access token's exp claim. The token is not verified here - the
// client has no signing key and does not need one to read the expiry.
func New(accessToken, refreshToken string, user User) (Session, error) {
	expiresAt, err := ExpiryFromToken(accessToken)
	if err != nil {
		return Session{}, errors.Wrap(err, "[session.New] failed to derive expiry")
	}
	return Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		ExpiresAt:    expiresAt,
	}, nil
}

// Empty reports whether the session holds no credentials.
func (s Session) Empty() bool {
	return s.AccessToken == ""
}

// HasUser reports whether a profile has been cached for this session.
func (s Session) HasUser() bool {
	return s.User.ID != ""
}

// Expired reports whether the access token has passed its expiry at the
// given instant.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// ExpiryFromToken extracts the exp claim from a raw JWT without verifying
// the signature.
func ExpiryFromToken(rawToken string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[ExpiryFromToken] parse")
	}
	expiry, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, errors.Wrap(err, "[ExpiryFromToken] exp claim")
	}
	if expiry == nil {
		return time.Time{}, ErrNoExpiryClaim
	}
	return expiry.Time, nil
}
