package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bizfinhq/bizfin-go/internal/config"
)

func TestSessionConfigDefaults(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "")
	t.Setenv("REFRESH_LEAD_MINUTES", "")
	t.Setenv("SESSION_FILE", "")

	c := config.New()

	require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	require.Equal(t, 5*time.Minute, c.GetRefreshLeadTime())
	require.Contains(t, c.GetSessionFile(), "session.json")
}

func TestSessionConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("REFRESH_LEAD_MINUTES", "2")
	t.Setenv("SESSION_FILE", "/tmp/bizfin-test/session.json")

	c := config.New()
	require.Equal(t, 5*time.Second, c.GetHTTPTimeout())
	require.Equal(t, 2*time.Minute, c.GetRefreshLeadTime())
	require.Equal(t, "/tmp/bizfin-test/session.json", c.GetSessionFile())
}

func TestSessionConfigRejectsBadValues(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "soon")
	t.Setenv("REFRESH_LEAD_MINUTES", "-3")

	c := config.New()
	require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	require.Equal(t, 5*time.Minute, c.GetRefreshLeadTime())
}
