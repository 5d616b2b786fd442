package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type SessionConfig interface {
	GetHTTPTimeout() time.Duration
	GetRefreshLeadTime() time.Duration
	GetSessionFile() string
}

type SessionVars struct{}

var _ SessionConfig = SessionVars{}

func (SessionVars) GetHTTPTimeout() time.Duration {
	return time.Duration(intEnv("HTTP_TIMEOUT_SECONDS", 30)) * time.Second
}

func (SessionVars) GetRefreshLeadTime() time.Duration {
	return time.Duration(intEnv("REFRESH_LEAD_MINUTES", 5)) * time.Minute
}

func (SessionVars) GetSessionFile() string {
	if path := os.Getenv("SESSION_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bizfin/session.json"
	}
	return filepath.Join(home, ".bizfin", "session.json")
}

func intEnv(envVar string, defaultValue int) int {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
