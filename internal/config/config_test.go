// Package config tests for environment loading.
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUIZPATH_API_URL", "https://api.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, DefaultLeaderboardWindow, cfg.LeaderboardRefreshWindow)
	assert.Equal(t, DefaultBackgroundInterval, cfg.BackgroundSyncInterval)
	assert.Equal(t, DefaultLogMode, cfg.LogMode)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUIZPATH_API_URL", "https://api.example.com")
	t.Setenv("QUIZPATH_API_TOKEN", "secret")
	t.Setenv("QUIZPATH_DATA_DIR", "/var/lib/quizpath")
	t.Setenv("QUIZPATH_HTTP_TIMEOUT", "10s")
	t.Setenv("QUIZPATH_LEADERBOARD_WINDOW", "1h")
	t.Setenv("QUIZPATH_SYNC_INTERVAL", "300")
	t.Setenv("QUIZPATH_LOG_MODE", "prod")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.APIToken)
	assert.Equal(t, "/var/lib/quizpath", cfg.DataDir)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Hour, cfg.LeaderboardRefreshWindow)
	assert.Equal(t, 5*time.Minute, cfg.BackgroundSyncInterval, "plain seconds form")
	assert.Equal(t, "prod", cfg.LogMode)
}

func TestLoadMissingURL(t *testing.T) {
	t.Setenv("QUIZPATH_API_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUIZPATH_API_URL")
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("QUIZPATH_API_URL", "https://api.example.com")
	t.Setenv("QUIZPATH_HTTP_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
}
