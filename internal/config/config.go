// Package config loads sync engine configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset.
const (
	DefaultDataDir            = "./data"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultLeaderboardWindow  = 24 * time.Hour
	DefaultBackgroundInterval = 15 * time.Minute
	DefaultLogMode            = "dev"
)

// Config holds the engine configuration.
type Config struct {
	// DataDir is the directory holding the local SQLite database.
	DataDir string

	// APIBaseURL is the base URL of the remote sync service.
	APIBaseURL string

	// APIToken is the bearer credential issued by the auth provider.
	APIToken string

	// UserID identifies the signed-in user whose progress this engine
	// syncs. Supplied by the auth provider; optional for hosts that
	// register users at runtime.
	UserID string

	// HTTPTimeout bounds every remote call. A timeout is treated as a
	// retryable connectivity failure.
	HTTPTimeout time.Duration

	// LeaderboardRefreshWindow is the rate gate for leaderboard fetches.
	LeaderboardRefreshWindow time.Duration

	// BackgroundSyncInterval is how often the scheduler runs a sync per
	// registered user.
	BackgroundSyncInterval time.Duration

	// LogMode selects the logger configuration ("dev" or "prod").
	LogMode string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	// Best effort: a missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:                  getEnv("QUIZPATH_DATA_DIR", DefaultDataDir),
		APIBaseURL:               os.Getenv("QUIZPATH_API_URL"),
		APIToken:                 os.Getenv("QUIZPATH_API_TOKEN"),
		UserID:                   os.Getenv("QUIZPATH_USER_ID"),
		HTTPTimeout:              getDuration("QUIZPATH_HTTP_TIMEOUT", DefaultHTTPTimeout),
		LeaderboardRefreshWindow: getDuration("QUIZPATH_LEADERBOARD_WINDOW", DefaultLeaderboardWindow),
		BackgroundSyncInterval:   getDuration("QUIZPATH_SYNC_INTERVAL", DefaultBackgroundInterval),
		LogMode:                  getEnv("QUIZPATH_LOG_MODE", DefaultLogMode),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("QUIZPATH_API_URL is required")
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("QUIZPATH_HTTP_TIMEOUT must be positive")
	}
	if cfg.LeaderboardRefreshWindow <= 0 {
		return nil, fmt.Errorf("QUIZPATH_LEADERBOARD_WINDOW must be positive")
	}

	return cfg, nil
}

// getEnv returns the value of key, or fallback when unset or empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration parses key as a Go duration ("30s", "24h") or as a plain
// number of seconds. Invalid values fall back to the default.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
