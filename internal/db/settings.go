// Package db provides the local record store for the sync engine.
package db

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Settings keys used by the engine. The leaderboard gate timestamp is
// stored separately from the snapshot so clearing the snapshot never
// resets the rate gate.
const (
	SettingLeaderboardSnapshot  = "leaderboard.snapshot"
	SettingLeaderboardLastFetch = "leaderboard.last_fetch"

	// Per-user last successful sync time: settingLastSyncPrefix + userID.
	settingLastSyncPrefix = "sync.last_success."
)

// LastSyncKey returns the settings key holding the last successful sync
// time for a user.
func LastSyncKey(userID string) string {
	return settingLastSyncPrefix + userID
}

// GetSetting returns the value for key. The second return value is
// false when the key is absent.
func (r *Repository) GetSetting(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(
		`SELECT value FROM engine_settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting stores value under key, replacing any existing value.
func (r *Repository) SetSetting(key, value string) error {
	_, err := r.db.Exec(`
	INSERT INTO engine_settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// DeleteSetting removes key. Deleting an absent key is not an error.
func (r *Repository) DeleteSetting(key string) error {
	_, err := r.db.Exec(`DELETE FROM engine_settings WHERE key = ?`, key)
	return err
}

// GetSettingInt64 returns the value for key parsed as int64.
func (r *Repository) GetSettingInt64(key string) (int64, bool, error) {
	value, ok, err := r.GetSetting(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("setting %s is not an integer: %w", key, err)
	}
	return n, true, nil
}

// SetSettingInt64 stores an int64 value under key.
func (r *Repository) SetSettingInt64(key string, value int64) error {
	return r.SetSetting(key, strconv.FormatInt(value, 10))
}
