// Package sync implements the local-first synchronization engine.
package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/quizpath/syncengine/internal/apperr"
	"github.com/quizpath/syncengine/internal/db"
	"github.com/quizpath/syncengine/internal/logging"
	"github.com/quizpath/syncengine/internal/models"
)

// DefaultLeaderboardWindow is the minimum interval between leaderboard
// fetches.
const DefaultLeaderboardWindow = 24 * time.Hour

// Refresher maintains the cached leaderboard snapshot behind a
// persistent rate gate. The last-fetch timestamp survives restarts and
// is stored independently of the snapshot, so clearing the cache never
// re-opens the gate.
type Refresher struct {
	repo   *db.Repository
	remote RemoteClient
	clock  Clock
	log    *logging.Logger
	window time.Duration
}

// NewRefresher creates a new Refresher. A non-positive window falls
// back to DefaultLeaderboardWindow.
func NewRefresher(repo *db.Repository, remote RemoteClient, clock Clock, log *logging.Logger, window time.Duration) *Refresher {
	if window <= 0 {
		window = DefaultLeaderboardWindow
	}
	return &Refresher{
		repo:   repo,
		remote: remote,
		clock:  clock,
		log:    log,
		window: window,
	}
}

// RefreshIfDue fetches a fresh leaderboard snapshot when the rate gate
// allows it. It reports whether a fetch was attempted. A failed fetch
// leaves the previous snapshot and the gate timestamp untouched, so a
// flapping remote cannot cause a fetch storm: the next attempt waits
// for the next due sync, not the next window.
func (r *Refresher) RefreshIfDue(ctx context.Context, userID models.UUID) (bool, error) {
	if r.TimeUntilNextRefresh() > 0 {
		return false, nil
	}

	payload, err := r.remote.FetchLeaderboard(ctx, userID.String())
	if err != nil {
		return true, err
	}

	now := r.clock.Now()
	snapshot := &models.LeaderboardSnapshot{
		Entries:   make([]models.LeaderboardEntry, 0, len(payload.Entries)),
		UserRank:  payload.UserRank,
		FetchedAt: now.Unix(),
		ExpiresAt: now.Add(r.window).Unix(),
	}
	for _, e := range payload.Entries {
		snapshot.Entries = append(snapshot.Entries, models.LeaderboardEntry{
			Rank:        e.Rank,
			UserID:      models.UUID(e.UserID),
			DisplayName: e.DisplayName,
			Score:       e.Score,
		})
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return true, apperr.Wrap(apperr.CodeValidation, "failed to encode leaderboard snapshot", err)
	}
	if err := r.repo.SetSetting(db.SettingLeaderboardSnapshot, string(data)); err != nil {
		return true, apperr.Wrap(apperr.CodeDatabase, "failed to store leaderboard snapshot", err)
	}
	if err := r.repo.SetSettingInt64(db.SettingLeaderboardLastFetch, now.Unix()); err != nil {
		return true, apperr.Wrap(apperr.CodeDatabase, "failed to store leaderboard fetch time", err)
	}

	r.log.Info("leaderboard refreshed",
		"entries", len(snapshot.Entries),
		"user_rank", snapshot.UserRank)
	return true, nil
}

// GetCached returns the cached snapshot, or nil when none exists or the
// cached one has aged past the refresh window.
func (r *Refresher) GetCached() *models.LeaderboardSnapshot {
	raw, ok, err := r.repo.GetSetting(db.SettingLeaderboardSnapshot)
	if err != nil {
		r.log.Warn("failed to read leaderboard snapshot", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var snapshot models.LeaderboardSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		r.log.Warn("discarding unreadable leaderboard snapshot", "error", err)
		return nil
	}
	if snapshot.Expired(r.clock.Now()) {
		return nil
	}
	return &snapshot
}

// TimeUntilNextRefresh returns how long until the rate gate opens.
// Zero means a refresh is due now.
func (r *Refresher) TimeUntilNextRefresh() time.Duration {
	lastFetch, ok, err := r.repo.GetSettingInt64(db.SettingLeaderboardLastFetch)
	if err != nil {
		r.log.Warn("failed to read leaderboard fetch time", "error", err)
		return 0
	}
	if !ok {
		return 0
	}

	remaining := time.Unix(lastFetch, 0).Add(r.window).Sub(r.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
