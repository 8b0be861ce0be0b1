// Package sync tests for the rate-gated leaderboard refresher.
package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizpath/syncengine/internal/api"
	"github.com/quizpath/syncengine/internal/apperr"
	"github.com/quizpath/syncengine/internal/models"
)

func leaderboardPayload() *api.LeaderboardPayload {
	return &api.LeaderboardPayload{
		Entries: []api.LeaderboardEntryPayload{
			{Rank: 1, UserID: "u1", DisplayName: "Ada", Score: 980},
			{Rank: 2, UserID: "u2", DisplayName: "Grace", Score: 950},
		},
		UserRank: 2,
	}
}

func TestRefreshIfDueFetchesOncePerWindow(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	clock := newManualClock(time.Unix(1700000000, 0))
	userID := models.NewUUID()

	remote.fetchLeaderboardFn = func(ctx context.Context, uid string) (*api.LeaderboardPayload, error) {
		return leaderboardPayload(), nil
	}
	r := NewRefresher(repo, remote, clock, nopLogger(), 24*time.Hour)

	attempted, err := r.RefreshIfDue(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, attempted)

	// Within the window nothing hits the network, however often the
	// user syncs.
	clock.Advance(6 * time.Hour)
	for i := 0; i < 5; i++ {
		attempted, err = r.RefreshIfDue(context.Background(), userID)
		require.NoError(t, err)
		assert.False(t, attempted)
	}
	_, _, _, fetches := remote.calls()
	assert.Equal(t, 1, fetches)

	// Once the window elapses the next sync refreshes.
	clock.Advance(19 * time.Hour)
	attempted, err = r.RefreshIfDue(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, attempted)
	_, _, _, fetches = remote.calls()
	assert.Equal(t, 2, fetches)
}

func TestRefreshFailureKeepsSnapshotAndGate(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	clock := newManualClock(time.Unix(1700000000, 0))
	userID := models.NewUUID()

	remote.fetchLeaderboardFn = func(ctx context.Context, uid string) (*api.LeaderboardPayload, error) {
		return leaderboardPayload(), nil
	}
	r := NewRefresher(repo, remote, clock, nopLogger(), 24*time.Hour)

	_, err := r.RefreshIfDue(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, r.GetCached())

	// Next window: the fetch fails. The previous snapshot has expired
	// by then, and the failure must not overwrite the gate timestamp
	// or fabricate a snapshot.
	clock.Advance(25 * time.Hour)
	remote.fetchLeaderboardFn = func(ctx context.Context, uid string) (*api.LeaderboardPayload, error) {
		return nil, apperr.New(apperr.CodeConnectivity, "timeout")
	}

	attempted, err := r.RefreshIfDue(context.Background(), userID)
	assert.True(t, attempted)
	require.Error(t, err)
	assert.Nil(t, r.GetCached(), "expired snapshot must read as absent")

	// The gate stayed as it was, so the next sync retries immediately.
	assert.Equal(t, time.Duration(0), r.TimeUntilNextRefresh())
}

func TestGetCachedExpires(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	clock := newManualClock(time.Unix(1700000000, 0))
	userID := models.NewUUID()

	remote.fetchLeaderboardFn = func(ctx context.Context, uid string) (*api.LeaderboardPayload, error) {
		return leaderboardPayload(), nil
	}
	r := NewRefresher(repo, remote, clock, nopLogger(), 24*time.Hour)

	_, err := r.RefreshIfDue(context.Background(), userID)
	require.NoError(t, err)

	snap := r.GetCached()
	require.NotNil(t, snap)
	assert.Len(t, snap.Entries, 2)
	assert.Equal(t, 2, snap.UserRank)
	assert.Equal(t, "Ada", snap.Entries[0].DisplayName)

	clock.Advance(23 * time.Hour)
	assert.NotNil(t, r.GetCached())

	clock.Advance(2 * time.Hour)
	assert.Nil(t, r.GetCached())
}

func TestTimeUntilNextRefresh(t *testing.T) {
	repo := setupRepo(t)
	remote := newStubRemote(t)
	clock := newManualClock(time.Unix(1700000000, 0))
	userID := models.NewUUID()

	r := NewRefresher(repo, remote, clock, nopLogger(), 24*time.Hour)

	// Never fetched: due immediately.
	assert.Equal(t, time.Duration(0), r.TimeUntilNextRefresh())

	remote.fetchLeaderboardFn = func(ctx context.Context, uid string) (*api.LeaderboardPayload, error) {
		return leaderboardPayload(), nil
	}
	_, err := r.RefreshIfDue(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, r.TimeUntilNextRefresh())
	clock.Advance(10 * time.Hour)
	assert.Equal(t, 14*time.Hour, r.TimeUntilNextRefresh())
	clock.Advance(15 * time.Hour)
	assert.Equal(t, time.Duration(0), r.TimeUntilNextRefresh())
}
