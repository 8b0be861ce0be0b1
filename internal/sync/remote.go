// Package sync implements the local-first synchronization engine.
package sync

import (
	"context"

	"github.com/quizpath/syncengine/internal/api"
)

// RemoteClient defines the remote operations the engine depends on.
// *api.Client satisfies it; tests substitute stubs.
type RemoteClient interface {
	// BatchSync uploads pending progress records in one exchange.
	BatchSync(ctx context.Context, req *api.BatchSyncRequest) (*api.BatchSyncResponse, error)

	// FetchContentVersion returns the latest remote content version.
	FetchContentVersion(ctx context.Context) (*api.ContentVersionInfo, error)

	// FetchQuestions returns the full ordered question set for a version.
	FetchQuestions(ctx context.Context, version string) (*api.QuestionSet, error)

	// FetchLeaderboard returns the leaderboard aggregate for a user.
	FetchLeaderboard(ctx context.Context, userID string) (*api.LeaderboardPayload, error)
}
