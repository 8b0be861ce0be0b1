// Package sync test doubles shared across the engine tests.
package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/quizpath/syncengine/internal/api"
	"github.com/quizpath/syncengine/internal/db"
	"github.com/quizpath/syncengine/internal/logging"
	"github.com/quizpath/syncengine/internal/models"
)

// manualClock is a Clock whose time only moves when a test advances it.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubRemote is a RemoteClient backed by per-call function hooks. Nil
// hooks fail the test if called; call counts are always recorded.
type stubRemote struct {
	mu sync.Mutex
	t  *testing.T

	batchSyncFn        func(ctx context.Context, req *api.BatchSyncRequest) (*api.BatchSyncResponse, error)
	fetchVersionFn     func(ctx context.Context) (*api.ContentVersionInfo, error)
	fetchQuestionsFn   func(ctx context.Context, version string) (*api.QuestionSet, error)
	fetchLeaderboardFn func(ctx context.Context, userID string) (*api.LeaderboardPayload, error)

	batchSyncCalls        int
	fetchVersionCalls     int
	fetchQuestionsCalls   int
	fetchLeaderboardCalls int
}

func newStubRemote(t *testing.T) *stubRemote {
	return &stubRemote{t: t}
}

func (s *stubRemote) BatchSync(ctx context.Context, req *api.BatchSyncRequest) (*api.BatchSyncResponse, error) {
	s.mu.Lock()
	s.batchSyncCalls++
	fn := s.batchSyncFn
	s.mu.Unlock()

	if fn == nil {
		s.t.Fatal("unexpected BatchSync call")
	}
	return fn(ctx, req)
}

func (s *stubRemote) FetchContentVersion(ctx context.Context) (*api.ContentVersionInfo, error) {
	s.mu.Lock()
	s.fetchVersionCalls++
	fn := s.fetchVersionFn
	s.mu.Unlock()

	if fn == nil {
		s.t.Fatal("unexpected FetchContentVersion call")
	}
	return fn(ctx)
}

func (s *stubRemote) FetchQuestions(ctx context.Context, version string) (*api.QuestionSet, error) {
	s.mu.Lock()
	s.fetchQuestionsCalls++
	fn := s.fetchQuestionsFn
	s.mu.Unlock()

	if fn == nil {
		s.t.Fatal("unexpected FetchQuestions call")
	}
	return fn(ctx, version)
}

func (s *stubRemote) FetchLeaderboard(ctx context.Context, userID string) (*api.LeaderboardPayload, error) {
	s.mu.Lock()
	s.fetchLeaderboardCalls++
	fn := s.fetchLeaderboardFn
	s.mu.Unlock()

	if fn == nil {
		s.t.Fatal("unexpected FetchLeaderboard call")
	}
	return fn(ctx, userID)
}

func (s *stubRemote) calls() (batch, version, questions, leaderboard int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchSyncCalls, s.fetchVersionCalls, s.fetchQuestionsCalls, s.fetchLeaderboardCalls
}

// setupRepo creates a fresh on-disk SQLite database for one test.
func setupRepo(t *testing.T) *db.Repository {
	t.Helper()

	database, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}

	repo := db.NewRepository(database.DB)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func pendingSession(userID models.UUID, lastModified int64) *models.QuizSession {
	completed := lastModified
	return &models.QuizSession{
		ID:             models.NewUUID(),
		UserID:         userID,
		Category:       "history",
		Mode:           "practice",
		TotalQuestions: 10,
		CorrectAnswers: 8,
		StartedAt:      lastModified - 120,
		CompletedAt:    &completed,
		SyncMeta: models.SyncMeta{
			NeedsSync:    true,
			LastModified: lastModified,
		},
	}
}

func pendingResult(userID, sessionID models.UUID, lastModified int64) *models.QuizResult {
	return &models.QuizResult{
		ID:         models.NewUUID(),
		UserID:     userID,
		QuestionID: models.NewUUID(),
		SessionID:  sessionID,
		Answer:     "B",
		Correct:    true,
		AnsweredAt: lastModified,
		SyncMeta: models.SyncMeta{
			NeedsSync:    true,
			LastModified: lastModified,
		},
	}
}

func nopLogger() *logging.Logger {
	return logging.NewNop()
}
