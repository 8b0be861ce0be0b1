// Package scheduler runs periodic background syncs for registered
// users.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/quizpath/syncengine/internal/apperr"
	"github.com/quizpath/syncengine/internal/logging"
	"github.com/quizpath/syncengine/internal/models"
	syncpkg "github.com/quizpath/syncengine/internal/sync"
)

// DefaultSyncInterval is how often registered users are synced in the
// background.
const DefaultSyncInterval = 15 * time.Minute

// Syncer is the engine surface the scheduler drives.
type Syncer interface {
	ManualSync(ctx context.Context, userID models.UUID) (*syncpkg.BatchResult, error)
	IsOfflineMode() bool
}

// Scheduler periodically syncs every registered user. A tick never
// overlaps itself for one user: the engine's single-flight guard
// rejects the duplicate and the scheduler moves on.
type Scheduler struct {
	engine   Syncer
	interval time.Duration
	cron     *gocron.Scheduler
	log      *logging.Logger

	mu      sync.Mutex
	users   map[models.UUID]struct{}
	running bool
}

// New creates a new Scheduler. A non-positive interval falls back to
// DefaultSyncInterval.
func New(engine Syncer, interval time.Duration, log *logging.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Scheduler{
		engine:   engine,
		interval: interval,
		cron:     gocron.NewScheduler(time.UTC),
		log:      log,
		users:    make(map[models.UUID]struct{}),
	}
}

// RegisterUser adds a user to the background sync rotation.
func (s *Scheduler) RegisterUser(userID models.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = struct{}{}
}

// UnregisterUser removes a user from the background sync rotation.
func (s *Scheduler) UnregisterUser(userID models.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

// Start begins the periodic sync loop. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if _, err := s.cron.Every(s.interval).Do(s.syncAll); err != nil {
		return apperr.Wrap(apperr.CodeValidation, "failed to schedule background sync", err)
	}
	s.cron.StartAsync()
	s.running = true

	s.log.Info("background sync started", "interval", s.interval)
	return nil
}

// Stop halts the periodic sync loop. In-flight syncs finish on their
// own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.cron.Clear()
	s.running = false

	s.log.Info("background sync stopped")
}

// TriggerNow syncs one user immediately, outside the periodic
// rotation. It has exactly the semantics of a manual sync.
func (s *Scheduler) TriggerNow(ctx context.Context, userID models.UUID) (*syncpkg.BatchResult, error) {
	return s.engine.ManualSync(ctx, userID)
}

// syncAll runs one background sync for every registered user. Errors
// are absorbed: offline periods and in-flight manual syncs are normal,
// and the next tick retries.
func (s *Scheduler) syncAll() {
	s.mu.Lock()
	users := make([]models.UUID, 0, len(s.users))
	for uid := range s.users {
		users = append(users, uid)
	}
	s.mu.Unlock()

	if s.engine.IsOfflineMode() {
		// Still attempt: a successful call is what clears offline mode.
		s.log.Debug("background sync attempting while offline")
	}

	for _, uid := range users {
		_, err := s.engine.ManualSync(context.Background(), uid)
		switch {
		case err == nil:
		case apperr.HasCode(err, apperr.CodeSyncInProgress):
			s.log.Debug("background sync skipped, already running", "user_id", uid)
		default:
			s.log.Warn("background sync failed", "user_id", uid, "error", err)
		}
	}
}
