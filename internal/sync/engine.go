// Package sync implements the local-first synchronization engine.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quizpath/syncengine/internal/apperr"
	"github.com/quizpath/syncengine/internal/db"
	"github.com/quizpath/syncengine/internal/logging"
	"github.com/quizpath/syncengine/internal/models"
)

// RunStatus describes where a user's sync run stands.
type RunStatus string

const (
	StatusIdle      RunStatus = "idle"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Progress checkpoints reported during a run. Upload is the bulk of the
// work; the leaderboard refresh is quick or skipped entirely.
const (
	progressUploadDone = 0.7
	progressDone       = 1.0
)

// SyncRun is a snapshot of one user's most recent sync run.
type SyncRun struct {
	Status     RunStatus
	Progress   float64
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Engine orchestrates a full sync for a user: content check, progress
// upload, leaderboard refresh. At most one run per user is in flight at
// a time; concurrent requests for the same user are rejected, never
// queued. Runs for distinct users may proceed concurrently.
type Engine struct {
	content     *ContentSyncer
	progress    *ProgressSyncer
	leaderboard *Refresher
	repo        *db.Repository
	clock       Clock
	log         *logging.Logger

	mu       sync.Mutex
	inflight map[models.UUID]bool
	runs     map[models.UUID]SyncRun
	offline  bool
	handlers []EventHandler
}

// NewEngine creates a new Engine around the given components.
func NewEngine(content *ContentSyncer, progress *ProgressSyncer, leaderboard *Refresher, repo *db.Repository, clock Clock, log *logging.Logger) *Engine {
	return &Engine{
		content:     content,
		progress:    progress,
		leaderboard: leaderboard,
		repo:        repo,
		clock:       clock,
		log:         log,
		inflight:    make(map[models.UUID]bool),
		runs:        make(map[models.UUID]SyncRun),
	}
}

// RegisterHandler subscribes a handler to sync lifecycle events.
// Handlers run synchronously on the sync goroutine.
func (e *Engine) RegisterHandler(h EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// ManualSync runs a full sync for userID. If a run for the same user is
// already in flight it fails immediately with a sync-in-progress error
// and leaves the running sync untouched.
func (e *Engine) ManualSync(ctx context.Context, userID models.UUID) (res *BatchResult, err error) {
	e.mu.Lock()
	if e.inflight[userID] {
		e.mu.Unlock()
		return nil, apperr.New(apperr.CodeSyncInProgress, "sync already in progress for user")
	}
	e.inflight[userID] = true
	startedAt := e.clock.Now()
	e.runs[userID] = SyncRun{Status: StatusRunning, StartedAt: startedAt}
	e.mu.Unlock()

	// The in-flight flag must be released on every exit path,
	// including a panic escaping a sync step or a registered event
	// handler. The panic is re-raised once the flag is down.
	defer func() {
		r := recover()

		e.mu.Lock()
		run := e.runs[userID]
		run.FinishedAt = e.clock.Now()
		switch {
		case r != nil:
			run.Status = StatusFailed
			run.Err = fmt.Errorf("sync panicked: %v", r)
		case err != nil:
			run.Status = StatusFailed
			run.Err = err
		default:
			run.Status = StatusCompleted
			run.Progress = progressDone
		}
		e.runs[userID] = run
		delete(e.inflight, userID)
		e.mu.Unlock()

		if r != nil {
			panic(r)
		}
		if err != nil {
			e.log.Warn("sync failed", "user_id", userID, "error", err)
			e.emit(Event{Type: EventRunFailed, UserID: userID.String(), Err: err, At: run.FinishedAt})
			return
		}
		e.emit(Event{Type: EventRunCompleted, UserID: userID.String(), Rejected: res.Rejected, At: run.FinishedAt})
	}()

	e.emit(Event{Type: EventRunStarted, UserID: userID.String(), At: startedAt})

	res, err = e.run(ctx, userID)
	return res, err
}

// run executes the sync steps for one user. The in-flight flag is held
// by the caller for the whole call.
func (e *Engine) run(ctx context.Context, userID models.UUID) (*BatchResult, error) {
	// Content updates are opportunistic: a failed check or download
	// never blocks progress upload.
	updated, err := e.content.checkForUpdate(ctx)
	e.trackConnectivity(err)
	if err != nil {
		e.log.Debug("content check skipped", "error", err)
	} else if updated {
		if _, err := e.content.DownloadAndReplace(ctx); err != nil {
			e.trackConnectivity(err)
			e.log.Warn("content update failed, continuing sync", "error", err)
		}
	}

	res, err := e.progress.Upload(ctx, userID)
	if err != nil || res.SubmittedSessions+res.SubmittedResults > 0 {
		// An empty batch skips the network entirely and says nothing
		// about connectivity.
		e.trackConnectivity(err)
	}
	if err != nil {
		return nil, err
	}
	e.setProgress(userID, progressUploadDone)

	if res.Rejected > 0 {
		e.emit(Event{Type: EventBatchRejected, UserID: userID.String(), Rejected: res.Rejected, At: e.clock.Now()})
	}

	attempted, err := e.leaderboard.RefreshIfDue(ctx, userID)
	if attempted {
		e.trackConnectivity(err)
	}
	if err != nil {
		return res, err
	}
	e.setProgress(userID, progressDone)

	if err := e.repo.SetSettingInt64(db.LastSyncKey(userID.String()), e.clock.Now().Unix()); err != nil {
		return res, apperr.Wrap(apperr.CodeDatabase, "failed to record sync time", err)
	}
	return res, nil
}

// SyncStatus returns the state of the user's most recent sync run, or
// an idle run if the user has never synced.
func (e *Engine) SyncStatus(userID models.UUID) SyncRun {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, ok := e.runs[userID]
	if !ok {
		return SyncRun{Status: StatusIdle}
	}
	return run
}

// IsOfflineMode reports whether the engine last observed a connectivity
// failure. The flag is sticky: it clears only when a network call
// succeeds, and it never suppresses sync attempts.
func (e *Engine) IsOfflineMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offline
}

// CachedLeaderboard returns the cached leaderboard snapshot, or nil
// when none is held or the held one has expired.
func (e *Engine) CachedLeaderboard() *models.LeaderboardSnapshot {
	return e.leaderboard.GetCached()
}

// PendingCounts returns the number of records waiting to sync for a
// user, for UI badges.
func (e *Engine) PendingCounts(userID models.UUID) (sessions, results int, err error) {
	return e.repo.CountPending(userID)
}

// trackConnectivity updates offline mode from the outcome of a network
// call. A nil error from a network call means we are reachable again; a
// connectivity-classified error flips the engine offline. Other errors
// say nothing about the link and leave the flag alone.
func (e *Engine) trackConnectivity(err error) {
	e.mu.Lock()
	var transition *EventType
	switch {
	case err == nil && e.offline:
		e.offline = false
		t := EventOnlineTransition
		transition = &t
	case apperr.HasCode(err, apperr.CodeConnectivity) && !e.offline:
		e.offline = true
		t := EventOfflineTransition
		transition = &t
	}
	e.mu.Unlock()

	if transition != nil {
		e.log.Info("connectivity changed", "offline", *transition == EventOfflineTransition)
		e.emit(Event{Type: *transition, At: e.clock.Now()})
	}
}

func (e *Engine) setProgress(userID models.UUID, p float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, ok := e.runs[userID]
	if !ok {
		return
	}
	run.Progress = p
	e.runs[userID] = run
}

func (e *Engine) emit(ev Event) {
	e.mu.Lock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, h := range handlers {
		h.HandleSyncEvent(ev)
	}
}
