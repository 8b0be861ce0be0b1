// Package sync implements the local-first synchronization engine.
package sync

import (
	"context"

	"github.com/quizpath/syncengine/internal/api"
	"github.com/quizpath/syncengine/internal/apperr"
	"github.com/quizpath/syncengine/internal/db"
	"github.com/quizpath/syncengine/internal/logging"
	"github.com/quizpath/syncengine/internal/models"
)

// BatchResult summarizes one progress upload.
type BatchResult struct {
	SubmittedSessions int
	SubmittedResults  int
	SyncedSessions    int
	SyncedResults     int

	// Rejected counts records the server refused from the tail of the
	// batch. They remain pending locally and are retried on the next
	// upload. Conflict losers are not in this count: the server resolves
	// those authoritatively and includes them in the synced counts.
	Rejected int

	// Skipped counts malformed records left out of the batch entirely.
	Skipped int

	SyncedAt int64
}

// ProgressSyncer uploads locally recorded quiz progress to the remote
// system of record. Records are submitted in deterministic store order
// and acknowledged by count: the server accepting k sessions means the
// first k submitted sessions are synced, and the rest stay pending.
type ProgressSyncer struct {
	repo   *db.Repository
	remote RemoteClient
	clock  Clock
	log    *logging.Logger
}

// NewProgressSyncer creates a new ProgressSyncer.
func NewProgressSyncer(repo *db.Repository, remote RemoteClient, clock Clock, log *logging.Logger) *ProgressSyncer {
	return &ProgressSyncer{
		repo:   repo,
		remote: remote,
		clock:  clock,
		log:    log,
	}
}

// Upload sends every pending record for userID in one batch. With
// nothing pending it returns a zero result without touching the
// network. A transport failure leaves every record pending; no record
// is ever marked synced without a server acknowledgement covering it.
func (p *ProgressSyncer) Upload(ctx context.Context, userID models.UUID) (*BatchResult, error) {
	sessions, err := p.repo.ListPendingSessions(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed to list pending sessions", err)
	}
	results, err := p.repo.ListPendingResults(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed to list pending results", err)
	}

	res := &BatchResult{}

	if len(sessions) == 0 && len(results) == 0 {
		return res, nil
	}

	req := &api.BatchSyncRequest{
		Sessions: make([]api.SessionPayload, 0, len(sessions)),
		Results:  make([]api.ResultPayload, 0, len(results)),
	}

	// Submission order is the store order; the server's count-based
	// acknowledgement maps back onto these slices.
	submittedSessions := make([]models.UUID, 0, len(sessions))
	for _, s := range sessions {
		if s.ID == "" || s.UserID == "" {
			p.log.Warn("skipping malformed pending session", "id", s.ID)
			res.Skipped++
			continue
		}
		req.Sessions = append(req.Sessions, sessionPayload(s))
		submittedSessions = append(submittedSessions, s.ID)
	}

	submittedResults := make([]models.UUID, 0, len(results))
	for _, r := range results {
		if r.ID == "" || r.UserID == "" || r.SessionID == "" {
			p.log.Warn("skipping malformed pending result", "id", r.ID)
			res.Skipped++
			continue
		}
		req.Results = append(req.Results, resultPayload(r))
		submittedResults = append(submittedResults, r.ID)
	}

	res.SubmittedSessions = len(submittedSessions)
	res.SubmittedResults = len(submittedResults)

	if res.SubmittedSessions == 0 && res.SubmittedResults == 0 {
		return res, nil
	}

	if last, ok, err := p.repo.GetSettingInt64(db.LastSyncKey(userID.String())); err != nil {
		p.log.Warn("failed to read last sync time", "error", err)
	} else if ok {
		req.LastSyncAt = &last
	}

	resp, err := p.remote.BatchSync(ctx, req)
	if err != nil {
		return nil, err
	}

	syncedSessions := submittedSessions[:clamp(resp.SyncedSessions, len(submittedSessions))]
	syncedResults := submittedResults[:clamp(resp.SyncedResults, len(submittedResults))]

	syncedAt := p.clock.Now()
	if err := p.repo.MarkSynced(syncedSessions, syncedResults, syncedAt); err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed to mark records synced", err)
	}

	res.SyncedSessions = len(syncedSessions)
	res.SyncedResults = len(syncedResults)
	res.Rejected = resp.FailedSessions + resp.FailedResults
	res.SyncedAt = syncedAt.Unix()

	if res.Rejected > 0 {
		// The unacknowledged tail stays pending and retries next run.
		p.log.Info("server rejected part of the batch",
			"user_id", userID,
			"failed_sessions", resp.FailedSessions,
			"failed_results", resp.FailedResults)
	}

	p.log.Info("progress uploaded",
		"user_id", userID,
		"synced_sessions", res.SyncedSessions,
		"synced_results", res.SyncedResults)
	return res, nil
}

func sessionPayload(s *models.QuizSession) api.SessionPayload {
	return api.SessionPayload{
		ID:              s.ID.String(),
		UserID:          s.UserID.String(),
		Category:        s.Category,
		Mode:            s.Mode,
		TotalQuestions:  s.TotalQuestions,
		CorrectAnswers:  s.CorrectAnswers,
		DurationSeconds: s.DurationSeconds,
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
	}
}

func resultPayload(r *models.QuizResult) api.ResultPayload {
	return api.ResultPayload{
		ID:               r.ID.String(),
		UserID:           r.UserID.String(),
		QuestionID:       r.QuestionID.String(),
		SessionID:        r.SessionID.String(),
		Answer:           r.Answer,
		Correct:          r.Correct,
		TimeSpentSeconds: r.TimeSpentSeconds,
		AnsweredAt:       r.AnsweredAt,
	}
}

// clamp bounds a server-reported count to what was actually submitted.
func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
