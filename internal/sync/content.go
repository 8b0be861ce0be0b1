// Package sync implements the local-first synchronization engine.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/quizpath/syncengine/internal/apperr"
	"github.com/quizpath/syncengine/internal/db"
	"github.com/quizpath/syncengine/internal/logging"
	"github.com/quizpath/syncengine/internal/models"
)

// backgroundFailureWarnThreshold is the number of consecutive
// background refresh failures after which a warning is logged.
const backgroundFailureWarnThreshold = 3

// ContentSyncer keeps the local question set aligned with the remote
// content version. The question set is immutable between updates and
// replaced wholesale; an interrupted or failed update never leaves a
// partially updated set behind.
type ContentSyncer struct {
	repo   *db.Repository
	remote RemoteClient
	clock  Clock
	log    *logging.Logger

	mu       sync.Mutex
	failures int // consecutive background refresh failures
}

// NewContentSyncer creates a new ContentSyncer.
func NewContentSyncer(repo *db.Repository, remote RemoteClient, clock Clock, log *logging.Logger) *ContentSyncer {
	return &ContentSyncer{
		repo:   repo,
		remote: remote,
		clock:  clock,
		log:    log,
	}
}

// CheckForUpdate reports whether a newer content version is available
// remotely. Any failure to reach or read the remote answers false:
// content updates are opportunistic, never blocking.
func (c *ContentSyncer) CheckForUpdate(ctx context.Context) bool {
	updated, err := c.checkForUpdate(ctx)
	if err != nil {
		c.log.Debug("content version check failed", "error", err)
		return false
	}
	return updated
}

// checkForUpdate is CheckForUpdate with the underlying error exposed,
// so the orchestrator can track connectivity.
func (c *ContentSyncer) checkForUpdate(ctx context.Context) (bool, error) {
	info, err := c.remote.FetchContentVersion(ctx)
	if err != nil {
		return false, err
	}

	local, err := c.repo.GetContentVersion()
	if err != nil {
		return false, apperr.Wrap(apperr.CodeDatabase, "failed to read local content version", err)
	}
	if local == nil {
		return true, nil
	}
	return CompareVersions(info.Version, local.Version) != 0, nil
}

// DownloadAndReplace fetches the full remote question set and installs
// it in a single transaction, replacing the previous set and version
// row together. It returns the number of questions installed. On
// failure the previous set and version remain fully intact.
func (c *ContentSyncer) DownloadAndReplace(ctx context.Context) (int, error) {
	info, err := c.remote.FetchContentVersion(ctx)
	if err != nil {
		return 0, err
	}

	set, err := c.remote.FetchQuestions(ctx, info.Version)
	if err != nil {
		return 0, err
	}

	questions := make([]*models.Question, 0, len(set.Questions))
	for i, q := range set.Questions {
		choices, err := json.Marshal(q.Choices)
		if err != nil {
			return 0, apperr.Wrap(apperr.CodeValidation,
				fmt.Sprintf("question %s has unencodable choices", q.ID), err)
		}
		questions = append(questions, &models.Question{
			ID:            models.UUID(q.ID),
			Category:      q.Category,
			Prompt:        q.Prompt,
			Choices:       string(choices),
			CorrectChoice: q.CorrectChoice,
			Difficulty:    q.Difficulty,
			Position:      i,
		})
	}

	version := &models.ContentVersion{
		Version:       set.Version,
		FetchedAt:     c.clock.Now().Unix(),
		QuestionCount: len(questions),
	}

	if err := c.repo.ReplaceQuestions(questions, version); err != nil {
		return 0, apperr.Wrap(apperr.CodeDatabase, "failed to install content update", err)
	}

	c.log.Info("content updated",
		"version", set.Version,
		"questions", len(questions))
	return len(questions), nil
}

// InitialLoad readies local content at startup. With no local content
// the first download is blocking and its failure is surfaced: the
// application cannot function without a question set. With content
// already present any update proceeds in the background and failures
// are absorbed.
func (c *ContentSyncer) InitialLoad(ctx context.Context) error {
	count, err := c.repo.CountQuestions()
	if err != nil {
		return apperr.Wrap(apperr.CodeDatabase, "failed to count local questions", err)
	}

	if count == 0 {
		if _, err := c.DownloadAndReplace(ctx); err != nil {
			return apperr.Wrap(apperr.CodeExhaustion,
				"no local content and initial download failed", err)
		}
		return nil
	}

	go c.refreshInBackground(ctx)
	return nil
}

// refreshInBackground checks for and installs a content update,
// absorbing failures. Repeated consecutive failures escalate to a
// warning so a persistently broken content endpoint is visible.
func (c *ContentSyncer) refreshInBackground(ctx context.Context) {
	updated, err := c.checkForUpdate(ctx)
	if err == nil && updated {
		_, err = c.DownloadAndReplace(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.failures++
		if c.failures >= backgroundFailureWarnThreshold {
			c.log.Warn("background content refresh failing repeatedly",
				"consecutive_failures", c.failures,
				"error", err)
		} else {
			c.log.Debug("background content refresh failed", "error", err)
		}
		return
	}
	c.failures = 0
}
