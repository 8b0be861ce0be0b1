// Package models provides data model definitions for the QuizPath sync engine.
package models

import "time"

// QuizSession represents one unit of user quiz activity.
// A session owns zero or more QuizResult children by reference: results
// carry a SessionID back-reference, they are not embedded here.
type QuizSession struct {
	ID              UUID   `db:"id" json:"id"`
	UserID          UUID   `db:"user_id" json:"user_id"`
	Category        string `db:"category" json:"category"`
	Mode            string `db:"mode" json:"mode"`
	TotalQuestions  int    `db:"total_questions" json:"total_questions"`
	CorrectAnswers  int    `db:"correct_answers" json:"correct_answers"`
	DurationSeconds int    `db:"duration_seconds" json:"duration_seconds"`
	StartedAt       int64  `db:"started_at" json:"started_at"`
	CompletedAt     *int64 `db:"completed_at" json:"completed_at,omitempty"`

	SyncMeta
}

// TableName returns the table name for QuizSession.
func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// Completed reports whether the session has finished.
// A nil CompletedAt means the session is still in progress.
func (s *QuizSession) Completed() bool {
	return s.CompletedAt != nil
}

// Complete records the completion time and flags the session for sync.
func (s *QuizSession) Complete(now time.Time) {
	ts := now.Unix()
	s.CompletedAt = &ts
	s.MarkDirty(now)
}

// StartedAtTime returns StartedAt as time.Time.
func (s *QuizSession) StartedAtTime() time.Time {
	return time.Unix(s.StartedAt, 0)
}

// CompletedAtTime returns CompletedAt as time.Time, or the zero time
// for an in-progress session.
func (s *QuizSession) CompletedAtTime() time.Time {
	if s.CompletedAt == nil {
		return time.Time{}
	}
	return time.Unix(*s.CompletedAt, 0)
}
