// Package models provides data model definitions for the QuizPath sync engine.
package models

import "time"

// QuizResult represents one graded attempt at a single question.
// Results are created once and never mutated afterwards, except for
// the embedded sync-state fields.
type QuizResult struct {
	ID               UUID   `db:"id" json:"id"`
	UserID           UUID   `db:"user_id" json:"user_id"`
	QuestionID       UUID   `db:"question_id" json:"question_id"`
	SessionID        UUID   `db:"session_id" json:"session_id"`
	Answer           string `db:"answer" json:"answer"`
	Correct          bool   `db:"correct" json:"correct"`
	TimeSpentSeconds int    `db:"time_spent_seconds" json:"time_spent_seconds"`
	AnsweredAt       int64  `db:"answered_at" json:"answered_at"`

	SyncMeta
}

// TableName returns the table name for QuizResult.
func (QuizResult) TableName() string {
	return "quiz_results"
}

// AnsweredAtTime returns AnsweredAt as time.Time.
func (r *QuizResult) AnsweredAtTime() time.Time {
	return time.Unix(r.AnsweredAt, 0)
}
