// Package models provides data model definitions for the QuizPath sync engine.
package models

import "time"

// ContentVersion identifies the snapshot of the question set currently
// held locally. Exactly one row exists at a time; it is replaced in the
// same transaction that replaces the question set.
type ContentVersion struct {
	Version       string `db:"version" json:"version"`
	FetchedAt     int64  `db:"fetched_at" json:"fetched_at"`
	QuestionCount int    `db:"question_count" json:"question_count"`
}

// TableName returns the table name for ContentVersion.
func (ContentVersion) TableName() string {
	return "content_versions"
}

// FetchedAtTime returns FetchedAt as time.Time.
func (v *ContentVersion) FetchedAtTime() time.Time {
	return time.Unix(v.FetchedAt, 0)
}
