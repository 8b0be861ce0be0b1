// Package models provides data model definitions for the QuizPath sync engine.
package models

import "time"

// LeaderboardEntry is one ranked row of the leaderboard aggregate.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      UUID   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

// LeaderboardSnapshot is the cached leaderboard aggregate. At most one
// snapshot is held; it is read-only aside from wholesale replacement.
type LeaderboardSnapshot struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UserRank  int                `json:"user_rank"`
	FetchedAt int64              `json:"fetched_at"`
	ExpiresAt int64              `json:"expires_at"`
}

// Expired reports whether the snapshot should be treated as absent.
func (s *LeaderboardSnapshot) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// FetchedAtTime returns FetchedAt as time.Time.
func (s *LeaderboardSnapshot) FetchedAtTime() time.Time {
	return time.Unix(s.FetchedAt, 0)
}
