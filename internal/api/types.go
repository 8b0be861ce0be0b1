// Package api provides the HTTP client for the remote sync service.
package api

// SessionPayload is the wire form of one quiz session in a batch
// upload.
type SessionPayload struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	Category        string `json:"category"`
	Mode            string `json:"mode"`
	TotalQuestions  int    `json:"totalQuestions"`
	CorrectAnswers  int    `json:"correctAnswers"`
	DurationSeconds int    `json:"durationSeconds"`
	StartedAt       int64  `json:"startedAt"`
	CompletedAt     *int64 `json:"completedAt,omitempty"`
}

// ResultPayload is the wire form of one quiz result in a batch upload.
type ResultPayload struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	QuestionID       string `json:"questionId"`
	SessionID        string `json:"sessionId"`
	Answer           string `json:"answer"`
	Correct          bool   `json:"correct"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	AnsweredAt       int64  `json:"answeredAt"`
}

// BatchSyncRequest uploads all pending records for one user in a
// single exchange. Sessions and results are listed in submission order;
// the server's count-based acknowledgement refers to that order.
type BatchSyncRequest struct {
	Sessions []SessionPayload `json:"sessions"`
	Results  []ResultPayload  `json:"results"`

	// LastSyncAt is the client's last successful sync time, or null on
	// first sync. A server-side delta hint only.
	LastSyncAt *int64 `json:"lastSyncAt"`
}

// BatchSyncResponse is the server's acknowledgement. SyncedSessions and
// SyncedResults count the first N records of the request, in submission
// order, that the server accepted or resolved authoritatively. Failed
// counts cover the unacknowledged tail; those records stay pending on
// the client.
type BatchSyncResponse struct {
	SyncedSessions int   `json:"syncedSessions"`
	SyncedResults  int   `json:"syncedResults"`
	FailedSessions int   `json:"failedSessions"`
	FailedResults  int   `json:"failedResults"`
	SyncedAt       int64 `json:"syncedAt"`
}

// ContentVersionInfo describes the latest content snapshot available
// remotely.
type ContentVersionInfo struct {
	Version        string   `json:"version"`
	LastUpdated    int64    `json:"lastUpdated"`
	TotalQuestions int      `json:"totalQuestions"`
	Categories     []string `json:"categories"`
}

// QuestionPayload is the wire form of one content item.
type QuestionPayload struct {
	ID            string   `json:"id"`
	Category      string   `json:"category"`
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"`
	CorrectChoice int      `json:"correctChoice"`
	Difficulty    int      `json:"difficulty"`
}

// QuestionSet is the full ordered item set for one content version.
type QuestionSet struct {
	Version   string            `json:"version"`
	Questions []QuestionPayload `json:"questions"`
}

// LeaderboardEntryPayload is one ranked row of the remote leaderboard.
type LeaderboardEntryPayload struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// LeaderboardPayload is the remote leaderboard aggregate plus the
// requesting user's own rank.
type LeaderboardPayload struct {
	Entries  []LeaderboardEntryPayload `json:"entries"`
	UserRank int                       `json:"userRank"`
}
