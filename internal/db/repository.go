// Package db provides the local record store for the sync engine.
package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/quizpath/syncengine/internal/models"
)

// Repository provides CRUD operations for all engine models.
// The sync engine issues no queries beyond what is exposed here; in
// particular the only pending-record query is "all records for user X
// with needs_sync = 1".
type Repository struct {
	db *sql.DB

	// Prepared statement cache for frequently used queries.
	// Statements are prepared on first use and cached for reuse.
	stmtCache sync.Map // map[string]*sql.Stmt
}

// NewRepository creates a new Repository instance.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// PrepareStmt gets or creates a prepared statement from the cache.
func (r *Repository) PrepareStmt(query string) (*sql.Stmt, error) {
	if stmt, ok := r.stmtCache.Load(query); ok {
		return stmt.(*sql.Stmt), nil
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	actual, loaded := r.stmtCache.LoadOrStore(query, stmt)
	if loaded {
		// Another goroutine already prepared this, close our duplicate.
		stmt.Close()
		return actual.(*sql.Stmt), nil
	}
	return stmt, nil
}

// Close closes all cached prepared statements.
func (r *Repository) Close() error {
	var firstErr error
	r.stmtCache.Range(func(key, value interface{}) bool {
		stmt := value.(*sql.Stmt)
		if err := stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// =====================================================
// QuizSession Operations
// =====================================================

const sessionColumns = `id, user_id, category, mode, total_questions, correct_answers,
	duration_seconds, started_at, completed_at, needs_sync, last_modified, synced_at`

// CreateSession inserts a new quiz session. A missing ID is generated;
// the session starts flagged for sync.
func (r *Repository) CreateSession(s *models.QuizSession) error {
	if s.ID == "" {
		s.ID = models.NewUUID()
	}
	if s.LastModified == 0 {
		s.LastModified = time.Now().Unix()
	}
	s.NeedsSync = true

	query := `
	INSERT INTO quiz_sessions (` + sessionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, s.ID, s.UserID, s.Category, s.Mode,
		s.TotalQuestions, s.CorrectAnswers, s.DurationSeconds,
		s.StartedAt, s.CompletedAt, s.NeedsSync, s.LastModified, s.SyncedAt)
	return err
}

// GetSession retrieves a session by ID.
func (r *Repository) GetSession(id models.UUID) (*models.QuizSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM quiz_sessions WHERE id = ?`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	return scanSession(stmt.QueryRow(id))
}

// UpdateSession updates a session's activity fields and flags it for
// sync. Called by the application layer on every mutation.
func (r *Repository) UpdateSession(s *models.QuizSession, now time.Time) error {
	s.MarkDirty(now)
	query := `
	UPDATE quiz_sessions
	SET category = ?, mode = ?, total_questions = ?, correct_answers = ?,
		duration_seconds = ?, completed_at = ?, needs_sync = 1, last_modified = ?
	WHERE id = ?
	`
	result, err := r.db.Exec(query, s.Category, s.Mode, s.TotalQuestions,
		s.CorrectAnswers, s.DurationSeconds, s.CompletedAt, s.LastModified, s.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("session not found: %s", s.ID)
	}
	return nil
}

// ListPendingSessions returns every session for the user with
// unacknowledged changes, ordered oldest-modified first with the id as
// tie-break. The order is the batch submission order and must stay
// stable across retries.
func (r *Repository) ListPendingSessions(userID models.UUID) ([]*models.QuizSession, error) {
	query := `
	SELECT ` + sessionColumns + `
	FROM quiz_sessions
	WHERE user_id = ? AND needs_sync = 1
	ORDER BY last_modified ASC, id ASC
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.QuizSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// =====================================================
// QuizResult Operations
// =====================================================

const resultColumns = `id, user_id, question_id, session_id, answer, correct,
	time_spent_seconds, answered_at, needs_sync, last_modified, synced_at`

// CreateResult inserts a new quiz result. Results are immutable after
// creation except for sync-state fields.
func (r *Repository) CreateResult(res *models.QuizResult) error {
	if res.ID == "" {
		res.ID = models.NewUUID()
	}
	if res.LastModified == 0 {
		res.LastModified = time.Now().Unix()
	}
	res.NeedsSync = true

	query := `
	INSERT INTO quiz_results (` + resultColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, res.ID, res.UserID, res.QuestionID, res.SessionID,
		res.Answer, res.Correct, res.TimeSpentSeconds, res.AnsweredAt,
		res.NeedsSync, res.LastModified, res.SyncedAt)
	return err
}

// GetResult retrieves a result by ID.
func (r *Repository) GetResult(id models.UUID) (*models.QuizResult, error) {
	query := `SELECT ` + resultColumns + ` FROM quiz_results WHERE id = ?`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}
	return scanResult(stmt.QueryRow(id))
}

// ListPendingResults returns every result for the user with
// unacknowledged changes, in batch submission order.
func (r *Repository) ListPendingResults(userID models.UUID) ([]*models.QuizResult, error) {
	query := `
	SELECT ` + resultColumns + `
	FROM quiz_results
	WHERE user_id = ? AND needs_sync = 1
	ORDER BY last_modified ASC, id ASC
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.QuizResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// =====================================================
// Sync State Operations
// =====================================================

// MarkSynced clears the dirty flag for every listed id in one
// transaction: either all listed ids are marked or none are. Re-marking
// an already-synced id is a no-op, so acknowledged batches can be
// replayed safely after an interrupted run.
func (r *Repository) MarkSynced(sessionIDs, resultIDs []models.UUID, syncedAt time.Time) error {
	if len(sessionIDs) == 0 && len(resultIDs) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The needs_sync guard makes re-marking an already-synced id a
	// no-op, so its original synced_at is preserved on replay.
	ts := syncedAt.Unix()
	for _, id := range sessionIDs {
		if _, err := tx.Exec(
			`UPDATE quiz_sessions SET needs_sync = 0, synced_at = ? WHERE id = ? AND needs_sync = 1`,
			ts, id); err != nil {
			return fmt.Errorf("failed to mark session %s synced: %w", id, err)
		}
	}
	for _, id := range resultIDs {
		if _, err := tx.Exec(
			`UPDATE quiz_results SET needs_sync = 0, synced_at = ? WHERE id = ? AND needs_sync = 1`,
			ts, id); err != nil {
			return fmt.Errorf("failed to mark result %s synced: %w", id, err)
		}
	}

	return tx.Commit()
}

// MarkSessionForSync flags a session dirty and refreshes its
// modification time. Called by the application layer, not the engine.
func (r *Repository) MarkSessionForSync(id models.UUID, now time.Time) error {
	return r.markForSync("quiz_sessions", id, now)
}

// MarkResultForSync flags a result dirty and refreshes its modification
// time.
func (r *Repository) MarkResultForSync(id models.UUID, now time.Time) error {
	return r.markForSync("quiz_results", id, now)
}

func (r *Repository) markForSync(table string, id models.UUID, now time.Time) error {
	query := fmt.Sprintf(
		`UPDATE %s SET needs_sync = 1, last_modified = ? WHERE id = ?`, table)
	result, err := r.db.Exec(query, now.Unix(), id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("record not found in %s: %s", table, id)
	}
	return nil
}

// CountPending returns the number of pending sessions and results for
// the user. Used for UI badges; reads observe either the pre- or
// post-mutation state, never a torn one.
func (r *Repository) CountPending(userID models.UUID) (sessions int, results int, err error) {
	err = r.db.QueryRow(
		`SELECT COUNT(*) FROM quiz_sessions WHERE user_id = ? AND needs_sync = 1`,
		userID).Scan(&sessions)
	if err != nil {
		return 0, 0, err
	}
	err = r.db.QueryRow(
		`SELECT COUNT(*) FROM quiz_results WHERE user_id = ? AND needs_sync = 1`,
		userID).Scan(&results)
	if err != nil {
		return 0, 0, err
	}
	return sessions, results, nil
}

// =====================================================
// Question / ContentVersion Operations
// =====================================================

// CountQuestions returns the number of locally held questions.
func (r *Repository) CountQuestions() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count)
	return count, err
}

// GetQuestion retrieves a question by ID.
func (r *Repository) GetQuestion(id models.UUID) (*models.Question, error) {
	query := `
	SELECT id, category, prompt, choices, correct_choice, difficulty, position
	FROM questions WHERE id = ?
	`
	stmt, err := r.PrepareStmt(query)
	if err != nil {
		return nil, err
	}

	var q models.Question
	err = stmt.QueryRow(id).Scan(&q.ID, &q.Category, &q.Prompt, &q.Choices,
		&q.CorrectChoice, &q.Difficulty, &q.Position)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestions returns questions in server order, optionally filtered
// by category.
func (r *Repository) ListQuestions(category string) ([]*models.Question, error) {
	baseQuery := `
	SELECT id, category, prompt, choices, correct_choice, difficulty, position
	FROM questions
	`
	var query string
	var args []interface{}
	if category != "" {
		query = baseQuery + ` WHERE category = ? ORDER BY position ASC`
		args = []interface{}{category}
	} else {
		query = baseQuery + ` ORDER BY position ASC`
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		var q models.Question
		err := rows.Scan(&q.ID, &q.Category, &q.Prompt, &q.Choices,
			&q.CorrectChoice, &q.Difficulty, &q.Position)
		if err != nil {
			return nil, err
		}
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return questions, nil
}

// ReplaceQuestions atomically swaps the full question set and the
// content version record: delete all, insert the new set, upsert the
// version row, all in one transaction. On any failure the previous set
// and version remain fully intact.
func (r *Repository) ReplaceQuestions(questions []*models.Question, version *models.ContentVersion) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM questions`); err != nil {
		return fmt.Errorf("failed to clear questions: %w", err)
	}

	insert, err := tx.Prepare(`
	INSERT INTO questions (id, category, prompt, choices, correct_choice, difficulty, position)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for _, q := range questions {
		if _, err := insert.Exec(q.ID, q.Category, q.Prompt, q.Choices,
			q.CorrectChoice, q.Difficulty, q.Position); err != nil {
			return fmt.Errorf("failed to insert question %s: %w", q.ID, err)
		}
	}

	if _, err := tx.Exec(`
	INSERT INTO content_versions (id, version, fetched_at, question_count)
	VALUES (1, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		version = excluded.version,
		fetched_at = excluded.fetched_at,
		question_count = excluded.question_count
	`, version.Version, version.FetchedAt, version.QuestionCount); err != nil {
		return fmt.Errorf("failed to persist content version: %w", err)
	}

	return tx.Commit()
}

// GetContentVersion returns the locally held content version, or nil if
// no content has ever been downloaded.
func (r *Repository) GetContentVersion() (*models.ContentVersion, error) {
	var v models.ContentVersion
	err := r.db.QueryRow(
		`SELECT version, fetched_at, question_count FROM content_versions WHERE id = 1`,
	).Scan(&v.Version, &v.FetchedAt, &v.QuestionCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// =====================================================
// Row Scanning
// =====================================================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.QuizSession, error) {
	var s models.QuizSession
	var completedAt, syncedAt sql.NullInt64
	err := row.Scan(&s.ID, &s.UserID, &s.Category, &s.Mode,
		&s.TotalQuestions, &s.CorrectAnswers, &s.DurationSeconds,
		&s.StartedAt, &completedAt, &s.NeedsSync, &s.LastModified, &syncedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Int64
	}
	if syncedAt.Valid {
		s.SyncedAt = &syncedAt.Int64
	}
	return &s, nil
}

func scanResult(row rowScanner) (*models.QuizResult, error) {
	var res models.QuizResult
	var syncedAt sql.NullInt64
	err := row.Scan(&res.ID, &res.UserID, &res.QuestionID, &res.SessionID,
		&res.Answer, &res.Correct, &res.TimeSpentSeconds, &res.AnsweredAt,
		&res.NeedsSync, &res.LastModified, &syncedAt)
	if err != nil {
		return nil, err
	}
	if syncedAt.Valid {
		res.SyncedAt = &syncedAt.Int64
	}
	return &res, nil
}
