// Package models provides data model definitions for the QuizPath sync engine.
package models

// Question represents one item of the bulk reference content set.
// Questions are read-only on the device: the whole set is replaced
// atomically when a newer content version is downloaded.
type Question struct {
	ID            UUID   `db:"id" json:"id"`
	Category      string `db:"category" json:"category"`
	Prompt        string `db:"prompt" json:"prompt"`
	Choices       string `db:"choices" json:"choices"` // JSON array of answer choices
	CorrectChoice int    `db:"correct_choice" json:"correct_choice"`
	Difficulty    int    `db:"difficulty" json:"difficulty"`
	Position      int    `db:"position" json:"position"` // server-defined ordering
}

// TableName returns the table name for Question.
func (Question) TableName() string {
	return "questions"
}
