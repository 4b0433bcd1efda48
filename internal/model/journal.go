package model

import "time"

// JournalItem is the local (sqlite) copy of a recorded AttemptItem. The
// journal is write-behind only: analytics falls back to it when the backend
// record fetch fails, and nothing reads it back into session state.
type JournalItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	AttemptID   int64     `gorm:"index" json:"attempt_id"`
	Candidate   string    `gorm:"index" json:"candidate"`
	QuestionID  string    `json:"question_id"`
	Topic       string    `json:"topic"`
	Difficulty  int       `json:"difficulty"`
	Correct     bool      `json:"correct"`
	TimeSpentMs int64     `json:"time_spent_ms"`
	AnsweredAt  time.Time `json:"answered_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// JournalCompletion is the local copy of a finalized attempt result.
type JournalCompletion struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	AttemptID    int64     `gorm:"index" json:"attempt_id"`
	AssignmentID string    `gorm:"index" json:"assignment_id"`
	Candidate    string    `gorm:"index" json:"candidate"`
	Total        int       `json:"total"`
	Correct      int       `json:"correct"`
	Score        int       `json:"score"`
	CompletedAt  time.Time `json:"completed_at"`
	CreatedAt    time.Time `json:"created_at"`
}
