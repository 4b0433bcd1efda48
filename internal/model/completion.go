package model

import "time"

// AssignmentCompletion is the authoritative "already done" record for one
// (candidate, assignment) pair. It is immutable once created; the Completion
// Guard consults it before allowing a new attempt.
type AssignmentCompletion struct {
	AssignmentID string    `json:"assignment_id"`
	Candidate    string    `json:"candidate"`
	CompletedAt  time.Time `json:"completed_at"`
	Total        int       `json:"total"`
	Correct      int       `json:"correct"`
	Score        int       `json:"score"` // 0-100, round(100*correct/total)
}
