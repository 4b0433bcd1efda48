package dto

import "time"

// ErrorResponse is the uniform error body of the facade API.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// QuestionDTO is a question as delivered to a candidate. The correct option
// index is deliberately absent.
type QuestionDTO struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Difficulty int      `json:"difficulty"`
	Topic      string   `json:"topic,omitempty"`
	Type       string   `json:"type"`
}

// BankQuestionDTO is a question as shown to content editors, correct index
// included.
type BankQuestionDTO struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Difficulty   int      `json:"difficulty"`
	Topic        string   `json:"topic,omitempty"`
	Type         string   `json:"type"`
	Status       string   `json:"status"`
	ReviewStatus string   `json:"review_status,omitempty"`
}

// SessionStateDTO is the full observable state of an attempt session.
type SessionStateDTO struct {
	SessionID        string       `json:"session_id"`
	State            string       `json:"state"`
	AttemptID        int64        `json:"attempt_id,omitempty"`
	Candidate        string       `json:"candidate"`
	TestRef          string       `json:"test_ref"`
	AssignmentRef    string       `json:"assignment_ref,omitempty"`
	CurrentIndex     int          `json:"current_index"`
	TotalQuestions   int          `json:"total_questions"`
	RemainingSeconds int          `json:"remaining_seconds"`
	CurrentQuestion  *QuestionDTO `json:"current_question,omitempty"`
	Summary          *SummaryDTO  `json:"summary,omitempty"`
	Error            string       `json:"error,omitempty"`
}

// SummaryDTO is the finalized result of a completed session.
type SummaryDTO struct {
	AttemptID       int64      `json:"attempt_id"`
	CorrectAnswers  int        `json:"correct_answers"`
	TotalQuestions  int        `json:"total_questions"`
	Score           int        `json:"score"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	RunningAccuracy []int      `json:"running_accuracy,omitempty"`
}

// CompletionDTO reports an assignment completion to the UI.
type CompletionDTO struct {
	AssignmentID string    `json:"assignment_id"`
	Candidate    string    `json:"candidate"`
	CompletedAt  time.Time `json:"completed_at"`
	Total        int       `json:"total"`
	Correct      int       `json:"correct"`
	Score        int       `json:"score"`
}
