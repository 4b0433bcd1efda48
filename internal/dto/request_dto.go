package dto

import "time"

// --- Wire DTOs for the assessment backend (consumed endpoints) ---

// StartAttemptRequest is the POST /start payload.
type StartAttemptRequest struct {
	TestID          string   `json:"testId"`
	Topics          []string `json:"topics,omitempty"`
	Limit           int      `json:"limit,omitempty"`
	DurationSeconds int      `json:"durationSeconds,omitempty"`
}

// RecordAnswerRequest is the POST /answer payload.
type RecordAnswerRequest struct {
	AttemptID   int64     `json:"attemptId"`
	QuestionID  string    `json:"questionId"`
	Correct     bool      `json:"correct"`
	TimeSpentMs int64     `json:"timeSpentMs"`
	AnsweredAt  time.Time `json:"answeredAt"`
	Topic       string    `json:"topic,omitempty"`
	Difficulty  int       `json:"difficulty,omitempty"`
	Type        string    `json:"type,omitempty"`
}

// FinalizeAttemptRequest is the POST /submit payload.
type FinalizeAttemptRequest struct {
	AttemptID int64 `json:"attemptId"`
}

// --- Facade DTOs (what assessment UIs send this service) ---

// StartSessionRequest starts a new attempt session for a candidate.
type StartSessionRequest struct {
	Candidate       string   `json:"candidate" binding:"required"`
	TestRef         string   `json:"test_ref" binding:"required"`
	AssignmentRef   string   `json:"assignment_ref"`
	QuestionIDs     []string `json:"question_ids"`
	Limit           int      `json:"limit" binding:"omitempty,min=1"`
	DurationSeconds int      `json:"duration_seconds" binding:"omitempty,min=5,max=3600"`
}

// AnswerRequest submits the candidate's answer for the current question.
// Exactly one of SelectedIndex or FreeText is expected; a missing selection
// still records the item (e.g. the timer expired with nothing chosen).
type AnswerRequest struct {
	SelectedIndex *int   `json:"selected_index"`
	FreeText      string `json:"free_text"`
}

// CreateQuestionRequest adds a question to the bank through the optimistic
// store.
type CreateQuestionRequest struct {
	Text         string   `json:"text" binding:"required"`
	Options      []string `json:"options" binding:"required,min=2"`
	CorrectIndex int      `json:"correct_index" binding:"min=0"`
	Difficulty   int      `json:"difficulty" binding:"omitempty,min=1,max=5"`
	Topic        string   `json:"topic"`
	Type         string   `json:"type" binding:"omitempty,oneof=multiple_choice free_text"`
}

// ReviewStatusRequest changes a question's review status.
type ReviewStatusRequest struct {
	ReviewStatus string `json:"review_status" binding:"required,oneof=pending approved rejected"`
}
