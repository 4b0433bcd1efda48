package model

import "time"

// Attempt is one candidate's run through a timed question set. The backend
// assigns the ID when the attempt starts; FinishedAt stays nil until the
// attempt is finalized, after which the record is immutable.
type Attempt struct {
	ID             int64         `json:"id"`
	Candidate      string        `json:"candidate"`
	AssignmentRef  string        `json:"assignment_ref,omitempty"`
	TestRef        string        `json:"test_ref"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     *time.Time    `json:"finished_at,omitempty"`
	TotalQuestions int           `json:"total_questions"`
	Score          *int          `json:"score,omitempty"`
	Items          []AttemptItem `json:"items,omitempty"`
}

// AttemptItem is one recorded answer within an attempt. Items are append-only:
// once recorded they are never mutated, and going back then re-answering
// records a second item for the same question.
type AttemptItem struct {
	QuestionID  string       `json:"question_id"`
	Topic       string       `json:"topic,omitempty"`
	Difficulty  int          `json:"difficulty,omitempty"`
	Type        QuestionType `json:"type,omitempty"`
	Correct     bool         `json:"correct"`
	TimeSpentMs int64        `json:"time_spent_ms"`
	AnsweredAt  time.Time    `json:"answered_at"`
}

// AttemptSummary is the finalized result the backend returns from /submit.
type AttemptSummary struct {
	AttemptID      int64      `json:"attempt_id"`
	CorrectAnswers int        `json:"correct_answers"`
	TotalQuestions int        `json:"total_questions"`
	Score          int        `json:"score"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Sequence       []bool     `json:"sequence,omitempty"`
}
