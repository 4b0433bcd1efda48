package model

// QuestionType enumerates how a question is answered.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeFreeText       QuestionType = "free_text"
)

// QuestionStatus enumerates a question's lifecycle in the content system.
type QuestionStatus string

const (
	QuestionStatusDraft     QuestionStatus = "draft"
	QuestionStatusPublished QuestionStatus = "published"
	QuestionStatusArchived  QuestionStatus = "archived"
)

// Question is a question-bank entry as served by the assessment backend.
// The engine only delivers published multiple-choice questions; the content
// system owns everything else about them.
type Question struct {
	ID           string         `json:"id"`
	Text         string         `json:"text"`
	Options      []string       `json:"options,omitempty"`
	CorrectIndex int            `json:"correct_index"`
	Difficulty   int            `json:"difficulty"` // 1-5
	Topic        string         `json:"topic,omitempty"`
	Type         QuestionType   `json:"type"`
	Status       QuestionStatus `json:"status"`
	ReviewStatus string         `json:"review_status,omitempty"`
}

// IsDeliverable reports whether the question may be handed to a candidate.
func (q Question) IsDeliverable() bool {
	return q.Status == QuestionStatusPublished && q.Type == QuestionTypeMultipleChoice
}
