package service

import (
	"context"
	"sync"

	"github.com/examgate/examgate/internal/dto"
	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/repository"
)

type fakeQuestionRepo struct {
	findAllFn func(filter repository.QuestionFilter) ([]model.Question, error)
	createFn  func(q *model.Question) (*model.Question, error)
	deleteFn  func(id string) error
	reviewFn  func(id, status string) error

	mu           sync.Mutex
	findAllCalls int
}

func (f *fakeQuestionRepo) FindAll(_ context.Context, filter repository.QuestionFilter) ([]model.Question, error) {
	f.mu.Lock()
	f.findAllCalls++
	f.mu.Unlock()
	if f.findAllFn == nil {
		return nil, nil
	}
	return f.findAllFn(filter)
}

func (f *fakeQuestionRepo) Create(_ context.Context, q *model.Question) (*model.Question, error) {
	if f.createFn == nil {
		return q, nil
	}
	return f.createFn(q)
}

func (f *fakeQuestionRepo) Delete(_ context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(id)
}

func (f *fakeQuestionRepo) UpdateReviewStatus(_ context.Context, id, status string) error {
	if f.reviewFn == nil {
		return nil
	}
	return f.reviewFn(id, status)
}

type fakeAttemptRepo struct {
	startFn    func(req dto.StartAttemptRequest) (int64, error)
	recordFn   func(req dto.RecordAnswerRequest) error
	finalizeFn func(attemptID int64) (*model.AttemptSummary, error)
	findMineFn func() ([]model.Attempt, error)
	itemsFn    func(attemptID int64) ([]model.AttemptItem, error)

	mu       sync.Mutex
	startN   int
	recorded []dto.RecordAnswerRequest
}

func (f *fakeAttemptRepo) Start(_ context.Context, req dto.StartAttemptRequest) (int64, error) {
	f.mu.Lock()
	f.startN++
	f.mu.Unlock()
	if f.startFn == nil {
		return 1, nil
	}
	return f.startFn(req)
}

func (f *fakeAttemptRepo) RecordAnswer(_ context.Context, req dto.RecordAnswerRequest) error {
	if f.recordFn != nil {
		if err := f.recordFn(req); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.recorded = append(f.recorded, req)
	f.mu.Unlock()
	return nil
}

func (f *fakeAttemptRepo) Finalize(_ context.Context, attemptID int64) (*model.AttemptSummary, error) {
	if f.finalizeFn != nil {
		return f.finalizeFn(attemptID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	correct := 0
	for _, r := range f.recorded {
		if r.Correct {
			correct++
		}
	}
	total := len(f.recorded)
	return &model.AttemptSummary{
		AttemptID:      attemptID,
		CorrectAnswers: correct,
		TotalQuestions: total,
		Score:          ScorePercent(correct, total),
	}, nil
}

func (f *fakeAttemptRepo) FindMine(_ context.Context) ([]model.Attempt, error) {
	if f.findMineFn == nil {
		return nil, nil
	}
	return f.findMineFn()
}

func (f *fakeAttemptRepo) Summary(_ context.Context, attemptID int64) (*model.AttemptSummary, error) {
	return f.Finalize(context.Background(), attemptID)
}

func (f *fakeAttemptRepo) Items(_ context.Context, attemptID int64, _, _ int) ([]model.AttemptItem, error) {
	if f.itemsFn == nil {
		return nil, nil
	}
	return f.itemsFn(attemptID)
}

func (f *fakeAttemptRepo) startCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startN
}

func (f *fakeAttemptRepo) recordedReqs() []dto.RecordAnswerRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dto.RecordAnswerRequest, len(f.recorded))
	copy(out, f.recorded)
	return out
}

type fakeCompletionRepo struct {
	byAssignmentFn func(assignmentID string) (*model.AssignmentCompletion, error)
	allMineFn      func() ([]model.AssignmentCompletion, error)
}

func (f *fakeCompletionRepo) FindByAssignment(_ context.Context, assignmentID string) (*model.AssignmentCompletion, error) {
	if f.byAssignmentFn == nil {
		return nil, nil
	}
	return f.byAssignmentFn(assignmentID)
}

func (f *fakeCompletionRepo) FindAllMine(_ context.Context) ([]model.AssignmentCompletion, error) {
	if f.allMineFn == nil {
		return nil, nil
	}
	return f.allMineFn()
}

// fakeJournal is an in-memory stand-in for the sqlite journal.
type fakeJournal struct {
	mu          sync.Mutex
	items       []model.JournalItem
	completions []model.JournalCompletion
	appendErr   error
}

func (f *fakeJournal) AppendItem(item *model.JournalItem) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeJournal) RecordCompletion(completion *model.JournalCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, *completion)
	return nil
}

func (f *fakeJournal) FindItems(candidate, topic string, difficulty int) ([]model.JournalItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.JournalItem
	for _, item := range f.items {
		if candidate != "" && item.Candidate != candidate {
			continue
		}
		if topic != "" && item.Topic != topic {
			continue
		}
		if difficulty > 0 && item.Difficulty != difficulty {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeJournal) FindCompletions(candidate string) ([]model.JournalCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.JournalCompletion
	for _, c := range f.completions {
		if candidate != "" && c.Candidate != candidate {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func intp(v int) *int { return &v }

func mcq(id string, correct int, topic string, difficulty int) model.Question {
	return model.Question{
		ID:           id,
		Text:         "question " + id,
		Options:      []string{"a", "b", "c", "d"},
		CorrectIndex: correct,
		Difficulty:   difficulty,
		Topic:        topic,
		Type:         model.QuestionTypeMultipleChoice,
		Status:       model.QuestionStatusPublished,
	}
}
