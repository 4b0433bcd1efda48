package service

import (
	"context"
	"fmt"

	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// QuestionBankService is the explicitly owned question cache for content
// editors. Writes go through the optimistic store: the visible bank changes
// immediately and rolls back if the backend rejects the mutation. There is
// deliberately no shared module-level cache; every service instance owns its
// store.
type QuestionBankService interface {
	List(ctx context.Context, filter repository.QuestionFilter) ([]model.Question, error)
	Create(ctx context.Context, question model.Question) (*model.Question, error)
	Delete(ctx context.Context, id string) error
	SetReviewStatus(ctx context.Context, id, status string) error
}

type questionBankService struct {
	questionRepo repository.QuestionRepository
	store        *OptimisticStore[model.Question]
}

func NewQuestionBankService(questionRepo repository.QuestionRepository) QuestionBankService {
	return &questionBankService{
		questionRepo: questionRepo,
		store:        NewOptimisticStore[model.Question](nil),
	}
}

// List refreshes the bank from the backend. On transport failure it degrades
// to the last visible snapshot so editor views keep working offline.
func (s *questionBankService) List(ctx context.Context, filter repository.QuestionFilter) ([]model.Question, error) {
	questions, err := s.questionRepo.FindAll(ctx, filter)
	if err != nil {
		cached := s.store.Snapshot()
		if len(cached) > 0 {
			log.Warn().Err(err).Msg("Question bank fetch failed, serving cached snapshot")
			return cached, nil
		}
		return nil, fmt.Errorf("fetching question bank: %w", err)
	}
	if filter == (repository.QuestionFilter{}) {
		s.store.Replace(questions)
	}
	return questions, nil
}

func (s *questionBankService) Create(ctx context.Context, question model.Question) (*model.Question, error) {
	tempID := "tmp-" + uuid.NewString()
	optimistic := question
	optimistic.ID = tempID
	if optimistic.Status == "" {
		optimistic.Status = model.QuestionStatusDraft
	}

	var created *model.Question
	err := s.store.Mutate(
		func(current []model.Question) []model.Question {
			return append(current, optimistic)
		},
		func() (func([]model.Question) []model.Question, error) {
			confirmed, err := s.questionRepo.Create(ctx, &optimistic)
			if err != nil {
				return nil, err
			}
			created = confirmed
			// Reconcile: the server id replaces the temporary one.
			return func(current []model.Question) []model.Question {
				for i := range current {
					if current[i].ID == tempID {
						current[i] = *confirmed
					}
				}
				return current
			}, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating question: %w", err)
	}
	return created, nil
}

func (s *questionBankService) Delete(ctx context.Context, id string) error {
	err := s.store.Mutate(
		func(current []model.Question) []model.Question {
			out := current[:0]
			for _, q := range current {
				if q.ID != id {
					out = append(out, q)
				}
			}
			return out
		},
		func() (func([]model.Question) []model.Question, error) {
			return nil, s.questionRepo.Delete(ctx, id)
		},
	)
	if err != nil {
		return fmt.Errorf("deleting question %s: %w", id, err)
	}
	return nil
}

func (s *questionBankService) SetReviewStatus(ctx context.Context, id, status string) error {
	err := s.store.Mutate(
		func(current []model.Question) []model.Question {
			for i := range current {
				if current[i].ID == id {
					current[i].ReviewStatus = status
				}
			}
			return current
		},
		func() (func([]model.Question) []model.Question, error) {
			return nil, s.questionRepo.UpdateReviewStatus(ctx, id, status)
		},
	)
	if err != nil {
		return fmt.Errorf("updating review status of question %s: %w", id, err)
	}
	return nil
}
