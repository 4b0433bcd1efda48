package repository

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/transport"
)

// QuestionFilter narrows a question-bank query.
type QuestionFilter struct {
	Topic      string
	Difficulty int
	Status     model.QuestionStatus
}

type QuestionRepository interface {
	FindAll(ctx context.Context, filter QuestionFilter) ([]model.Question, error)
	Create(ctx context.Context, question *model.Question) (*model.Question, error)
	Delete(ctx context.Context, id string) error
	UpdateReviewStatus(ctx context.Context, id, status string) error
}

type questionRepository struct {
	client transport.Client
}

func NewQuestionRepository(client transport.Client) QuestionRepository {
	return &questionRepository{client: client}
}

func (r *questionRepository) FindAll(ctx context.Context, filter QuestionFilter) ([]model.Question, error) {
	query := url.Values{}
	if filter.Topic != "" {
		query.Set("topic", filter.Topic)
	}
	if filter.Difficulty > 0 {
		query.Set("difficulty", strconv.Itoa(filter.Difficulty))
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}

	var questions []model.Question
	if err := r.client.Get(ctx, "/questions", query, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) Create(ctx context.Context, question *model.Question) (*model.Question, error) {
	var created model.Question
	if err := r.client.Post(ctx, "/questions", question, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *questionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Do(ctx, http.MethodDelete, "/questions/"+url.PathEscape(id), nil, nil, nil)
}

func (r *questionRepository) UpdateReviewStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"reviewStatus": status}
	return r.client.Post(ctx, "/questions/"+url.PathEscape(id)+"/review", body, nil)
}
