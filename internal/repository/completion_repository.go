package repository

import (
	"context"
	"net/url"

	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/transport"
)

type CompletionRepository interface {
	// FindByAssignment returns the candidate's completion for one assignment,
	// or nil when none exists.
	FindByAssignment(ctx context.Context, assignmentID string) (*model.AssignmentCompletion, error)
	FindAllMine(ctx context.Context) ([]model.AssignmentCompletion, error)
}

type completionRepository struct {
	client transport.Client
}

func NewCompletionRepository(client transport.Client) CompletionRepository {
	return &completionRepository{client: client}
}

func (r *completionRepository) FindByAssignment(ctx context.Context, assignmentID string) (*model.AssignmentCompletion, error) {
	query := url.Values{}
	query.Set("assignmentId", assignmentID)

	var completion model.AssignmentCompletion
	if err := r.client.Get(ctx, "/completions/mine", query, &completion); err != nil {
		if transport.StatusOf(err) == 404 {
			return nil, nil
		}
		return nil, err
	}
	if completion.AssignmentID == "" && completion.CompletedAt.IsZero() {
		return nil, nil
	}
	return &completion, nil
}

func (r *completionRepository) FindAllMine(ctx context.Context) ([]model.AssignmentCompletion, error) {
	var completions []model.AssignmentCompletion
	if err := r.client.Get(ctx, "/completions/mine", nil, &completions); err != nil {
		return nil, err
	}
	return completions, nil
}
