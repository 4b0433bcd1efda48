package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/examgate/examgate/internal/dto"
	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/transport"
)

type AttemptRepository interface {
	Start(ctx context.Context, req dto.StartAttemptRequest) (int64, error)
	RecordAnswer(ctx context.Context, req dto.RecordAnswerRequest) error
	Finalize(ctx context.Context, attemptID int64) (*model.AttemptSummary, error)
	FindMine(ctx context.Context) ([]model.Attempt, error)
	Summary(ctx context.Context, attemptID int64) (*model.AttemptSummary, error)
	Items(ctx context.Context, attemptID int64, limit, offset int) ([]model.AttemptItem, error)
}

type attemptRepository struct {
	client transport.Client
}

func NewAttemptRepository(client transport.Client) AttemptRepository {
	return &attemptRepository{client: client}
}

// startResponse tolerates the backend's id aliases: attemptId, id, sessionId.
type startResponse struct {
	AttemptID int64
}

func (s *startResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		AttemptID *int64 `json:"attemptId"`
		ID        *int64 `json:"id"`
		SessionID *int64 `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.AttemptID != nil:
		s.AttemptID = *raw.AttemptID
	case raw.ID != nil:
		s.AttemptID = *raw.ID
	case raw.SessionID != nil:
		s.AttemptID = *raw.SessionID
	}
	return nil
}

func (r *attemptRepository) Start(ctx context.Context, req dto.StartAttemptRequest) (int64, error) {
	var resp startResponse
	if err := r.client.Post(ctx, "/start", req, &resp); err != nil {
		return 0, err
	}
	if resp.AttemptID == 0 {
		return 0, fmt.Errorf("backend start response carried no attempt id")
	}
	return resp.AttemptID, nil
}

func (r *attemptRepository) RecordAnswer(ctx context.Context, req dto.RecordAnswerRequest) error {
	return r.client.Post(ctx, "/answer", req, nil)
}

func (r *attemptRepository) Finalize(ctx context.Context, attemptID int64) (*model.AttemptSummary, error) {
	var summary model.AttemptSummary
	req := dto.FinalizeAttemptRequest{AttemptID: attemptID}
	if err := r.client.Post(ctx, "/submit", req, &summary); err != nil {
		return nil, err
	}
	if summary.AttemptID == 0 {
		summary.AttemptID = attemptID
	}
	return &summary, nil
}

func (r *attemptRepository) FindMine(ctx context.Context) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if err := r.client.Get(ctx, "/attempts/mine", nil, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) Summary(ctx context.Context, attemptID int64) (*model.AttemptSummary, error) {
	var raw struct {
		TotalQuestions   int    `json:"total_questions"`
		CorrectQuestions int    `json:"correct_questions"`
		Score            *int   `json:"score"`
		Sequence         []bool `json:"sequence"`
	}
	path := "/attempts/" + strconv.FormatInt(attemptID, 10) + "/summary"
	if err := r.client.Get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}

	summary := &model.AttemptSummary{
		AttemptID:      attemptID,
		CorrectAnswers: raw.CorrectQuestions,
		TotalQuestions: raw.TotalQuestions,
		Sequence:       raw.Sequence,
	}
	if raw.Score != nil {
		summary.Score = *raw.Score
	}
	return summary, nil
}

func (r *attemptRepository) Items(ctx context.Context, attemptID int64, limit, offset int) ([]model.AttemptItem, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var items []model.AttemptItem
	path := "/attempts/" + strconv.FormatInt(attemptID, 10) + "/items"
	if err := r.client.Get(ctx, path, query, &items); err != nil {
		return nil, err
	}
	return items, nil
}
