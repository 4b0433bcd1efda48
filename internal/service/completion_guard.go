package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/repository"
	"github.com/rs/zerolog/log"
)

// CompletionGuard decides whether a candidate may start a new attempt for an
// assignment. It is read-only; the backend remains the authoritative arbiter
// and a start rejection must still be honored even when the guard was clear.
type CompletionGuard interface {
	IsCompleted(ctx context.Context, assignmentRef, candidate string) (bool, error)
	GetCompletion(ctx context.Context, assignmentRef, candidate string) (*model.AssignmentCompletion, error)
}

type completionGuard struct {
	completionRepo repository.CompletionRepository
}

func NewCompletionGuard(completionRepo repository.CompletionRepository) CompletionGuard {
	return &completionGuard{completionRepo: completionRepo}
}

func (g *completionGuard) IsCompleted(ctx context.Context, assignmentRef, candidate string) (bool, error) {
	completion, err := g.GetCompletion(ctx, assignmentRef, candidate)
	if err != nil {
		return false, err
	}
	return completion != nil, nil
}

// GetCompletion returns the completion record for (assignmentRef, candidate),
// or nil when none exists. An empty assignmentRef means "no constraint" and
// yields nil without a lookup. When the filtered query fails it falls back to
// scanning the candidate's full completion list; if that also fails the
// result is unknown and the error must block a new attempt, not permit one.
func (g *completionGuard) GetCompletion(ctx context.Context, assignmentRef, candidate string) (*model.AssignmentCompletion, error) {
	ref := strings.TrimSpace(assignmentRef)
	if ref == "" {
		return nil, nil
	}

	completion, err := g.completionRepo.FindByAssignment(ctx, ref)
	if err == nil {
		return completion, nil
	}
	log.Warn().Err(err).Str("assignmentRef", ref).Msg("Filtered completion lookup failed, scanning full completion list")

	completions, listErr := g.completionRepo.FindAllMine(ctx)
	if listErr != nil {
		return nil, fmt.Errorf("completion status for assignment %s is unknown: %w", ref, listErr)
	}
	for i := range completions {
		if normalizeID(completions[i].AssignmentID) == normalizeID(ref) {
			return &completions[i], nil
		}
	}
	return nil, nil
}

// normalizeID tolerates mixed numeric/string identifiers coming from
// different backend endpoints ("7" and "007" name the same assignment).
func normalizeID(id string) string {
	s := strings.TrimSpace(id)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}
