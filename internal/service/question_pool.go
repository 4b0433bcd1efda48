package service

import (
	"errors"

	"github.com/examgate/examgate/internal/model"
)

// ErrEmptyPool marks the distinct "no eligible questions" state. Callers must
// surface it before starting a session instead of treating it as a start
// failure.
var ErrEmptyPool = errors.New("no eligible questions for this attempt")

// BuildPool resolves the ordered set of questions eligible for delivery:
// published entries of the bank, intersected with the assignment's explicit
// id list when one is given, restricted to the delivery type. Bank order is
// preserved; there is no shuffling.
func BuildPool(bank []model.Question, assignmentQuestionIDs []string, typ model.QuestionType) []model.Question {
	var wanted map[string]struct{}
	if len(assignmentQuestionIDs) > 0 {
		wanted = make(map[string]struct{}, len(assignmentQuestionIDs))
		for _, id := range assignmentQuestionIDs {
			wanted[normalizeID(id)] = struct{}{}
		}
	}

	var pool []model.Question
	for _, q := range bank {
		if q.Status != model.QuestionStatusPublished {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[normalizeID(q.ID)]; !ok {
				continue
			}
		}
		if q.Type != typ {
			continue
		}
		pool = append(pool, q)
	}
	return pool
}
