package service

import "github.com/examgate/examgate/internal/model"

// SelectionStrategy yields the next question to deliver from a pool. The
// user-facing product calls this "adaptive", but the shipped strategy is a
// deterministic sequential walk; a performance-responsive strategy can
// replace it behind this interface without touching the session controller.
type SelectionStrategy interface {
	// Reset rebinds the strategy to a pool. It must be called before the
	// first Next of every attempt; the internal cursor and permutation are
	// sized to the pool and do not survive a pool change.
	Reset(pool []model.Question)
	// Next returns the next question, or nil when the pool is exhausted.
	Next() *model.Question
}

// SequentialSelector walks the pool in its natural order exactly once.
type SequentialSelector struct {
	pool   []model.Question
	order  []int
	cursor int
}

func NewSequentialSelector() *SequentialSelector {
	return &SequentialSelector{}
}

func (s *SequentialSelector) Reset(pool []model.Question) {
	s.pool = pool
	s.order = make([]int, len(pool))
	for i := range s.order {
		s.order[i] = i
	}
	s.cursor = 0
}

func (s *SequentialSelector) Next() *model.Question {
	if s.cursor >= len(s.order) {
		return nil
	}
	q := s.pool[s.order[s.cursor]]
	s.cursor++
	return &q
}
