package service

import "sync"

// OptimisticStore applies mutations locally before the backend confirms
// them. Mutate snapshots the current state, applies the optimistic next
// state, runs the remote call, and then either reconciles the optimistic
// entries with what the server confirmed or restores the snapshot and
// propagates the error. The visible state is never left showing a mutation
// whose remote call is known to have failed.
type OptimisticStore[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewOptimisticStore[T any](items []T) *OptimisticStore[T] {
	return &OptimisticStore[T]{items: items}
}

// Snapshot returns a copy of the current visible state.
func (s *OptimisticStore[T]) Snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSlice(s.items)
}

// Replace swaps the whole visible state (e.g. after a refresh from the
// backend).
func (s *OptimisticStore[T]) Replace(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cloneSlice(items)
}

// Len returns the number of visible entries.
func (s *OptimisticStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Mutate runs one optimistic mutation. remote returns an optional reconcile
// step that replaces optimistic placeholders (such as temporary ids) with the
// server-confirmed entity.
func (s *OptimisticStore[T]) Mutate(
	apply func(current []T) []T,
	remote func() (reconcile func(current []T) []T, err error),
) error {
	s.mu.Lock()
	snapshot := cloneSlice(s.items)
	s.items = apply(cloneSlice(s.items))
	s.mu.Unlock()

	reconcile, err := remote()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.items = snapshot
		return err
	}
	if reconcile != nil {
		s.items = reconcile(s.items)
	}
	return nil
}

func cloneSlice[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
