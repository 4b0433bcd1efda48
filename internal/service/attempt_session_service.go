package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/examgate/examgate/internal/dto"
	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/repository"
	"github.com/examgate/examgate/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionState is the attempt session state machine. Re-entrancy guards are
// modeled as states (Loading, Starting) instead of side-band flags, so a
// duplicate Start is a no-op by construction.
type SessionState string

const (
	StateUninitialized    SessionState = "uninitialized"
	StateLoading          SessionState = "loading"
	StateAlreadyCompleted SessionState = "already_completed"
	StateEmpty            SessionState = "empty"
	StateReady            SessionState = "ready"
	StateStarting         SessionState = "starting"
	StateInProgress       SessionState = "in_progress"
	StateLocallyFinished  SessionState = "locally_finished"
	StateSubmitted        SessionState = "submitted"
)

var (
	ErrSessionNotFound   = errors.New("attempt session not found")
	ErrSessionNotRunning = errors.New("attempt session is not in progress")
	ErrNoHistory         = errors.New("no previous question to go back to")
	ErrMissingTestRef    = errors.New("test reference is required")
	ErrGuardUnresolved   = errors.New("completion status could not be resolved")
)

type historyEntry struct {
	question model.Question
	item     model.AttemptItem
}

// AttemptSession is one candidate's live run. All fields behind mu; the
// in-progress item cache is owned exclusively by the session for the
// duration of the attempt.
type AttemptSession struct {
	ID string

	mu    sync.Mutex
	alive bool
	state SessionState

	candidate       string
	testRef         string
	assignmentRef   string
	questionIDs     []string
	requestedLimit  int
	durationSeconds int

	attemptID    int64
	total        int
	currentIndex int
	pool         []model.Question
	selector     SelectionStrategy
	current      *model.Question
	presentedAt  time.Time
	forward      []model.Question
	history      []historyEntry
	items        *OptimisticStore[model.AttemptItem]
	correctness  []bool
	timer        *QuestionTimer
	completion   *model.AssignmentCompletion
	summary      *model.AttemptSummary
	lastErr      string
}

// AttemptSessionService drives sessions through the lifecycle and keeps the
// registry the HTTP surface addresses them by.
type AttemptSessionService struct {
	guard        CompletionGuard
	questionRepo repository.QuestionRepository
	attemptRepo  repository.AttemptRepository
	journal      repository.JournalRepository

	mu       sync.RWMutex
	sessions map[string]*AttemptSession

	newSelector func() SelectionStrategy
}

func NewAttemptSessionService(
	guard CompletionGuard,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	journal repository.JournalRepository,
) *AttemptSessionService {
	return &AttemptSessionService{
		guard:        guard,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		journal:      journal,
		sessions:     make(map[string]*AttemptSession),
		newSelector:  func() SelectionStrategy { return NewSequentialSelector() },
	}
}

// Open registers a new session in Uninitialized; nothing touches the network
// until Start.
func (s *AttemptSessionService) Open(req dto.StartSessionRequest) (*AttemptSession, error) {
	if strings.TrimSpace(req.TestRef) == "" {
		return nil, ErrMissingTestRef
	}

	duration := req.DurationSeconds
	if duration <= 0 {
		duration = DefaultQuestionSeconds
	}

	sess := &AttemptSession{
		ID:              uuid.NewString(),
		alive:           true,
		state:           StateUninitialized,
		candidate:       req.Candidate,
		testRef:         req.TestRef,
		assignmentRef:   req.AssignmentRef,
		questionIDs:     req.QuestionIDs,
		requestedLimit:  req.Limit,
		durationSeconds: duration,
		items:           NewOptimisticStore[model.AttemptItem](nil),
	}
	sess.selector = s.newSelector()
	sess.timer = NewQuestionTimer(func() { s.submitExpired(sess.ID) })

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	log.Info().Str("sessionID", sess.ID).Str("candidate", req.Candidate).Str("testRef", req.TestRef).Msg("Attempt session opened")
	return sess, nil
}

func (s *AttemptSessionService) Get(id string) (*AttemptSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close tears a session down: the alive flag drops so no in-flight result is
// applied to disposed state, and the timer is cleared so it cannot keep
// running against it.
func (s *AttemptSessionService) Close(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	sess.alive = false
	sess.timer.Stop()
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// completedRejection matches backend start rejections caused by an existing
// completion (the cross-tab race the client-side guard cannot close).
var completedRejection = regexp.MustCompile(`(?i)(already[ _-]?complet|completed)`)

func isCompletedRejection(err error) bool {
	if transport.StatusOf(err) == 409 {
		return true
	}
	var apiErr *transport.APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 &&
		completedRejection.MatchString(apiErr.Body)
}

// Start drives the session through Loading → {AlreadyCompleted|Empty|Ready}
// → Starting → InProgress. While the session is Loading or Starting a second
// Start returns immediately without another network call; the state always
// settles even on error, so the guard cannot wedge.
func (s *AttemptSessionService) Start(ctx context.Context, id string) (*AttemptSession, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	switch sess.state {
	case StateUninitialized, StateReady:
		sess.state = StateLoading
		sess.lastErr = ""
	default:
		// Duplicate or late invocation: no-op beyond the first.
		sess.mu.Unlock()
		return sess, nil
	}
	sess.mu.Unlock()

	settle := func(state SessionState, errMsg string) {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		if !sess.alive {
			return
		}
		sess.state = state
		sess.lastErr = errMsg
	}

	// Completion guard. An unresolved check blocks the start; it must never
	// silently permit a duplicate attempt.
	if sess.assignmentRef != "" {
		completion, err := s.guard.GetCompletion(ctx, sess.assignmentRef, sess.candidate)
		if err != nil {
			settle(StateUninitialized, err.Error())
			return sess, fmt.Errorf("%w: %v", ErrGuardUnresolved, err)
		}
		if completion != nil {
			sess.mu.Lock()
			sess.completion = completion
			sess.mu.Unlock()
			settle(StateAlreadyCompleted, "")
			return sess, nil
		}
	}

	bank, err := s.questionRepo.FindAll(ctx, repository.QuestionFilter{Status: model.QuestionStatusPublished})
	if err != nil {
		settle(StateUninitialized, err.Error())
		return sess, fmt.Errorf("fetching question bank: %w", err)
	}

	pool := BuildPool(bank, sess.questionIDs, model.QuestionTypeMultipleChoice)
	if len(pool) == 0 {
		settle(StateEmpty, ErrEmptyPool.Error())
		return sess, nil
	}

	sess.mu.Lock()
	if !sess.alive {
		sess.mu.Unlock()
		return sess, nil
	}
	sess.pool = pool
	sess.selector.Reset(pool)
	sess.state = StateStarting

	limit := sess.requestedLimit
	if limit <= 0 || limit > len(pool) {
		limit = len(pool)
	}
	startReq := dto.StartAttemptRequest{
		TestID:          sess.testRef,
		Limit:           limit,
		DurationSeconds: sess.durationSeconds,
	}
	sess.mu.Unlock()

	attemptID, err := s.attemptRepo.Start(ctx, startReq)
	if err != nil {
		if isCompletedRejection(err) {
			// The backend is authoritative; treat its rejection as a normal
			// terminal state, not an exceptional error.
			settle(StateAlreadyCompleted, "")
			return sess, nil
		}
		settle(StateReady, err.Error())
		return sess, fmt.Errorf("starting attempt: %w", err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.alive {
		return sess, nil
	}
	sess.attemptID = attemptID
	sess.total = limit
	sess.currentIndex = 0
	sess.current = sess.selector.Next()
	sess.presentedAt = time.Now()
	sess.state = StateInProgress
	sess.timer.Reset(sess.durationSeconds)

	log.Info().Str("sessionID", sess.ID).Int64("attemptID", attemptID).Int("total", limit).Msg("Attempt started")
	return sess, nil
}

// SubmitCurrent records the answer for the current question and advances.
// Recording goes through the optimistic item cache: the item is visible
// immediately and rolls back if the backend rejects it.
func (s *AttemptSessionService) SubmitCurrent(ctx context.Context, id string, ans dto.AnswerRequest) (*AttemptSession, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.alive || sess.state != StateInProgress {
		return sess, ErrSessionNotRunning
	}
	return sess, s.recordCurrentLocked(ctx, sess, ans)
}

// submitExpired is the timer's auto-submit path. It re-checks state and
// staleness under the lock: a user submission that raced the expiry will
// have reset the timer to a positive remainder, in which case the expiry is
// stale and must not consume the freshly presented question.
func (s *AttemptSessionService) submitExpired(id string) {
	sess, err := s.Get(id)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.alive || sess.state != StateInProgress {
		return
	}
	if sess.timer.Remaining() > 0 {
		return
	}

	log.Info().Str("sessionID", sess.ID).Int("index", sess.currentIndex).Msg("Question timer expired, auto-submitting")
	if err := s.recordCurrentLocked(ctx, sess, dto.AnswerRequest{}); err != nil {
		// Surface the failure on the session; the attempt stays resumable.
		log.Error().Err(err).Str("sessionID", sess.ID).Msg("Auto-submit failed")
		sess.lastErr = err.Error()
	}
}

// recordCurrentLocked is the shared submit path. Caller holds sess.mu and has
// verified the session is alive and InProgress.
func (s *AttemptSessionService) recordCurrentLocked(ctx context.Context, sess *AttemptSession, ans dto.AnswerRequest) error {
	q := sess.current
	if q == nil {
		return fmt.Errorf("session %s is in progress but has no current question", sess.ID)
	}

	now := time.Now()
	correct := false
	if q.Type == model.QuestionTypeMultipleChoice && ans.SelectedIndex != nil {
		correct = *ans.SelectedIndex == q.CorrectIndex
	}
	item := model.AttemptItem{
		QuestionID:  q.ID,
		Topic:       q.Topic,
		Difficulty:  q.Difficulty,
		Type:        q.Type,
		Correct:     correct,
		TimeSpentMs: now.Sub(sess.presentedAt).Milliseconds(),
		AnsweredAt:  now,
	}

	answerReq := dto.RecordAnswerRequest{
		AttemptID:   sess.attemptID,
		QuestionID:  item.QuestionID,
		Correct:     item.Correct,
		TimeSpentMs: item.TimeSpentMs,
		AnsweredAt:  item.AnsweredAt,
		Topic:       item.Topic,
		Difficulty:  item.Difficulty,
		Type:        string(item.Type),
	}
	err := sess.items.Mutate(
		func(current []model.AttemptItem) []model.AttemptItem {
			return append(current, item)
		},
		func() (func([]model.AttemptItem) []model.AttemptItem, error) {
			return nil, s.attemptRepo.RecordAnswer(ctx, answerReq)
		},
	)
	if err != nil {
		sess.lastErr = err.Error()
		return fmt.Errorf("recording answer: %w", err)
	}
	sess.lastErr = ""

	if s.journal != nil {
		journalErr := s.journal.AppendItem(&model.JournalItem{
			AttemptID:   sess.attemptID,
			Candidate:   sess.candidate,
			QuestionID:  item.QuestionID,
			Topic:       item.Topic,
			Difficulty:  item.Difficulty,
			Correct:     item.Correct,
			TimeSpentMs: item.TimeSpentMs,
			AnsweredAt:  item.AnsweredAt,
		})
		if journalErr != nil {
			log.Warn().Err(journalErr).Str("sessionID", sess.ID).Msg("Journal append failed")
		}
	}

	sess.history = append(sess.history, historyEntry{question: *q, item: item})
	sess.correctness = append(sess.correctness, correct)
	sess.currentIndex++

	if sess.currentIndex >= sess.total {
		return s.completeLocked(ctx, sess)
	}

	var next *model.Question
	if n := len(sess.forward); n > 0 {
		next = &sess.forward[n-1]
		sess.forward = sess.forward[:n-1]
	} else {
		next = sess.selector.Next()
	}
	if next == nil {
		// Pool exhausted before the declared total; finish what we have.
		return s.completeLocked(ctx, sess)
	}

	sess.current = next
	sess.presentedAt = time.Now()
	sess.timer.Reset(sess.durationSeconds)
	return nil
}

// completeLocked transitions to LocallyFinished and finalizes server-side.
// A finalize failure leaves the session in LocallyFinished so Finish can be
// retried; it never wedges the session.
func (s *AttemptSessionService) completeLocked(ctx context.Context, sess *AttemptSession) error {
	sess.state = StateLocallyFinished
	sess.current = nil
	sess.timer.Stop()
	return s.finalizeLocked(ctx, sess)
}

func (s *AttemptSessionService) finalizeLocked(ctx context.Context, sess *AttemptSession) error {
	summary, err := s.attemptRepo.Finalize(ctx, sess.attemptID)
	if err != nil {
		sess.lastErr = err.Error()
		return fmt.Errorf("finalizing attempt %d: %w", sess.attemptID, err)
	}
	if !sess.alive {
		return nil
	}
	sess.summary = summary
	sess.state = StateSubmitted
	sess.lastErr = ""

	if s.journal != nil {
		journalErr := s.journal.RecordCompletion(&model.JournalCompletion{
			AttemptID:    sess.attemptID,
			AssignmentID: sess.assignmentRef,
			Candidate:    sess.candidate,
			Total:        summary.TotalQuestions,
			Correct:      summary.CorrectAnswers,
			Score:        summary.Score,
			CompletedAt:  time.Now().UTC(),
		})
		if journalErr != nil {
			log.Warn().Err(journalErr).Str("sessionID", sess.ID).Msg("Journal completion failed")
		}
	}

	log.Info().Str("sessionID", sess.ID).Int64("attemptID", sess.attemptID).Int("score", summary.Score).Msg("Attempt finalized")
	return nil
}

// Back restores the previously answered question as current. This is a local
// undo only: the already recorded item is not retracted, and re-submitting
// appends a second item for the same question.
func (s *AttemptSessionService) Back(id string) (*AttemptSession, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.alive || sess.state != StateInProgress {
		return sess, ErrSessionNotRunning
	}
	n := len(sess.history)
	if n == 0 {
		return sess, ErrNoHistory
	}

	entry := sess.history[n-1]
	sess.history = sess.history[:n-1]
	if sess.current != nil {
		sess.forward = append(sess.forward, *sess.current)
	}
	restored := entry.question
	sess.current = &restored
	sess.currentIndex--
	sess.presentedAt = time.Now()
	sess.timer.Reset(sess.durationSeconds)
	return sess, nil
}

// Finish finalizes the attempt. It is idempotent from the client's side:
// calling it on an already Submitted session returns the existing summary.
func (s *AttemptSessionService) Finish(ctx context.Context, id string) (*AttemptSession, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	switch sess.state {
	case StateSubmitted:
		return sess, nil
	case StateInProgress:
		sess.state = StateLocallyFinished
		sess.current = nil
		sess.timer.Stop()
	case StateLocallyFinished:
		// retrying a failed finalize
	default:
		return sess, ErrSessionNotRunning
	}
	return sess, s.finalizeLocked(ctx, sess)
}

// Snapshot returns the session's observable state for the HTTP surface.
func (sess *AttemptSession) Snapshot() dto.SessionStateDTO {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	state := dto.SessionStateDTO{
		SessionID:        sess.ID,
		State:            string(sess.state),
		AttemptID:        sess.attemptID,
		Candidate:        sess.candidate,
		TestRef:          sess.testRef,
		AssignmentRef:    sess.assignmentRef,
		CurrentIndex:     sess.currentIndex,
		TotalQuestions:   sess.total,
		RemainingSeconds: sess.timer.Remaining(),
		Error:            sess.lastErr,
	}
	if sess.current != nil {
		state.CurrentQuestion = &dto.QuestionDTO{
			ID:         sess.current.ID,
			Text:       sess.current.Text,
			Options:    sess.current.Options,
			Difficulty: sess.current.Difficulty,
			Topic:      sess.current.Topic,
			Type:       string(sess.current.Type),
		}
	}
	if sess.summary != nil {
		state.Summary = &dto.SummaryDTO{
			AttemptID:       sess.summary.AttemptID,
			CorrectAnswers:  sess.summary.CorrectAnswers,
			TotalQuestions:  sess.summary.TotalQuestions,
			Score:           sess.summary.Score,
			FinishedAt:      sess.summary.FinishedAt,
			RunningAccuracy: RunningAccuracy(sess.correctness, sess.total),
		}
	}
	return state
}
