package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/examgate/examgate/internal/dto"
	"github.com/examgate/examgate/internal/model"
	"github.com/examgate/examgate/internal/repository"
	"github.com/examgate/examgate/internal/transport"
)

func newSessionService(questionRepo *fakeQuestionRepo, attemptRepo *fakeAttemptRepo, completionRepo *fakeCompletionRepo, journal *fakeJournal) *AttemptSessionService {
	var j repository.JournalRepository
	if journal != nil {
		j = journal
	}
	return NewAttemptSessionService(NewCompletionGuard(completionRepo), questionRepo, attemptRepo, j)
}

func threeQuestionBank() []model.Question {
	return []model.Question{
		mcq("q1", 0, "algebra", 2),
		mcq("q2", 0, "geometry", 3),
		mcq("q3", 0, "algebra", 4),
	}
}

func startedSession(t *testing.T, svc *AttemptSessionService, req dto.StartSessionRequest) *AttemptSession {
	t.Helper()
	sess, err := svc.Open(req)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	sess, err = svc.Start(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return sess
}

func TestStartRefusedByGuardBeforeAnyBackendCall(t *testing.T) {
	questionRepo := &fakeQuestionRepo{}
	attemptRepo := &fakeAttemptRepo{}
	completionRepo := &fakeCompletionRepo{
		byAssignmentFn: func(id string) (*model.AssignmentCompletion, error) {
			return &model.AssignmentCompletion{AssignmentID: id, Candidate: "chris", Score: 80, CompletedAt: time.Now()}, nil
		},
	}
	svc := newSessionService(questionRepo, attemptRepo, completionRepo, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1", AssignmentRef: "A1"})

	if state := sess.Snapshot(); state.State != string(StateAlreadyCompleted) {
		t.Fatalf("state: got=%s want=%s", state.State, StateAlreadyCompleted)
	}
	if attemptRepo.startCalls() != 0 {
		t.Fatalf("backend start called %d times despite existing completion", attemptRepo.startCalls())
	}
	if questionRepo.findAllCalls != 0 {
		t.Fatalf("question bank fetched %d times despite existing completion", questionRepo.findAllCalls)
	}
}

func TestUnresolvedGuardBlocksStart(t *testing.T) {
	completionRepo := &fakeCompletionRepo{
		byAssignmentFn: func(string) (*model.AssignmentCompletion, error) { return nil, errors.New("down") },
		allMineFn:      func() ([]model.AssignmentCompletion, error) { return nil, errors.New("down") },
	}
	attemptRepo := &fakeAttemptRepo{}
	svc := newSessionService(&fakeQuestionRepo{}, attemptRepo, completionRepo, nil)

	sess, err := svc.Open(dto.StartSessionRequest{Candidate: "chris", TestRef: "T1", AssignmentRef: "A1"})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := svc.Start(context.Background(), sess.ID); !errors.Is(err, ErrGuardUnresolved) {
		t.Fatalf("expected ErrGuardUnresolved, got %v", err)
	}
	if attemptRepo.startCalls() != 0 {
		t.Fatal("an unknown completion status must not reach the backend start")
	}
}

func TestDuplicateStartMakesExactlyOneNetworkCall(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) {
			close(entered)
			<-release
			return threeQuestionBank(), nil
		},
	}
	attemptRepo := &fakeAttemptRepo{}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, nil)

	sess, err := svc.Open(dto.StartSessionRequest{Candidate: "chris", TestRef: "T1"})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Start(context.Background(), sess.ID)
		done <- err
	}()
	<-entered

	// The first start is in flight; a second invocation must be a no-op.
	if _, err := svc.Start(context.Background(), sess.ID); err != nil {
		t.Fatalf("duplicate start errored: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first start errored: %v", err)
	}

	if questionRepo.findAllCalls != 1 {
		t.Fatalf("bank fetches: got=%d want=1", questionRepo.findAllCalls)
	}
	if attemptRepo.startCalls() != 1 {
		t.Fatalf("backend starts: got=%d want=1", attemptRepo.startCalls())
	}
}

func TestEmptyPoolIsADistinctTerminalState(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) {
			return []model.Question{{ID: "ft", Type: model.QuestionTypeFreeText, Status: model.QuestionStatusPublished}}, nil
		},
	}
	attemptRepo := &fakeAttemptRepo{}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1"})

	if state := sess.Snapshot(); state.State != string(StateEmpty) {
		t.Fatalf("state: got=%s want=%s", state.State, StateEmpty)
	}
	if attemptRepo.startCalls() != 0 {
		t.Fatal("an empty pool must be surfaced before the backend start")
	}
}

func TestBackendCompletionRejectionIsTerminalNotAnError(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) { return threeQuestionBank(), nil },
	}
	attemptRepo := &fakeAttemptRepo{
		startFn: func(dto.StartAttemptRequest) (int64, error) {
			return 0, &transport.APIError{Status: 409, Body: `{"error":"attempt already completed"}`}
		},
	}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1"})

	if state := sess.Snapshot(); state.State != string(StateAlreadyCompleted) {
		t.Fatalf("state: got=%s want=%s", state.State, StateAlreadyCompleted)
	}
}

func TestEndToEndThreeQuestionsScore67(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) { return threeQuestionBank(), nil },
	}
	attemptRepo := &fakeAttemptRepo{}
	journal := &fakeJournal{}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, journal)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1", Limit: 3, DurationSeconds: 30})
	if state := sess.Snapshot(); state.State != string(StateInProgress) || state.TotalQuestions != 3 {
		t.Fatalf("after start: got state=%s total=%d", state.State, state.TotalQuestions)
	}

	// Correctness [true, false, true]: every question's correct option is 0.
	answers := []*int{intp(0), intp(1), intp(0)}
	for i, ans := range answers {
		if _, err := svc.SubmitCurrent(context.Background(), sess.ID, dto.AnswerRequest{SelectedIndex: ans}); err != nil {
			t.Fatalf("submit %d failed: %v", i+1, err)
		}
	}

	state := sess.Snapshot()
	if state.State != string(StateSubmitted) {
		t.Fatalf("final state: got=%s want=%s", state.State, StateSubmitted)
	}
	if state.Summary == nil {
		t.Fatal("submitted session carries no summary")
	}
	if state.Summary.Score != 67 || state.Summary.CorrectAnswers != 2 || state.Summary.TotalQuestions != 3 {
		t.Fatalf("summary: got=%+v want score=67 correct=2 total=3", state.Summary)
	}
	if want := []int{100, 50, 67}; !reflect.DeepEqual(state.Summary.RunningAccuracy, want) {
		t.Fatalf("running accuracy: got=%v want=%v", state.Summary.RunningAccuracy, want)
	}

	items, _ := journal.FindItems("chris", "", 0)
	if len(items) != 3 {
		t.Fatalf("journal items: got=%d want=3", len(items))
	}
	completions, _ := journal.FindCompletions("chris")
	if len(completions) != 1 || completions[0].Score != 67 {
		t.Fatalf("journal completions: got=%+v want one with score 67", completions)
	}
}

func TestBackThenResubmitAppendsSecondItem(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) { return threeQuestionBank(), nil },
	}
	attemptRepo := &fakeAttemptRepo{}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1"})
	firstID := sess.Snapshot().CurrentQuestion.ID
	secondID := ""

	if s, err := svc.SubmitCurrent(context.Background(), sess.ID, dto.AnswerRequest{SelectedIndex: intp(0)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	} else {
		secondID = s.Snapshot().CurrentQuestion.ID
	}

	if _, err := svc.Back(sess.ID); err != nil {
		t.Fatalf("back failed: %v", err)
	}
	state := sess.Snapshot()
	if state.CurrentQuestion.ID != firstID || state.CurrentIndex != 0 {
		t.Fatalf("after back: got question=%s index=%d want question=%s index=0", state.CurrentQuestion.ID, state.CurrentIndex, firstID)
	}

	// Re-answering records a second item for the same question and returns to
	// the displaced question, skipping nothing.
	if _, err := svc.SubmitCurrent(context.Background(), sess.ID, dto.AnswerRequest{SelectedIndex: intp(2)}); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	recorded := attemptRepo.recordedReqs()
	if len(recorded) != 2 || recorded[0].QuestionID != firstID || recorded[1].QuestionID != firstID {
		t.Fatalf("recorded items: got=%+v want two items for question %s", recorded, firstID)
	}
	state = sess.Snapshot()
	if state.CurrentQuestion.ID != secondID {
		t.Fatalf("after resubmit: got question=%s want displaced question %s", state.CurrentQuestion.ID, secondID)
	}
}

func TestBackWithoutHistoryIsRejected(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) { return threeQuestionBank(), nil },
	}
	svc := newSessionService(questionRepo, &fakeAttemptRepo{}, &fakeCompletionRepo{}, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1"})
	if _, err := svc.Back(sess.ID); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
}

func TestTimerExpiryAutoSubmitsUnansweredExactlyOnce(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) {
			return []model.Question{mcq("q1", 0, "algebra", 2)}, nil
		},
	}
	attemptRepo := &fakeAttemptRepo{}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1", DurationSeconds: 5})

	for i := 0; i < 8; i++ {
		sess.timer.Tick()
	}

	recorded := attemptRepo.recordedReqs()
	if len(recorded) != 1 {
		t.Fatalf("auto-submitted %d times, want exactly once", len(recorded))
	}
	if recorded[0].Correct {
		t.Fatal("an unanswered auto-submit must be recorded as not correct")
	}
	if state := sess.Snapshot(); state.State != string(StateSubmitted) {
		t.Fatalf("state after auto-submit of the last question: got=%s want=%s", state.State, StateSubmitted)
	}
}

func TestRecordFailureRollsBackAndStaysResumable(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) { return threeQuestionBank(), nil },
	}
	attemptRepo := &fakeAttemptRepo{
		recordFn: func(dto.RecordAnswerRequest) error { return errors.New("backend rejected") },
	}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1"})
	before := sess.Snapshot()

	if _, err := svc.SubmitCurrent(context.Background(), sess.ID, dto.AnswerRequest{SelectedIndex: intp(0)}); err == nil {
		t.Fatal("expected the record failure to propagate")
	}

	after := sess.Snapshot()
	if after.State != string(StateInProgress) || after.CurrentIndex != before.CurrentIndex {
		t.Fatalf("session must stay resumable on the same question: got state=%s index=%d", after.State, after.CurrentIndex)
	}
	if after.CurrentQuestion.ID != before.CurrentQuestion.ID {
		t.Fatalf("current question changed despite the failure: got=%s want=%s", after.CurrentQuestion.ID, before.CurrentQuestion.ID)
	}
	if sess.items.Len() != 0 {
		t.Fatalf("item cache not rolled back: %d items visible", sess.items.Len())
	}
}

func TestCloseDropsSessionAndStopsTimer(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) { return threeQuestionBank(), nil },
	}
	attemptRepo := &fakeAttemptRepo{}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1"})
	if err := svc.Close(sess.ID); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := svc.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after close, got %v", err)
	}

	// A late tick against the disposed session must not submit anything.
	sess.timer.Tick()
	if n := len(attemptRepo.recordedReqs()); n != 0 {
		t.Fatalf("disposed session recorded %d answers", n)
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	questionRepo := &fakeQuestionRepo{
		findAllFn: func(repository.QuestionFilter) ([]model.Question, error) {
			return []model.Question{mcq("q1", 0, "", 1)}, nil
		},
	}
	attemptRepo := &fakeAttemptRepo{}
	svc := newSessionService(questionRepo, attemptRepo, &fakeCompletionRepo{}, nil)

	sess := startedSession(t, svc, dto.StartSessionRequest{Candidate: "chris", TestRef: "T1"})
	if _, err := svc.SubmitCurrent(context.Background(), sess.ID, dto.AnswerRequest{SelectedIndex: intp(0)}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	first := sess.Snapshot()
	if _, err := svc.Finish(context.Background(), sess.ID); err != nil {
		t.Fatalf("finish on submitted session errored: %v", err)
	}
	second := sess.Snapshot()
	if !reflect.DeepEqual(first.Summary, second.Summary) {
		t.Fatalf("finish changed an already submitted summary: %+v vs %+v", first.Summary, second.Summary)
	}
}
