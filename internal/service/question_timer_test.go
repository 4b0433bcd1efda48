package service

import (
	"sync/atomic"
	"testing"
)

func TestTimerFiresExactlyOncePerQuestion(t *testing.T) {
	var fired int32
	timer := NewQuestionTimer(func() { atomic.AddInt32(&fired, 1) })
	defer timer.Stop()

	timer.Reset(2)
	timer.Tick()
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("fired before reaching zero: got=%d", got)
	}
	timer.Tick()
	// Redundant ticks for the same expired question must not re-fire.
	timer.Tick()
	timer.Tick()
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("fire count: got=%d want=1", got)
	}
}

func TestTimerResetArmsNextQuestion(t *testing.T) {
	var fired int32
	timer := NewQuestionTimer(func() { atomic.AddInt32(&fired, 1) })
	defer timer.Stop()

	timer.Reset(1)
	timer.Tick()
	timer.Reset(1)
	timer.Tick()
	if got := atomic.LoadInt32(&fired); got != 2 {
		t.Fatalf("fire count across two questions: got=%d want=2", got)
	}
}

func TestUnarmedTimerNeverFires(t *testing.T) {
	var fired int32
	timer := NewQuestionTimer(func() { atomic.AddInt32(&fired, 1) })

	timer.Tick()
	timer.Tick()
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("unarmed timer fired %d times", got)
	}
}

func TestStoppedTimerNeverFires(t *testing.T) {
	var fired int32
	timer := NewQuestionTimer(func() { atomic.AddInt32(&fired, 1) })

	timer.Reset(1)
	timer.Stop()
	timer.Tick()
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Fatalf("stopped timer fired %d times", got)
	}
	if remaining := timer.Remaining(); remaining != 0 {
		t.Fatalf("remaining after Stop: got=%d want=0", remaining)
	}
}

func TestTimerRemainingCountsDown(t *testing.T) {
	timer := NewQuestionTimer(nil)
	defer timer.Stop()

	timer.Reset(3)
	timer.Tick()
	if remaining := timer.Remaining(); remaining != 2 {
		t.Fatalf("remaining: got=%d want=2", remaining)
	}
}
