package service

import (
	"sync"
	"time"
)

// DefaultQuestionSeconds is the per-question countdown when the attempt does
// not configure one.
const DefaultQuestionSeconds = 60

// QuestionTimer is a per-question countdown with 1-second resolution. When
// the remaining time reaches zero it invokes onExpire exactly once: the fired
// flag is set before the callback runs and is cleared only when the timer is
// reset to a positive value for the next question, so redundant ticks for the
// same question cannot fire twice.
type QuestionTimer struct {
	mu        sync.Mutex
	remaining int
	fired     bool
	running   bool
	stop      chan struct{}
	onExpire  func()
}

func NewQuestionTimer(onExpire func()) *QuestionTimer {
	// fired starts true: an unarmed timer must never auto-submit.
	return &QuestionTimer{onExpire: onExpire, fired: true}
}

// Reset arms the timer for the next question. A non-positive duration leaves
// the fired flag untouched so an expired question cannot re-fire.
func (t *QuestionTimer) Reset(seconds int) {
	t.mu.Lock()
	t.remaining = seconds
	if seconds > 0 {
		t.fired = false
	}
	start := !t.running && seconds > 0
	if start {
		t.running = true
		t.stop = make(chan struct{})
	}
	stopCh := t.stop
	t.mu.Unlock()

	if start {
		go t.loop(stopCh)
	}
}

// Stop clears the countdown. It must be called whenever the attempt leaves
// InProgress (finish, teardown, navigation away).
func (t *QuestionTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		close(t.stop)
		t.running = false
	}
	t.remaining = 0
	t.fired = true
}

// Remaining returns the seconds left for the current question.
func (t *QuestionTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remaining < 0 {
		return 0
	}
	return t.remaining
}

func (t *QuestionTimer) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Tick advances the countdown by one second. Exported for deterministic
// tests; production ticks come from the internal loop.
func (t *QuestionTimer) Tick() {
	t.mu.Lock()
	if t.remaining > 0 {
		t.remaining--
	}
	shouldFire := t.remaining <= 0 && !t.fired
	if shouldFire {
		t.fired = true
	}
	t.mu.Unlock()

	if shouldFire && t.onExpire != nil {
		t.onExpire()
	}
}
