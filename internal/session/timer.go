package session

import (
	"sync/atomic"
	"time"
)

// Handle is a pending deadline. Cancel is idempotent and safe after the
// deadline already fired.
type Handle interface {
	Cancel()
	QuestionIndex() int
}

// Scheduler arms deadlines. It keeps no per-session state; the engine owns
// the handles and always cancels the previous one before arming the next.
type Scheduler interface {
	Arm(deadline time.Duration, questionIndex int, fire func(questionIndex int)) Handle
}

// TimerCoordinator is the production Scheduler backed by time.AfterFunc.
type TimerCoordinator struct {
	armed atomic.Int64
	fired atomic.Int64
}

// NewTimerCoordinator creates a TimerCoordinator.
func NewTimerCoordinator() *TimerCoordinator {
	return &TimerCoordinator{}
}

type timerHandle struct {
	t     *time.Timer
	index int
}

func (h *timerHandle) Cancel() { h.t.Stop() }

func (h *timerHandle) QuestionIndex() int { return h.index }

// Arm schedules fire(questionIndex) after deadline.
func (c *TimerCoordinator) Arm(deadline time.Duration, questionIndex int, fire func(questionIndex int)) Handle {
	c.armed.Add(1)
	h := &timerHandle{index: questionIndex}
	h.t = time.AfterFunc(deadline, func() {
		c.fired.Add(1)
		fire(questionIndex)
	})
	return h
}

// Stats returns how many deadlines were armed and how many fired.
func (c *TimerCoordinator) Stats() (armed, fired int64) {
	return c.armed.Load(), c.fired.Load()
}
