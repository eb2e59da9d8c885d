package engine

import (
	"sync"
	"time"

	"github.com/mblarsen/alerter/internal/notification"
)

// completion is the one-shot slot bridging a blocked Deliver to whichever
// context resolves it first.
type completion struct {
	req         notification.Request
	submittedAt time.Time

	once    sync.Once
	done    chan struct{}
	outcome notification.Outcome

	mu    sync.Mutex
	timer Timer
}

func newCompletion(req notification.Request, now time.Time) *completion {
	return &completion{
		req:         req,
		submittedAt: now,
		done:        make(chan struct{}),
	}
}

// resolve stores o unless another outcome got there first. It reports
// whether o won.
func (c *completion) resolve(o notification.Outcome) bool {
	won := false
	c.once.Do(func() {
		c.outcome = o
		won = true
		close(c.done)
	})
	if won {
		c.stopTimer()
	}
	return won
}

func (c *completion) resolved() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// setTimer attaches the timeout timer. A timer attached after resolution is
// stopped right away.
func (c *completion) setTimer(t Timer) {
	c.mu.Lock()
	c.timer = t
	c.mu.Unlock()
	if c.resolved() {
		t.Stop()
	}
}

func (c *completion) stopTimer() {
	c.mu.Lock()
	t := c.timer
	c.mu.Unlock()
	if t != nil {
		t.Stop()
	}
}

// wait blocks until resolution and returns the outcome.
func (c *completion) wait() notification.Outcome {
	<-c.done
	return c.outcome
}
