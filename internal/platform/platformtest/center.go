// Package platformtest provides an in-memory notification service for tests.
package platformtest

import (
	"context"
	"sync"
	"time"

	"github.com/mblarsen/alerter/internal/notification"
	"github.com/mblarsen/alerter/internal/platform"
)

// Center is a fake platform.Center. Enumeration answers asynchronously like
// the real services do.
type Center struct {
	// SubmitErr, when set, rejects every submission.
	SubmitErr error
	// Silent makes Delivered never call back.
	Silent bool
	// Dismissals is returned by ReportsDismissals.
	Dismissals bool

	mu        sync.Mutex
	handler   platform.Handler
	submitted []notification.Request
	visible   []notification.Delivered
	withdrawn []string
	enumerate int

	submissions chan notification.Request
}

var _ platform.Center = (*Center)(nil)

// New returns an empty fake service.
func New() *Center {
	return &Center{submissions: make(chan notification.Request, 64)}
}

func (c *Center) SetHandler(h platform.Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *Center) ReportsDismissals() bool {
	return c.Dismissals
}

func (c *Center) Submit(_ context.Context, req notification.Request) error {
	c.mu.Lock()
	c.submitted = append(c.submitted, req)
	if c.SubmitErr == nil {
		c.visible = append(c.visible, notification.Delivered{
			RequestID:   req.ID,
			GroupID:     req.GroupID,
			Title:       req.Title,
			Subtitle:    req.Subtitle,
			Message:     req.Body,
			DeliveredAt: time.Now().UTC(),
		})
	}
	err := c.SubmitErr
	c.mu.Unlock()

	select {
	case c.submissions <- req:
	default:
	}
	return err
}

func (c *Center) Delivered(fn func([]notification.Delivered)) {
	c.mu.Lock()
	c.enumerate++
	out := append([]notification.Delivered(nil), c.visible...)
	silent := c.Silent
	c.mu.Unlock()
	if silent {
		return
	}
	go fn(out)
}

func (c *Center) Remove(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.visible[:0]
	for _, d := range c.visible {
		if group == notification.AllGroups || d.GroupID == group {
			c.withdrawn = append(c.withdrawn, d.RequestID)
			continue
		}
		kept = append(kept, d)
	}
	c.visible = kept
}

func (c *Center) Withdraw(requestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.withdrawn = append(c.withdrawn, requestID)
	c.drop(requestID)
}

func (c *Center) drop(requestID string) {
	for i, d := range c.visible {
		if d.RequestID == requestID {
			c.visible = append(c.visible[:i], c.visible[i+1:]...)
			return
		}
	}
}

// NextSubmission waits for the next submitted request.
func (c *Center) NextSubmission(timeout time.Duration) (notification.Request, bool) {
	select {
	case req := <-c.submissions:
		return req, true
	case <-time.After(timeout):
		return notification.Request{}, false
	}
}

// Interact reports a user interaction for requestID, as the platform would.
func (c *Center) Interact(requestID string, in notification.Interaction) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h.HandleInteraction(requestID, in)
	}
}

// Dismiss removes the notification from screen as a user swipe would. The
// handler is only told when Dismissals is set.
func (c *Center) Dismiss(requestID string) {
	c.mu.Lock()
	c.drop(requestID)
	h := c.handler
	c.mu.Unlock()
	if c.Dismissals && h != nil {
		h.HandleInteraction(requestID, notification.Interaction{
			Kind:        notification.InteractionDismissed,
			ActionIndex: -1,
		})
	}
}

// Submitted returns every request handed to Submit.
func (c *Center) Submitted() []notification.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notification.Request(nil), c.submitted...)
}

// Visible returns the notifications currently on screen.
func (c *Center) Visible() []notification.Delivered {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notification.Delivered(nil), c.visible...)
}

// Withdrawn returns the request ids removed through Withdraw or Remove.
func (c *Center) Withdrawn() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.withdrawn...)
}

// Enumerations counts Delivered calls.
func (c *Center) Enumerations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enumerate
}
