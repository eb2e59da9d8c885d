// Package engine turns the platform's fire-and-forget notification API into
// a blocking "deliver and wait for the user" call.
//
// Every delivery registers a pending completion keyed by request id before
// it is submitted. Interaction callbacks, the timeout timer, dismissal
// polling and Cleanup all race to resolve that completion; the first one
// wins and the rest are dropped.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mblarsen/alerter/internal/notification"
	"github.com/mblarsen/alerter/internal/platform"
)

// Config tunes the engine.
type Config struct {
	// PollInterval paces dismissal polling on services without dismissal
	// callbacks. Zero disables polling.
	PollInterval time.Duration
	// EnumerateTimeout bounds a single poll's wait for the service.
	EnumerateTimeout time.Duration
}

// DefaultConfig polls five times a second, like the platform UI refresh.
var DefaultConfig = Config{
	PollInterval:     200 * time.Millisecond,
	EnumerateTimeout: 3 * time.Second,
}

// Engine owns the correlation table.
type Engine struct {
	center platform.Center
	clock  Clock
	cfg    Config

	mu      sync.Mutex
	pending map[string]*completion
	last    string
}

// New creates an engine and registers it as center's interaction handler.
func New(center platform.Center, clock Clock, cfg Config) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.EnumerateTimeout <= 0 {
		cfg.EnumerateTimeout = DefaultConfig.EnumerateTimeout
	}
	e := &Engine{
		center:  center,
		clock:   clock,
		cfg:     cfg,
		pending: make(map[string]*completion),
	}
	center.SetHandler(e)
	return e
}

// Deliver submits req and blocks until the user, the timeout, or a delivery
// failure resolves it. Cancelling ctx withdraws the notification and
// resolves it as dismissed.
func (e *Engine) Deliver(ctx context.Context, req notification.Request) notification.Outcome {
	c := newCompletion(req, e.clock.Now())
	if err := e.register(c); err != nil {
		slog.Error("Refusing delivery", "id", req.ID, "err", err)
		return e.finish(c, notification.Failed(err.Error()))
	}
	defer e.unregister(req.ID)

	slog.Debug("Submitting notification", "id", req.ID, "group", req.GroupID, "timeout", req.Timeout)
	if err := e.center.Submit(ctx, req); err != nil {
		slog.Error("Notification delivery failed", "id", req.ID, "err", err)
		c.resolve(notification.Failed(err.Error()))
		return e.finish(c, c.wait())
	}

	if req.Timeout > 0 {
		c.setTimer(e.clock.AfterFunc(req.Timeout, func() { e.expire(c) }))
	}
	if !e.center.ReportsDismissals() && e.cfg.PollInterval > 0 {
		pollCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go e.watchDismissal(pollCtx, c)
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		if c.resolve(e.terminal(notification.KindDismissed)) {
			slog.Debug("Delivery cancelled", "id", req.ID, "err", ctx.Err())
			e.center.Withdraw(req.ID)
		}
	}
	return e.finish(c, c.wait())
}

func (e *Engine) register(c *completion) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.pending[c.req.ID]; exists {
		return fmt.Errorf("request id %s is already pending", c.req.ID)
	}
	e.pending[c.req.ID] = c
	e.last = c.req.ID
	return nil
}

func (e *Engine) unregister(id string) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}

// finish stamps the request-level fields onto o.
func (e *Engine) finish(c *completion, o notification.Outcome) notification.Outcome {
	o.GroupID = c.req.GroupID
	if o.DeliveredAt.IsZero() && o.Kind != notification.KindFailed {
		o.DeliveredAt = c.submittedAt
	}
	if o.ActivatedAt.IsZero() {
		o.ActivatedAt = e.clock.Now()
	}
	return o
}

func (e *Engine) terminal(kind notification.Kind) notification.Outcome {
	return notification.Outcome{Kind: kind, Index: -1, ActivatedAt: e.clock.Now()}
}

// HandleInteraction is the platform's callback. Interactions for unknown or
// already resolved requests are dropped.
func (e *Engine) HandleInteraction(id string, in notification.Interaction) {
	e.mu.Lock()
	c, ok := e.pending[id]
	won := false
	if ok {
		won = c.resolve(e.outcomeFor(c.req, in))
	}
	e.mu.Unlock()

	switch {
	case !ok:
		slog.Debug("Discarding interaction for unknown request", "id", id)
	case !won:
		slog.Debug("Discarding interaction for resolved request", "id", id)
	case in.Kind != notification.InteractionDismissed:
		e.center.Withdraw(id)
	}
}

func (e *Engine) outcomeFor(req notification.Request, in notification.Interaction) notification.Outcome {
	o := notification.Outcome{
		Index:       -1,
		DeliveredAt: in.DeliveredAt,
		ActivatedAt: e.clock.Now(),
	}
	switch in.Kind {
	case notification.InteractionContents:
		o.Kind = notification.KindContentsClicked
	case notification.InteractionAction:
		o.Kind = notification.KindActionClicked
		o.Value, o.Index = actionLabel(req, in)
	case notification.InteractionReplied:
		o.Kind = notification.KindReplied
		o.Value = in.Text
	case notification.InteractionDismissed:
		o.Kind = notification.KindDismissed
	default:
		o.Kind = notification.KindActivated
	}
	return o
}

// actionLabel surfaces the host's own label for the chosen action. A label
// reported by the platform wins over its index.
func actionLabel(req notification.Request, in notification.Interaction) (string, int) {
	if in.ActionLabel != "" {
		for i, label := range req.Actions {
			if label == in.ActionLabel {
				return label, i
			}
		}
	}
	if label, ok := req.ActionLabel(in.ActionIndex); ok {
		return label, in.ActionIndex
	}
	return in.ActionLabel, -1
}

func (e *Engine) expire(c *completion) {
	if c.resolve(e.terminal(notification.KindTimedOut)) {
		slog.Debug("Notification timed out", "id", c.req.ID)
		e.center.Withdraw(c.req.ID)
	}
}

// watchDismissal resolves c as dismissed once its notification, after having
// been seen on screen, disappears.
func (e *Engine) watchDismissal(ctx context.Context, c *completion) {
	limiter := rate.NewLimiter(rate.Every(e.cfg.PollInterval), 1)
	seen := false
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if c.resolved() {
			return
		}
		list, ok := platform.Enumerate(ctx, e.center, e.cfg.EnumerateTimeout)
		if !ok {
			continue
		}
		present := false
		for _, d := range list {
			if d.RequestID == c.req.ID {
				present = true
				break
			}
		}
		switch {
		case present:
			seen = true
		case seen:
			if c.resolve(e.terminal(notification.KindDismissed)) {
				slog.Debug("Notification dismissed", "id", c.req.ID)
			}
			return
		}
	}
}

// Cleanup withdraws the most recent notification, and any still pending,
// and resolves every pending delivery as dismissed. It is safe to call more
// than once.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	withdraw := make(map[string]struct{}, len(e.pending)+1)
	if e.last != "" {
		withdraw[e.last] = struct{}{}
		e.last = ""
	}
	for id, c := range e.pending {
		c.resolve(e.terminal(notification.KindDismissed))
		withdraw[id] = struct{}{}
	}
	e.mu.Unlock()

	for id := range withdraw {
		e.center.Withdraw(id)
	}
}

// Pending returns the number of unresolved deliveries in the table.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}
