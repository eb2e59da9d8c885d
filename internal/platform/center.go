// Package platform adapts the operating system's notification service to
// the engine. Each OS gets one Center; platformtest provides an in-memory one.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/mblarsen/alerter/internal/notification"
)

var (
	// ErrUnavailable means the notification service cannot be reached.
	ErrUnavailable = errors.New("notification service unavailable")
	// ErrNoInteraction means the notification was shown but the service
	// offers no channel to report what the user did with it.
	ErrNoInteraction = errors.New("notification service reports no interactions")
)

// Handler receives interaction callbacks on the platform's own context.
type Handler interface {
	HandleInteraction(requestID string, in notification.Interaction)
}

// Center is a notification service.
type Center interface {
	// SetHandler registers the receiver of interaction callbacks.
	SetHandler(h Handler)
	// Submit hands req to the service. An error means the service rejected it.
	Submit(ctx context.Context, req notification.Request) error
	// Delivered enumerates the visible notifications owned by this process.
	// fn is called once, on the platform's context.
	Delivered(fn func([]notification.Delivered))
	// Remove withdraws every notification whose group tag equals group, or
	// all of them for notification.AllGroups.
	Remove(group string)
	// Withdraw removes the notification delivered for requestID.
	Withdraw(requestID string)
	// ReportsDismissals is true when the service calls back on dismissal.
	// Otherwise dismissals are detected by polling Delivered.
	ReportsDismissals() bool
}

// New returns the Center for this OS. identity reports the installed bundle
// identifier for services that take it by name.
func New(identity func() string) Center {
	return newCenter(identity)
}

// Enumerate waits for c's asynchronous enumeration. ok is false when the
// service did not answer within timeout or ctx ended first.
func Enumerate(ctx context.Context, c Center, timeout time.Duration) (list []notification.Delivered, ok bool) {
	ch := make(chan []notification.Delivered, 1)
	c.Delivered(func(d []notification.Delivered) {
		select {
		case ch <- d:
		default:
		}
	})

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case list = <-ch:
		return list, true
	case <-t.C:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}
