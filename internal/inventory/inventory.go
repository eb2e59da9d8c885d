// Package inventory lists and removes the notifications this process has
// left on screen.
package inventory

import (
	"context"
	"log/slog"
	"time"

	"github.com/mblarsen/alerter/internal/notification"
	"github.com/mblarsen/alerter/internal/platform"
)

// DefaultTimeout bounds how long List waits for the service to answer.
const DefaultTimeout = 3 * time.Second

// Inventory queries a platform.Center.
type Inventory struct {
	center  platform.Center
	timeout time.Duration
}

// New returns an inventory over center. A non-positive timeout selects
// DefaultTimeout.
func New(center platform.Center, timeout time.Duration) *Inventory {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Inventory{center: center, timeout: timeout}
}

// List returns the visible notifications whose group equals group, or all of
// them for notification.AllGroups. An unresponsive service yields an empty
// list.
func (inv *Inventory) List(ctx context.Context, group string) []notification.Delivered {
	all, ok := platform.Enumerate(ctx, inv.center, inv.timeout)
	if !ok {
		slog.Warn("Notification service did not list delivered notifications", "timeout", inv.timeout)
		return nil
	}
	if group == notification.AllGroups {
		return all
	}
	var out []notification.Delivered
	for _, d := range all {
		if d.GroupID == group {
			out = append(out, d)
		}
	}
	return out
}

// Remove withdraws every visible notification in group, or all of them for
// notification.AllGroups. It does not wait for the service.
func (inv *Inventory) Remove(group string) {
	slog.Debug("Removing notifications", "group", group)
	inv.center.Remove(group)
}
