// Package bridge is the surface the command line drives: initialise the
// identity, deliver a notification and wait for its outcome, list and remove
// delivered notifications, clean up on exit.
//
// Every failure past InitNotificationSystem collapses into a "failed"
// outcome or an empty list.
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mblarsen/alerter/internal/bundlehook"
	"github.com/mblarsen/alerter/internal/engine"
	"github.com/mblarsen/alerter/internal/inventory"
	"github.com/mblarsen/alerter/internal/notification"
	"github.com/mblarsen/alerter/internal/platform"
)

const errNotInitialized = "notification system not initialized"

// Config tunes the process bridge.
type Config struct {
	// PollInterval paces dismissal polling. Zero disables it.
	PollInterval time.Duration
	// ListTimeout bounds enumeration of delivered notifications.
	ListTimeout time.Duration
}

// Bridge wires the identity hook, the engine and the inventory to one
// platform service.
type Bridge struct {
	hook      *bundlehook.Hook
	engine    *engine.Engine
	inventory *inventory.Inventory
}

// New builds a bridge over center. A nil clock uses real time.
func New(hook *bundlehook.Hook, center platform.Center, clock engine.Clock, cfg Config) *Bridge {
	return &Bridge{
		hook: hook,
		engine: engine.New(center, clock, engine.Config{
			PollInterval:     cfg.PollInterval,
			EnumerateTimeout: cfg.ListTimeout,
		}),
		inventory: inventory.New(center, cfg.ListTimeout),
	}
}

var (
	defaultOnce   sync.Once
	defaultBridge *Bridge
)

// Default returns the process bridge over the OS notification service. cfg
// is only honoured by the first call.
func Default(cfg Config) *Bridge {
	defaultOnce.Do(func() {
		center := platform.New(bundlehook.Default.Identifier)
		defaultBridge = New(bundlehook.Default, center, nil, cfg)
	})
	return defaultBridge
}

// InitNotificationSystem installs bundleID as the process identity. The
// caller must not deliver when it returns false.
func (b *Bridge) InitNotificationSystem(bundleID string) bool {
	if err := b.hook.Install(bundleID); err != nil {
		slog.Error("Unable to initialize notification system", "sender", bundleID, "err", err)
		return false
	}
	return true
}

// Deliver builds a request from opts, delivers it and waits for the outcome.
func (b *Bridge) Deliver(ctx context.Context, opts notification.Options) (notification.Outcome, notification.Format) {
	format := notification.FormatEvent
	if opts.JSONOutput {
		format = notification.FormatJSON
	}
	if !b.hook.Installed() {
		slog.Error("Refusing delivery", "err", errNotInitialized)
		return b.failed(errNotInitialized), format
	}
	req, err := notification.Build(opts)
	if err != nil {
		slog.Error("Refusing delivery", "err", err)
		return b.failed(err.Error()), format
	}
	return b.engine.Deliver(ctx, req), req.Format
}

func (b *Bridge) failed(reason string) notification.Outcome {
	o := notification.Failed(reason)
	o.ActivatedAt = time.Now()
	return o
}

// DeliverNotification is Deliver rendered as a plain token or a JSON record,
// per opts.JSONOutput.
func (b *Bridge) DeliverNotification(ctx context.Context, opts notification.Options) string {
	return Format(b.Deliver(ctx, opts))
}

// List returns the delivered notifications in group, or all of them for
// notification.AllGroups.
func (b *Bridge) List(ctx context.Context, group string) []Entry {
	list := b.inventory.List(ctx, group)
	out := make([]Entry, 0, len(list))
	for _, d := range list {
		out = append(out, newEntry(d))
	}
	return out
}

// ListNotifications is List as a JSON array. It is "[]" when nothing
// matches or the service did not answer in time.
func (b *Bridge) ListNotifications(ctx context.Context, group string) string {
	data, err := json.MarshalIndent(b.List(ctx, group), "", "  ")
	if err != nil {
		slog.Error("Failed to encode notification list", "err", err)
		return "[]"
	}
	return string(data)
}

// RemoveNotifications withdraws the delivered notifications in group.
func (b *Bridge) RemoveNotifications(group string) {
	b.inventory.Remove(group)
}

// Cleanup withdraws the last delivered notification and resolves pending
// deliveries as closed. Safe to call repeatedly and before initialisation.
func (b *Bridge) Cleanup() {
	b.engine.Cleanup()
}
