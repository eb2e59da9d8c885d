//go:build linux

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/mblarsen/alerter/internal/notification"
)

const (
	dbusDest      = "org.freedesktop.Notifications"
	dbusPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	dbusInterface = "org.freedesktop.Notifications"

	actionDefault = "default"
	actionReply   = "inline-reply"
	actionPrefix  = "action-"

	// Close reasons from the notification spec.
	closedExpired   = 1
	closedDismissed = 2

	// neverExpire keeps the notification up until the user acts. Timeouts
	// belong to the engine.
	neverExpire = int32(0)

	defaultAppName = "alerter"
)

type dbusEntry struct {
	requestID string
	delivered notification.Delivered
}

// dbusCenter talks to the freedesktop notification service on the session bus.
type dbusCenter struct {
	identity func() string

	once    sync.Once
	conn    *dbus.Conn
	connErr error

	mu        sync.Mutex
	handler   Handler
	byID      map[uint32]*dbusEntry
	byRequest map[string]uint32
}

func newCenter(identity func() string) Center {
	return &dbusCenter{
		identity:  identity,
		byID:      make(map[uint32]*dbusEntry),
		byRequest: make(map[string]uint32),
	}
}

func (c *dbusCenter) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *dbusCenter) ReportsDismissals() bool {
	return true
}

func (c *dbusCenter) connect() error {
	c.once.Do(func() {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			c.connErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			return
		}
		if err := conn.AddMatchSignal(
			dbus.WithMatchObjectPath(dbusPath),
			dbus.WithMatchInterface(dbusInterface),
		); err != nil {
			conn.Close()
			c.connErr = fmt.Errorf("%w: failed to subscribe to signals: %v", ErrUnavailable, err)
			return
		}
		signals := make(chan *dbus.Signal, 16)
		conn.Signal(signals)
		c.conn = conn
		go c.listen(signals)
	})
	return c.connErr
}

func (c *dbusCenter) appName() string {
	if c.identity != nil {
		if id := c.identity(); id != "" {
			return id
		}
	}
	return defaultAppName
}

func (c *dbusCenter) Submit(ctx context.Context, req notification.Request) error {
	if err := c.connect(); err != nil {
		return err
	}

	var id uint32
	call := c.conn.Object(dbusDest, dbusPath).CallWithContext(ctx, dbusInterface+".Notify", 0, c.notifyArgs(req)...)
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify call failed: %w", err)
	}

	c.mu.Lock()
	c.byID[id] = &dbusEntry{
		requestID: req.ID,
		delivered: notification.Delivered{
			RequestID:   req.ID,
			GroupID:     req.GroupID,
			Title:       req.Title,
			Subtitle:    req.Subtitle,
			Message:     req.Body,
			DeliveredAt: time.Now().UTC(),
		},
	}
	c.byRequest[req.ID] = id
	c.mu.Unlock()
	slog.Debug("Submitted notification over D-Bus", "id", req.ID, "dbus_id", id)
	return nil
}

// notifyArgs builds the arguments of the Notify call for req.
func (c *dbusCenter) notifyArgs(req notification.Request) []interface{} {
	body := req.Body
	if req.Subtitle != "" {
		body = strings.TrimSpace(req.Subtitle + "\n" + req.Body)
	}

	actions := []string{actionDefault, ""}
	for i, label := range req.Actions {
		actions = append(actions, actionPrefix+strconv.Itoa(i), label)
	}

	hints := map[string]dbus.Variant{}
	if req.Reply != nil {
		actions = append(actions, actionReply, req.Reply.Label)
		if req.Reply.Placeholder != "" {
			hints["x-kde-reply-placeholder-text"] = dbus.MakeVariant(req.Reply.Placeholder)
		}
		if req.Reply.Label != "" {
			hints["x-kde-reply-submit-button-text"] = dbus.MakeVariant(req.Reply.Label)
		}
	}
	if req.Sound != "" && req.Sound != notification.DefaultSound {
		hints["sound-name"] = dbus.MakeVariant(req.Sound)
	}
	if req.IgnoreDnD {
		hints["urgency"] = dbus.MakeVariant(byte(2))
	}
	if img := localPath(req.ContentImage); img != "" {
		hints["image-path"] = dbus.MakeVariant(img)
	}
	if req.GroupID != "" {
		hints["x-alerter-group"] = dbus.MakeVariant(req.GroupID)
	}

	return []interface{}{
		c.appName(),
		uint32(0),
		localPath(req.AppIcon),
		req.Title,
		body,
		actions,
		hints,
		neverExpire,
	}
}

// localPath turns an image reference into something the service can open.
// Only local files are supported.
func localPath(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme == "file" {
		return u.Path
	}
	return ""
}

func (c *dbusCenter) listen(signals <-chan *dbus.Signal) {
	for sig := range signals {
		if len(sig.Body) < 2 {
			continue
		}
		id, ok := sig.Body[0].(uint32)
		if !ok {
			continue
		}
		switch sig.Name {
		case dbusInterface + ".ActionInvoked":
			key, _ := sig.Body[1].(string)
			c.actionInvoked(id, key)
		case dbusInterface + ".NotificationReplied":
			text, _ := sig.Body[1].(string)
			c.interact(id, notification.Interaction{Kind: notification.InteractionReplied, ActionIndex: -1, Text: text})
		case dbusInterface + ".NotificationClosed":
			reason, _ := sig.Body[1].(uint32)
			c.closed(id, reason)
		}
	}
}

func (c *dbusCenter) actionInvoked(id uint32, key string) {
	switch {
	case key == actionDefault:
		c.interact(id, notification.Interaction{Kind: notification.InteractionContents, ActionIndex: -1})
	case key == actionReply:
		// Servers without inline replies report the reply button as an action.
		c.interact(id, notification.Interaction{Kind: notification.InteractionReplied, ActionIndex: -1})
	case strings.HasPrefix(key, actionPrefix):
		i, err := strconv.Atoi(strings.TrimPrefix(key, actionPrefix))
		if err != nil {
			slog.Warn("Ignoring unknown action key", "key", key)
			return
		}
		c.interact(id, notification.Interaction{Kind: notification.InteractionAction, ActionIndex: i})
	default:
		c.interact(id, notification.Interaction{Kind: notification.InteractionActivated, ActionIndex: -1})
	}
}

func (c *dbusCenter) closed(id uint32, reason uint32) {
	c.mu.Lock()
	e, ok := c.byID[id]
	if ok {
		delete(c.byID, id)
		delete(c.byRequest, e.requestID)
	}
	h := c.handler
	c.mu.Unlock()

	if !ok || h == nil {
		return
	}
	if reason == closedDismissed || reason == closedExpired {
		h.HandleInteraction(e.requestID, notification.Interaction{
			Kind:        notification.InteractionDismissed,
			ActionIndex: -1,
			DeliveredAt: e.delivered.DeliveredAt,
		})
	}
}

func (c *dbusCenter) interact(id uint32, in notification.Interaction) {
	c.mu.Lock()
	e, ok := c.byID[id]
	h := c.handler
	c.mu.Unlock()
	if !ok || h == nil {
		return
	}
	in.DeliveredAt = e.delivered.DeliveredAt
	h.HandleInteraction(e.requestID, in)
}

func (c *dbusCenter) Delivered(fn func([]notification.Delivered)) {
	c.mu.Lock()
	out := make([]notification.Delivered, 0, len(c.byID))
	for _, e := range c.byID {
		out = append(out, e.delivered)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeliveredAt.Before(out[j].DeliveredAt)
	})
	go fn(out)
}

// Remove closes the matching notifications. The service does not tell us
// about closes we asked for, so pending deliveries are told here.
func (c *dbusCenter) Remove(group string) {
	c.mu.Lock()
	var ids []uint32
	for id, e := range c.byID {
		if group == notification.AllGroups || e.delivered.GroupID == group {
			ids = append(ids, id)
		}
	}
	h := c.handler
	c.mu.Unlock()
	for _, id := range ids {
		e := c.close(id)
		if e == nil || h == nil {
			continue
		}
		h.HandleInteraction(e.requestID, notification.Interaction{
			Kind:        notification.InteractionDismissed,
			ActionIndex: -1,
			DeliveredAt: e.delivered.DeliveredAt,
		})
	}
}

func (c *dbusCenter) Withdraw(requestID string) {
	c.mu.Lock()
	id, ok := c.byRequest[requestID]
	c.mu.Unlock()
	if ok {
		c.close(id)
	}
}

// close forgets id and asks the service to close it. It returns the
// forgotten entry, nil if id was unknown.
func (c *dbusCenter) close(id uint32) *dbusEntry {
	c.mu.Lock()
	e, ok := c.byID[id]
	if ok {
		delete(c.byID, id)
		delete(c.byRequest, e.requestID)
	}
	c.mu.Unlock()
	if !ok {
		return nil
	}

	if c.conn != nil {
		call := c.conn.Object(dbusDest, dbusPath).Call(dbusInterface+".CloseNotification", 0, id)
		if call.Err != nil {
			slog.Warn("Failed to close notification", "dbus_id", id, "err", call.Err)
		}
	}
	return e
}
