//go:build linux

package platform

import (
	"sync"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mblarsen/alerter/internal/notification"
)

type received struct {
	requestID string
	in        notification.Interaction
}

type recordingHandler struct {
	mu  sync.Mutex
	got []received
}

func (h *recordingHandler) HandleInteraction(requestID string, in notification.Interaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.got = append(h.got, received{requestID: requestID, in: in})
}

func (h *recordingHandler) interactions() []received {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]received(nil), h.got...)
}

var deliveredAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestCenter returns a center without a bus connection holding the given
// notifications, keyed by D-Bus id.
func newTestCenter(entries map[uint32]notification.Delivered) (*dbusCenter, *recordingHandler) {
	c := newCenter(nil).(*dbusCenter)
	h := &recordingHandler{}
	c.SetHandler(h)
	for id, d := range entries {
		d.DeliveredAt = deliveredAt.Add(time.Duration(id) * time.Second)
		c.byID[id] = &dbusEntry{requestID: d.RequestID, delivered: d}
		c.byRequest[d.RequestID] = id
	}
	return c, h
}

func TestDbusCenter_ActionInvoked(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected []notification.Interaction
	}{
		{
			name:     "default action is a contents click",
			key:      "default",
			expected: []notification.Interaction{{Kind: notification.InteractionContents, ActionIndex: -1}},
		},
		{
			name:     "reply button without inline reply",
			key:      "inline-reply",
			expected: []notification.Interaction{{Kind: notification.InteractionReplied, ActionIndex: -1}},
		},
		{
			name:     "indexed action",
			key:      "action-1",
			expected: []notification.Interaction{{Kind: notification.InteractionAction, ActionIndex: 1}},
		},
		{
			name:     "malformed action key",
			key:      "action-x",
			expected: nil,
		},
		{
			name:     "unknown key is a plain activation",
			key:      "open",
			expected: []notification.Interaction{{Kind: notification.InteractionActivated, ActionIndex: -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, h := newTestCenter(map[uint32]notification.Delivered{7: {RequestID: "req", GroupID: "g1"}})
			c.actionInvoked(7, tt.key)

			var kinds []notification.Interaction
			for _, r := range h.interactions() {
				assert.Equal(t, "req", r.requestID)
				assert.Equal(t, deliveredAt.Add(7*time.Second), r.in.DeliveredAt)
				r.in.DeliveredAt = time.Time{}
				kinds = append(kinds, r.in)
			}
			assert.Equal(t, tt.expected, kinds)
		})
	}
}

func TestDbusCenter_ActionInvoked_UnknownID(t *testing.T) {
	c, h := newTestCenter(nil)
	c.actionInvoked(42, "default")
	assert.Empty(t, h.interactions())
}

func TestDbusCenter_Closed(t *testing.T) {
	tests := []struct {
		name      string
		reason    uint32
		dismissed bool
	}{
		{name: "expired", reason: closedExpired, dismissed: true},
		{name: "dismissed by the user", reason: closedDismissed, dismissed: true},
		{name: "closed by a call", reason: 3, dismissed: false},
		{name: "undefined reason", reason: 4, dismissed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, h := newTestCenter(map[uint32]notification.Delivered{7: {RequestID: "req", GroupID: "g1"}})
			c.closed(7, tt.reason)

			got := h.interactions()
			if tt.dismissed {
				require.Len(t, got, 1)
				assert.Equal(t, "req", got[0].requestID)
				assert.Equal(t, notification.InteractionDismissed, got[0].in.Kind)
			} else {
				assert.Empty(t, got)
			}
			assert.Empty(t, c.byID)
			assert.Empty(t, c.byRequest)

			c.closed(7, closedDismissed)
			assert.Len(t, h.interactions(), len(got))
		})
	}
}

func TestDbusCenter_Listen(t *testing.T) {
	c, h := newTestCenter(map[uint32]notification.Delivered{
		7: {RequestID: "a", GroupID: "g1"},
		8: {RequestID: "b", GroupID: "g1"},
		9: {RequestID: "c", GroupID: "g2"},
	})

	signals := make(chan *dbus.Signal, 8)
	signals <- &dbus.Signal{Name: dbusInterface + ".ActionInvoked", Body: []interface{}{uint32(7), "action-0"}}
	signals <- &dbus.Signal{Name: dbusInterface + ".NotificationReplied", Body: []interface{}{uint32(8), "v2.0"}}
	signals <- &dbus.Signal{Name: dbusInterface + ".NotificationClosed", Body: []interface{}{uint32(9), uint32(closedDismissed)}}
	signals <- &dbus.Signal{Name: dbusInterface + ".ActionInvoked", Body: []interface{}{"not an id", "default"}}
	signals <- &dbus.Signal{Name: dbusInterface + ".ActionInvoked", Body: []interface{}{uint32(7)}}
	signals <- &dbus.Signal{Name: "org.example.Other", Body: []interface{}{uint32(7), "default"}}
	close(signals)

	c.listen(signals)

	got := h.interactions()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].requestID)
	assert.Equal(t, notification.InteractionAction, got[0].in.Kind)
	assert.Equal(t, 0, got[0].in.ActionIndex)
	assert.Equal(t, "b", got[1].requestID)
	assert.Equal(t, notification.InteractionReplied, got[1].in.Kind)
	assert.Equal(t, "v2.0", got[1].in.Text)
	assert.Equal(t, "c", got[2].requestID)
	assert.Equal(t, notification.InteractionDismissed, got[2].in.Kind)
}

func TestDbusCenter_Remove(t *testing.T) {
	tests := []struct {
		name      string
		group     string
		dismissed []string
		remaining []string
	}{
		{name: "single group", group: "g1", dismissed: []string{"a", "b"}, remaining: []string{"c"}},
		{name: "all groups", group: notification.AllGroups, dismissed: []string{"a", "b", "c"}},
		{name: "unknown group", group: "nope", remaining: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, h := newTestCenter(map[uint32]notification.Delivered{
				7: {RequestID: "a", GroupID: "g1"},
				8: {RequestID: "b", GroupID: "g1"},
				9: {RequestID: "c", GroupID: "g2"},
			})
			c.Remove(tt.group)

			var dismissed []string
			for _, r := range h.interactions() {
				assert.Equal(t, notification.InteractionDismissed, r.in.Kind)
				dismissed = append(dismissed, r.requestID)
			}
			assert.ElementsMatch(t, tt.dismissed, dismissed)

			var remaining []string
			for _, e := range c.byID {
				remaining = append(remaining, e.requestID)
			}
			assert.ElementsMatch(t, tt.remaining, remaining)

			// The service's own close signal arrives afterwards and is ignored.
			n := len(h.interactions())
			c.closed(7, 3)
			c.closed(7, closedDismissed)
			assert.Len(t, h.interactions(), n)
		})
	}
}

func TestDbusCenter_Withdraw(t *testing.T) {
	c, h := newTestCenter(map[uint32]notification.Delivered{7: {RequestID: "a", GroupID: "g1"}})
	c.Withdraw("a")
	c.Withdraw("unknown")

	assert.Empty(t, h.interactions())
	assert.Empty(t, c.byID)
	assert.Empty(t, c.byRequest)
}

func TestDbusCenter_Delivered(t *testing.T) {
	c, _ := newTestCenter(map[uint32]notification.Delivered{
		9: {RequestID: "c", GroupID: "g2"},
		7: {RequestID: "a", GroupID: "g1"},
		8: {RequestID: "b", GroupID: "g1"},
	})

	list, ok := Enumerate(t.Context(), c, time.Second)
	require.True(t, ok)
	var ids []string
	for _, d := range list {
		ids = append(ids, d.RequestID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestDbusCenter_NotifyArgs(t *testing.T) {
	c := &dbusCenter{identity: func() string { return "com.example.ci" }}
	args := c.notifyArgs(notification.Request{
		ID:        "req",
		Title:     "Deploy",
		Subtitle:  "prod",
		Body:      "Ship it?",
		GroupID:   "g1",
		Actions:   []string{"Yes", "No"},
		Reply:     &notification.Reply{Label: "Send", Placeholder: "Why?"},
		Sound:     notification.DefaultSound,
		AppIcon:   "file:///tmp/icon.png",
		IgnoreDnD: true,
		Timeout:   5 * time.Second,
	})
	require.Len(t, args, 8)

	assert.Equal(t, "com.example.ci", args[0])
	assert.Equal(t, uint32(0), args[1])
	assert.Equal(t, "/tmp/icon.png", args[2])
	assert.Equal(t, "Deploy", args[3])
	assert.Equal(t, "prod\nShip it?", args[4])
	assert.Equal(t, []string{"default", "", "action-0", "Yes", "action-1", "No", "inline-reply", "Send"}, args[5])

	hints, ok := args[6].(map[string]dbus.Variant)
	require.True(t, ok)
	assert.Equal(t, "Why?", hints["x-kde-reply-placeholder-text"].Value())
	assert.Equal(t, "Send", hints["x-kde-reply-submit-button-text"].Value())
	assert.Equal(t, byte(2), hints["urgency"].Value())
	assert.Equal(t, "g1", hints["x-alerter-group"].Value())
	assert.NotContains(t, hints, "sound-name")

	// The server must never expire it; the request timeout is the engine's.
	assert.Equal(t, int32(0), args[7])
}

func TestDbusCenter_AppName(t *testing.T) {
	assert.Equal(t, defaultAppName, (&dbusCenter{}).appName())
	assert.Equal(t, defaultAppName, (&dbusCenter{identity: func() string { return "" }}).appName())
	assert.Equal(t, "com.example.ci", (&dbusCenter{identity: func() string { return "com.example.ci" }}).appName())
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		ref      string
		expected string
	}{
		{ref: "", expected: ""},
		{ref: "/tmp/icon.png", expected: "/tmp/icon.png"},
		{ref: "file:///tmp/icon.png", expected: "/tmp/icon.png"},
		{ref: "https://example.com/icon.png", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.expected, localPath(tt.ref))
		})
	}
}
