//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Foundation -framework AppKit
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

typedef struct {
	const char *uuid;
	const char *title;
	const char *subtitle;
	const char *body;
	const char *groupID;
	const char **actions;
	int actionCount;
	bool hasReply;
	const char *replyLabel;
	const char *replyPlaceholder;
	const char *dropdownLabel;
	const char *closeLabel;
	const char *sound;
	const char *appIcon;
	const char *contentImage;
	bool ignoreDnD;
} alerterNotification;

int alerterDeliver(alerterNotification *n);
void alerterEnumerate(uintptr_t token);
void alerterRemoveGroup(const char *group);
void alerterWithdraw(const char *uuid);
*/
import "C"

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"runtime/cgo"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/mblarsen/alerter/internal/notification"
)

const (
	activationContents = iota + 1
	activationAction
	activationReplied
)

// activeCenter receives the delegate callbacks. There is one per process.
var activeCenter atomic.Pointer[darwinCenter]

type darwinCenter struct {
	mu      sync.RWMutex
	handler Handler
}

func newCenter(func() string) Center {
	c := &darwinCenter{}
	activeCenter.Store(c)
	return c
}

func (c *darwinCenter) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *darwinCenter) ReportsDismissals() bool {
	return false
}

func (c *darwinCenter) Submit(ctx context.Context, req notification.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var strs []*C.char
	cstr := func(s string) *C.char {
		p := C.CString(s)
		strs = append(strs, p)
		return p
	}
	defer func() {
		for _, p := range strs {
			C.free(unsafe.Pointer(p))
		}
	}()

	n := C.alerterNotification{
		uuid:          cstr(req.ID),
		title:         cstr(req.Title),
		subtitle:      cstr(req.Subtitle),
		body:          cstr(req.Body),
		groupID:       cstr(req.GroupID),
		dropdownLabel: cstr(req.DropdownLabel),
		closeLabel:    cstr(req.CloseLabel),
		sound:         cstr(req.Sound),
		appIcon:       cstr(req.AppIcon),
		contentImage:  cstr(req.ContentImage),
		ignoreDnD:     C.bool(req.IgnoreDnD),
	}
	if req.Reply != nil {
		n.hasReply = C.bool(true)
		n.replyLabel = cstr(req.Reply.Label)
		n.replyPlaceholder = cstr(req.Reply.Placeholder)
	}
	if len(req.Actions) > 0 {
		arr := (**C.char)(C.malloc(C.size_t(len(req.Actions)) * C.size_t(unsafe.Sizeof(uintptr(0)))))
		defer C.free(unsafe.Pointer(arr))
		slots := unsafe.Slice(arr, len(req.Actions))
		for i, label := range req.Actions {
			slots[i] = cstr(label)
		}
		n.actions = arr
		n.actionCount = C.int(len(req.Actions))
	}

	if rc := C.alerterDeliver(&n); rc != 0 {
		return fmt.Errorf("%w: user notification center is nil (is the bundle identifier set?)", ErrUnavailable)
	}
	return nil
}

func (c *darwinCenter) Delivered(fn func([]notification.Delivered)) {
	h := cgo.NewHandle(fn)
	C.alerterEnumerate(C.uintptr_t(h))
}

func (c *darwinCenter) Remove(group string) {
	g := C.CString(group)
	defer C.free(unsafe.Pointer(g))
	C.alerterRemoveGroup(g)
}

func (c *darwinCenter) Withdraw(requestID string) {
	id := C.CString(requestID)
	defer C.free(unsafe.Pointer(id))
	C.alerterWithdraw(id)
}

func (c *darwinCenter) dispatch(requestID string, in notification.Interaction) {
	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()
	if h == nil {
		slog.Warn("Dropping interaction without handler", "id", requestID)
		return
	}
	h.HandleInteraction(requestID, in)
}

func fromEpoch(sec float64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

//export alerterDidActivate
func alerterDidActivate(uuid *C.char, kind C.int, index C.int, value *C.char, deliveredAt C.double) {
	c := activeCenter.Load()
	if c == nil {
		return
	}
	in := notification.Interaction{
		ActionIndex: int(index),
		DeliveredAt: fromEpoch(float64(deliveredAt)),
	}
	v := C.GoString(value)
	switch kind {
	case activationContents:
		in.Kind = notification.InteractionContents
	case activationAction:
		in.Kind = notification.InteractionAction
		in.ActionLabel = v
	case activationReplied:
		in.Kind = notification.InteractionReplied
		in.Text = v
	default:
		in.Kind = notification.InteractionActivated
	}
	c.dispatch(C.GoString(uuid), in)
}

type deliveredEntry struct {
	UUID        string  `json:"uuid"`
	GroupID     string  `json:"groupID"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Message     string  `json:"message"`
	DeliveredAt float64 `json:"deliveredAt"`
}

//export alerterDidEnumerate
func alerterDidEnumerate(token C.uintptr_t, payload *C.char) {
	h := cgo.Handle(token)
	fn := h.Value().(func([]notification.Delivered))
	h.Delete()

	var entries []deliveredEntry
	if err := json.Unmarshal([]byte(C.GoString(payload)), &entries); err != nil {
		slog.Error("Failed to decode delivered notifications", "err", err)
		fn(nil)
		return
	}
	out := make([]notification.Delivered, 0, len(entries))
	for _, e := range entries {
		out = append(out, notification.Delivered{
			RequestID:   e.UUID,
			GroupID:     e.GroupID,
			Title:       e.Title,
			Subtitle:    e.Subtitle,
			Message:     e.Message,
			DeliveredAt: fromEpoch(e.DeliveredAt),
		})
	}
	fn(out)
}
