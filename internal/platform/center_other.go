//go:build !darwin && !linux

package platform

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/gen2brain/beeep"

	"github.com/mblarsen/alerter/internal/notification"
)

// beeepCenter shows notifications through beeep. The service behind it
// gives no callbacks, so every delivery ends as a failure once shown.
type beeepCenter struct{}

func newCenter(func() string) Center {
	return beeepCenter{}
}

func (beeepCenter) SetHandler(Handler) {}

func (beeepCenter) ReportsDismissals() bool {
	return false
}

func (beeepCenter) Submit(_ context.Context, req notification.Request) error {
	body := req.Body
	if req.Subtitle != "" {
		body = req.Subtitle + "\n" + req.Body
	}
	if err := beeep.Notify(req.Title, body, iconPath(req.AppIcon)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ErrNoInteraction
}

func iconPath(ref string) string {
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme == "file" {
		return filepath.FromSlash(u.Path)
	}
	return ""
}

func (beeepCenter) Delivered(fn func([]notification.Delivered)) {
	go fn(nil)
}

func (beeepCenter) Remove(string) {}

func (beeepCenter) Withdraw(string) {}
