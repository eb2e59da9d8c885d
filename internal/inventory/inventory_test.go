package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mblarsen/alerter/internal/notification"
	"github.com/mblarsen/alerter/internal/platform/platformtest"
)

func seed(t *testing.T, center *platformtest.Center) {
	t.Helper()
	for _, r := range []notification.Request{
		{ID: "a", Title: "Build", Body: "done", GroupID: "g1"},
		{ID: "b", Title: "Deploy", Body: "started", GroupID: "g2"},
		{ID: "c", Title: "Build", Body: "failed", GroupID: "g1"},
		{ID: "d", Title: "Loose", Body: "no group"},
	} {
		require.NoError(t, center.Submit(context.Background(), r))
	}
}

func ids(list []notification.Delivered) []string {
	var out []string
	for _, d := range list {
		out = append(out, d.RequestID)
	}
	return out
}

func TestList(t *testing.T) {
	center := platformtest.New()
	seed(t, center)
	inv := New(center, time.Second)

	tests := []struct {
		group string
		want  []string
	}{
		{group: notification.AllGroups, want: []string{"a", "b", "c", "d"}},
		{group: "g1", want: []string{"a", "c"}},
		{group: "g2", want: []string{"b"}},
		{group: "nope", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			list := inv.List(context.Background(), tt.group)
			assert.Equal(t, tt.want, ids(list))
			for _, d := range list {
				if tt.group != notification.AllGroups {
					assert.Equal(t, tt.group, d.GroupID)
				}
			}
		})
	}
}

func TestList_Unresponsive(t *testing.T) {
	center := platformtest.New()
	seed(t, center)
	center.Silent = true
	inv := New(center, 20*time.Millisecond)

	start := time.Now()
	assert.Empty(t, inv.List(context.Background(), notification.AllGroups))
	assert.Less(t, time.Since(start), time.Second)
}

func TestList_Cancelled(t *testing.T) {
	center := platformtest.New()
	center.Silent = true
	inv := New(center, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, inv.List(ctx, notification.AllGroups))
}

func TestRemove(t *testing.T) {
	center := platformtest.New()
	seed(t, center)
	inv := New(center, time.Second)

	inv.Remove("g1")
	assert.Equal(t, []string{"b", "d"}, ids(inv.List(context.Background(), notification.AllGroups)))
	assert.ElementsMatch(t, []string{"a", "c"}, center.Withdrawn())

	inv.Remove("unknown")
	assert.Len(t, center.Visible(), 2)

	inv.Remove(notification.AllGroups)
	assert.Empty(t, inv.List(context.Background(), notification.AllGroups))
}

func TestNew_DefaultTimeout(t *testing.T) {
	inv := New(platformtest.New(), 0)
	assert.Equal(t, DefaultTimeout, inv.timeout)
}
