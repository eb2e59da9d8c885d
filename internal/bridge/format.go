package bridge

import (
	"encoding/json"
	"time"

	"github.com/mblarsen/alerter/internal/notification"
)

// Plain event tokens.
const (
	EventActivated      = "activated"
	EventClosed         = "closed"
	EventTimeout        = "timeout"
	EventFailed         = "failed"
	EventContentClicked = "@CONTENTCLICKED"
	EventActionClicked  = "@ACTIONCLICKED"
	EventReplied        = "@REPLIED"
)

// TimeFormat is used for every instant in structured output.
const TimeFormat = time.RFC3339

// Event returns the plain token for o.
func Event(o notification.Outcome) string {
	switch o.Kind {
	case notification.KindContentsClicked:
		return EventContentClicked
	case notification.KindActionClicked:
		return EventActionClicked
	case notification.KindReplied:
		return EventReplied
	case notification.KindDismissed:
		return EventClosed
	case notification.KindTimedOut:
		return EventTimeout
	case notification.KindFailed:
		return EventFailed
	default:
		return EventActivated
	}
}

// ActivationType returns the structured record's activationType for o. An
// unclassified activation counts as a click on the contents.
func ActivationType(o notification.Outcome) string {
	if o.Kind == notification.KindActivated {
		return notification.KindContentsClicked.String()
	}
	return o.Kind.String()
}

// Record is the structured form of an Outcome.
type Record struct {
	ActivationType       string `json:"activationType"`
	ActivationValue      string `json:"activationValue"`
	ActivationValueIndex *int   `json:"activationValueIndex,omitempty"`
	ActivationAt         string `json:"activationAt"`
	DeliveredAt          string `json:"deliveredAt"`
	GroupID              string `json:"groupID"`
}

// NewRecord converts o.
func NewRecord(o notification.Outcome) Record {
	r := Record{
		ActivationType:  ActivationType(o),
		ActivationValue: o.Value,
		ActivationAt:    stamp(o.ActivatedAt),
		DeliveredAt:     stamp(o.DeliveredAt),
		GroupID:         o.GroupID,
	}
	if o.Kind == notification.KindActionClicked && o.Index >= 0 {
		i := o.Index
		r.ActivationValueIndex = &i
	}
	return r
}

// Entry is one element of ListNotifications' array.
type Entry struct {
	GroupID     string `json:"groupID"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Message     string `json:"message"`
	DeliveredAt string `json:"deliveredAt"`
}

func newEntry(d notification.Delivered) Entry {
	return Entry{
		GroupID:     d.GroupID,
		Title:       d.Title,
		Subtitle:    d.Subtitle,
		Message:     d.Message,
		DeliveredAt: stamp(d.DeliveredAt),
	}
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}

// Format stringifies o as a plain token or a JSON record.
func Format(o notification.Outcome, f notification.Format) string {
	if f != notification.FormatJSON {
		return Event(o)
	}
	data, err := json.MarshalIndent(NewRecord(o), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
