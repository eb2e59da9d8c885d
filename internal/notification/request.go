// Package notification holds the data model shared by the bridge: the
// host-facing option record, the immutable delivery request built from it,
// and the terminal outcome of a delivery.
package notification

import "time"

// AllGroups is the sentinel group meaning "no filter". It is never a real group tag.
const AllGroups = "ALL"

// DefaultSound selects the platform's default notification sound.
const DefaultSound = "default"

// Format selects how the host stringifies an Outcome.
type Format int

const (
	// FormatEvent renders a plain event token such as "@CONTENTCLICKED".
	FormatEvent Format = iota
	// FormatJSON renders a structured JSON record.
	FormatJSON
)

// Reply describes the inline reply affordance of a notification.
type Reply struct {
	// Label is the reply button label. Empty lets the platform choose.
	Label string
	// Placeholder is shown in the empty reply field.
	Placeholder string
}

// Request describes one delivery. It is built by Build and never mutated afterwards.
type Request struct {
	ID       string
	Title    string
	Subtitle string
	Body     string
	GroupID  string

	Actions       []string
	Reply         *Reply
	DropdownLabel string
	CloseLabel    string

	Sound        string
	AppIcon      string
	ContentImage string

	Timeout   time.Duration
	IgnoreDnD bool
	Format    Format
}

// HasActions reports whether the request offers action buttons.
func (r Request) HasActions() bool {
	return len(r.Actions) > 0
}

// ActionLabel returns the label of the action at index i, if any.
func (r Request) ActionLabel(i int) (string, bool) {
	if i < 0 || i >= len(r.Actions) {
		return "", false
	}
	return r.Actions[i], true
}
