package notification

import "time"

// Kind tags the terminal state of a single delivery.
type Kind int

const (
	// KindActivated is an activation the platform could not classify further.
	KindActivated Kind = iota
	// KindContentsClicked is a click on the notification body.
	KindContentsClicked
	// KindActionClicked is a choice among the action buttons.
	KindActionClicked
	// KindReplied is a submitted inline reply.
	KindReplied
	// KindDismissed is a close without any other interaction.
	KindDismissed
	// KindTimedOut means nobody interacted before the request's timeout.
	KindTimedOut
	// KindFailed means the notification never reached the user.
	KindFailed
)

func (k Kind) String() string {
	switch k {
	case KindActivated:
		return "activated"
	case KindContentsClicked:
		return "contentsClicked"
	case KindActionClicked:
		return "actionClicked"
	case KindReplied:
		return "replied"
	case KindDismissed:
		return "closed"
	case KindTimedOut:
		return "timeout"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is what happened to a delivered request.
type Outcome struct {
	Kind Kind
	// Value is the chosen action label, the reply text, or the failure reason.
	Value string
	// Index is the position of the chosen action, or -1.
	Index       int
	GroupID     string
	DeliveredAt time.Time
	ActivatedAt time.Time
}

// Failed builds a KindFailed outcome carrying reason.
func Failed(reason string) Outcome {
	return Outcome{Kind: KindFailed, Value: reason, Index: -1}
}

// InteractionKind is the code a platform reports for a user interaction.
type InteractionKind int

const (
	InteractionActivated InteractionKind = iota
	InteractionContents
	InteractionAction
	InteractionReplied
	InteractionDismissed
)

// Interaction is reported by the platform on its own dispatch context.
type Interaction struct {
	Kind InteractionKind
	// ActionIndex is the position of the chosen action, or -1 when the
	// platform only knows the label.
	ActionIndex int
	ActionLabel string
	Text        string
	// DeliveredAt is the platform's delivery instant, zero when unknown.
	DeliveredAt time.Time
}

// Delivered is one entry of the platform's list of visible notifications.
type Delivered struct {
	RequestID   string
	GroupID     string
	Title       string
	Subtitle    string
	Message     string
	DeliveredAt time.Time
}
