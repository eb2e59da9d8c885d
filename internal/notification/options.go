package notification

import (
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Options is the option record supplied by the host. Actions and Reply use
// the comma-delimited form accepted on the command line.
type Options struct {
	Title    string
	Subtitle string
	Message  string
	GroupID  string

	// Actions is a comma-separated list of action labels.
	Actions string
	// Reply enables the reply affordance when non-nil. The first
	// comma-separated element is the button label, the rest the placeholder.
	Reply         *string
	DropdownLabel string
	CloseLabel    string

	AppIcon      string
	ContentImage string
	Sound        string

	// Timeout is in whole seconds. Zero means no timeout.
	Timeout    int
	IgnoreDnD  bool
	JSONOutput bool
}

// InvalidOptionsError reports an option that cannot be turned into a request.
type InvalidOptionsError struct {
	Field  string
	Reason string
}

func (e *InvalidOptionsError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// maxTimeout is the largest timeout in seconds a time.Duration can hold.
const maxTimeout = math.MaxInt64 / int64(time.Second)

// newID is overridable for testing.
var newID = uuid.NewString

// Build validates opts and turns them into a Request with a fresh id.
func Build(opts Options) (Request, error) {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		return Request{}, &InvalidOptionsError{Field: "title", Reason: "title is required"}
	}
	if opts.Timeout < 0 {
		return Request{}, &InvalidOptionsError{Field: "timeout", Reason: "must not be negative"}
	}
	if int64(opts.Timeout) > maxTimeout {
		return Request{}, &InvalidOptionsError{Field: "timeout", Reason: fmt.Sprintf("must not exceed %d seconds", maxTimeout)}
	}

	sound, err := parseSound(opts.Sound)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		ID:            newID(),
		Title:         title,
		Subtitle:      strings.TrimSpace(opts.Subtitle),
		Body:          strings.TrimSpace(opts.Message),
		GroupID:       strings.TrimSpace(opts.GroupID),
		Actions:       ParseActions(opts.Actions),
		DropdownLabel: strings.TrimSpace(opts.DropdownLabel),
		CloseLabel:    strings.TrimSpace(opts.CloseLabel),
		Sound:         sound,
		AppIcon:       imageRef("appIcon", opts.AppIcon),
		ContentImage:  imageRef("contentImage", opts.ContentImage),
		Timeout:       time.Duration(opts.Timeout) * time.Second,
		IgnoreDnD:     opts.IgnoreDnD,
	}
	if opts.Reply != nil {
		r := ParseReply(*opts.Reply)
		req.Reply = &r
	}
	if opts.JSONOutput {
		req.Format = FormatJSON
	}
	return req, nil
}

// ParseActions splits a comma-separated label list. Blank labels are dropped.
func ParseActions(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var labels []string
	for _, part := range strings.Split(s, ",") {
		if label := strings.TrimSpace(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// ParseReply splits "label,placeholder". Everything after the first comma
// belongs to the placeholder.
func ParseReply(s string) Reply {
	label, placeholder, _ := strings.Cut(s, ",")
	return Reply{
		Label:       strings.TrimSpace(label),
		Placeholder: strings.TrimSpace(placeholder),
	}
}

func parseSound(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	token := strings.TrimSpace(s)
	if token == "" || strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return "", &InvalidOptionsError{Field: "sound", Reason: "must be a single non-empty token"}
	}
	return token, nil
}

// imageRef keeps ref if it is an absolute file path or an absolute URL, and
// drops it otherwise.
func imageRef(field, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if IsImageRef(ref) {
		return ref
	}
	slog.Warn("Ignoring malformed image reference", "field", field, "ref", ref)
	return ""
}

// IsImageRef reports whether ref is a well-formed absolute file path or absolute URL.
func IsImageRef(ref string) bool {
	if filepath.IsAbs(ref) {
		return !strings.ContainsRune(ref, 0)
	}
	u, err := url.Parse(ref)
	if err != nil || !u.IsAbs() {
		return false
	}
	if u.Scheme == "file" {
		return u.Path != "" && filepath.IsAbs(u.Path)
	}
	return u.Host != ""
}
