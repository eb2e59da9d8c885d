// Package bundlehook makes the process present itself to the notification
// service under a caller-chosen bundle identifier.
//
// The platform answers "what is the main bundle's identifier" through a
// dynamically dispatched method on the bundle class. Install swaps that
// method's implementation for a stub that consults the Hook: queries whose
// receiver is the main bundle observe the fake identifier, every other bundle
// keeps its original answer. The swap itself is a thin Runtime call, the
// guards around it live here.
package bundlehook

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrEmptyIdentifier is returned for an empty or whitespace-only identifier.
	ErrEmptyIdentifier = errors.New("bundle identifier must not be empty")
	// ErrMethodNotFound means the bundle class no longer exposes the identifier method.
	ErrMethodNotFound = errors.New("bundle identifier method not found")
	// ErrReplaceFailed means the runtime refused to swap the implementation.
	ErrReplaceFailed = errors.New("could not replace bundle identifier implementation")
)

// ConflictError is returned when a different identifier is already installed.
type ConflictError struct {
	Installed string
	Requested string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("bundle identifier %q already installed, refusing %q", e.Installed, e.Requested)
}

// Bundle is an opaque handle to a bundle instance.
type Bundle uintptr

// Resolver answers an identifier query for recv. ok is false when the
// original implementation must answer.
type Resolver func(recv Bundle) (id string, ok bool)

// Runtime is the platform's dynamic-dispatch surface.
type Runtime interface {
	// MainBundle returns the handle of the process's main bundle.
	MainBundle() (Bundle, error)
	// Replace routes every identifier query through resolve, keeping the
	// original implementation for queries resolve declines.
	Replace(resolve Resolver) error
}

type installed struct {
	main Bundle
	id   string
}

// Hook guards a single installation per process.
type Hook struct {
	rt Runtime

	mu    sync.Mutex
	state atomic.Pointer[installed]
}

// New creates a hook over rt.
func New(rt Runtime) *Hook {
	return &Hook{rt: rt}
}

// Install arranges for main-bundle identifier queries to return id. A second
// call succeeds only with the same id.
func (h *Hook) Install(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyIdentifier
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if cur := h.state.Load(); cur != nil {
		if cur.id == id {
			return nil
		}
		return &ConflictError{Installed: cur.id, Requested: id}
	}

	main, err := h.rt.MainBundle()
	if err != nil {
		return fmt.Errorf("failed to locate main bundle: %w", err)
	}
	st := &installed{main: main, id: id}
	if err := h.rt.Replace(h.Resolve); err != nil {
		return err
	}
	h.state.Store(st)
	slog.Debug("Installed bundle identifier hook", "id", id)
	return nil
}

// Resolve is the stub's decision: the fake identifier for the main bundle,
// nothing for any other receiver.
func (h *Hook) Resolve(recv Bundle) (string, bool) {
	st := h.state.Load()
	if st == nil || recv != st.main {
		return "", false
	}
	return st.id, true
}

// Identifier returns the installed identifier, or "" before installation.
func (h *Hook) Identifier() string {
	if st := h.state.Load(); st != nil {
		return st.id
	}
	return ""
}

// Installed reports whether Install has succeeded.
func (h *Hook) Installed() bool {
	return h.state.Load() != nil
}

// Default is the process-wide hook over the platform runtime.
var Default = New(platformRuntime())

// Install installs id on the process-wide hook.
func Install(id string) error {
	return Default.Install(id)
}
