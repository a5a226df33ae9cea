// Package status implements the transient status banner shown after a song
// request. A status clears itself after a fixed display duration.
package status

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDuration is how long a status stays visible.
const DefaultDuration = 2000 * time.Millisecond

// Type tags a Status.
type Type string

const (
	TypeNone    Type = "none"
	TypeSuccess Type = "success"
	TypeError   Type = "error"
)

// Status is the banner currently on display.
type Status struct {
	Type    Type   `json:"type"`
	Message string `json:"message,omitempty"`
}

// None is the empty status.
func None() Status { return Status{Type: TypeNone} }

// Success is a status reporting an accepted request.
func Success(message string) Status { return Status{Type: TypeSuccess, Message: message} }

// Error is a status reporting a failed request.
func Error(message string) Status { return Status{Type: TypeError, Message: message} }

// Active reports whether the status is visible.
func (s Status) Active() bool {
	return s.Type == TypeSuccess || s.Type == TypeError
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(n *Notifier) {
		if c != nil {
			n.clock = c
		}
	}
}

// WithDuration sets the display duration.
func WithDuration(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.duration = d
		}
	}
}

// Notifier holds at most one active status and its pending clear.
type Notifier struct {
	// deliverMu is held from a transition through its delivery so listeners
	// observe transitions in order. It is taken before mu.
	deliverMu sync.Mutex

	mu       sync.Mutex
	clock    clock.Clock
	duration time.Duration
	current  Status
	timer    *clock.Timer
	gen      uint64
	closed   bool
	onChange []func(Status)
}

// New creates a Notifier showing no status.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		clock:    clock.New(),
		duration: DefaultDuration,
		current:  None(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// OnChange registers fn to receive every transition.
// fn is called without the state lock held, so it may call Current, but it
// must not call Show.
func (n *Notifier) OnChange(fn func(Status)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = append(n.onChange, fn)
}

// Current returns the status on display.
func (n *Notifier) Current() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Duration returns the display duration.
func (n *Notifier) Duration() time.Duration {
	return n.duration
}

// Show replaces the status and schedules its clear. Any earlier pending
// clear is canceled. Calls after Close are ignored.
func (n *Notifier) Show(s Status) {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.stopLocked()
	n.current = s
	if s.Active() {
		gen := n.gen
		n.timer = n.clock.AfterFunc(n.duration, func() { n.expire(gen) })
	}
	listeners := n.listenersLocked()
	n.mu.Unlock()

	notify(listeners, s)
}

// Close cancels the pending clear. No transition is published afterwards.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	n.stopLocked()
	n.current = None()
}

func (n *Notifier) expire(gen uint64) {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	n.mu.Lock()
	// A superseded timer may still fire if Stop lost the race.
	if n.closed || gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.current = None()
	listeners := n.listenersLocked()
	n.mu.Unlock()

	notify(listeners, None())
}

func (n *Notifier) stopLocked() {
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) listenersLocked() []func(Status) {
	out := make([]func(Status), len(n.onChange))
	copy(out, n.onChange)
	return out
}

func notify(listeners []func(Status), s Status) {
	for _, fn := range listeners {
		fn(s)
	}
}
