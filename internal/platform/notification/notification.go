// Package notification provides the transient feedback sink used by list
// views: success/error/warning/info messages that auto-dismiss after a fixed
// duration and queue instead of overwriting each other.
package notification

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Severity
// ---------------------------------------------------------------------------

// Severity is the visual weight of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Notification
// ---------------------------------------------------------------------------

// Notification is one queued or visible message.
type Notification struct {
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Severity  Severity   `json:"severity"`
	CreatedAt time.Time  `json:"created_at"`
	ShownAt   *time.Time `json:"shown_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Notifier is what list controllers depend on.
type Notifier interface {
	Notify(message string, severity Severity) *Notification
}

// Renderer is told when a notification becomes visible.
type Renderer interface {
	Show(n Notification)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(n Notification)

// Show calls f(n).
func (f RendererFunc) Show(n Notification) { f(n) }

// ---------------------------------------------------------------------------
// Sink
// ---------------------------------------------------------------------------

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithDuration sets how long a notification stays visible.
func WithDuration(d time.Duration) SinkOption {
	return func(s *Sink) { s.duration = d }
}

// WithMaxVisible sets how many notifications may be visible at once.
func WithMaxVisible(n int) SinkOption {
	return func(s *Sink) { s.maxVisible = n }
}

// WithRenderer sets the renderer called on each newly visible notification.
func WithRenderer(r Renderer) SinkOption {
	return func(s *Sink) { s.renderer = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) SinkOption {
	return func(s *Sink) { s.now = now }
}

// Sink holds visible notifications plus a FIFO of those waiting for a slot.
// Each visible notification has a timer that dismisses it and promotes the
// next one; expiry is also checked against the clock on every call.
type Sink struct {
	duration   time.Duration
	maxVisible int
	renderer   Renderer
	now        func() time.Time

	mu      sync.Mutex
	visible []*Notification
	pending []*Notification
	history []Notification
	timers  map[string]*time.Timer
}

// NewSink creates a Sink with a 4s duration and three visible slots.
func NewSink(opts ...SinkOption) *Sink {
	s := &Sink{
		duration:   4 * time.Second,
		maxVisible: 3,
		now:        time.Now,
		timers:     map[string]*time.Timer{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.maxVisible <= 0 {
		s.maxVisible = 1
	}
	if s.duration <= 0 {
		s.duration = 4 * time.Second
	}
	return s
}

// Notify queues a message. Unknown severities are treated as info.
func (s *Sink) Notify(message string, severity Severity) *Notification {
	if !severity.Valid() {
		severity = SeverityInfo
	}
	n := &Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Severity:  severity,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.pending = append(s.pending, n)
	s.history = append(s.history, *n)
	shown := s.advance()
	s.mu.Unlock()

	s.render(shown)
	return n
}

// Notifyf formats and queues a message.
func (s *Sink) Notifyf(severity Severity, format string, args ...any) *Notification {
	return s.Notify(fmt.Sprintf(format, args...), severity)
}

// Visible returns the notifications currently on screen, oldest first.
func (s *Sink) Visible() []Notification {
	s.mu.Lock()
	shown := s.advance()
	out := make([]Notification, len(s.visible))
	for i, n := range s.visible {
		out[i] = *n
	}
	s.mu.Unlock()

	s.render(shown)
	return out
}

// Pending returns the number of notifications waiting for a slot.
func (s *Sink) Pending() int {
	s.mu.Lock()
	shown := s.advance()
	n := len(s.pending)
	s.mu.Unlock()

	s.render(shown)
	return n
}

// Dismiss removes a visible or pending notification early. It returns false
// when the id is unknown or already gone.
func (s *Sink) Dismiss(id string) bool {
	s.mu.Lock()
	found := s.removeVisible(id)
	if !found {
		for i, n := range s.pending {
			if n.ID == id {
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				found = true
				break
			}
		}
	}
	shown := s.advance()
	s.mu.Unlock()

	s.render(shown)
	return found
}

// History returns every notification ever queued, oldest first.
func (s *Sink) History() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.history))
	copy(out, s.history)
	return out
}

// Last returns the most recently queued notification.
func (s *Sink) Last() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return Notification{}, false
	}
	return s.history[len(s.history)-1], true
}

// Flush shows every queued notification at once, oldest first, and stops
// all timers. Call it before the process exits so nothing queued is lost.
func (s *Sink) Flush() {
	s.mu.Lock()
	now := s.now().UTC()
	shown := make([]Notification, 0, len(s.pending))
	for _, n := range s.pending {
		shownAt := now
		n.ShownAt = &shownAt
		shown = append(shown, *n)
	}
	s.pending = nil
	s.visible = nil
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.render(shown)
}

// expire is run by a notification's timer.
func (s *Sink) expire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.removeVisible(id)
	shown := s.advance()
	s.mu.Unlock()

	s.render(shown)
}

// removeVisible drops a visible notification and stops its timer. Callers
// must hold s.mu.
func (s *Sink) removeVisible(id string) bool {
	for i, n := range s.visible {
		if n.ID == id {
			s.visible = append(s.visible[:i], s.visible[i+1:]...)
			s.stopTimer(id)
			return true
		}
	}
	return false
}

func (s *Sink) stopTimer(id string) {
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
}

// advance drops expired notifications and promotes pending ones into free
// slots, starting their timer. Callers must hold s.mu and pass the returned
// notifications to render after unlocking.
func (s *Sink) advance() []Notification {
	now := s.now().UTC()

	kept := s.visible[:0]
	for _, n := range s.visible {
		if n.ExpiresAt != nil && !now.Before(*n.ExpiresAt) {
			s.stopTimer(n.ID)
			continue
		}
		kept = append(kept, n)
	}
	s.visible = kept

	var shown []Notification
	for len(s.visible) < s.maxVisible && len(s.pending) > 0 {
		n := s.pending[0]
		s.pending = s.pending[1:]
		shownAt := now
		expires := now.Add(s.duration)
		n.ShownAt = &shownAt
		n.ExpiresAt = &expires
		id := n.ID
		s.timers[id] = time.AfterFunc(s.duration, func() { s.expire(id) })
		s.visible = append(s.visible, n)
		shown = append(shown, *n)
	}
	return shown
}

func (s *Sink) render(shown []Notification) {
	if s.renderer == nil {
		return
	}
	for _, n := range shown {
		s.renderer.Show(n)
	}
}
