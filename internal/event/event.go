// Package event carries notable shelf occurrences from the interaction core
// to whoever observes it: metrics, the API and the event store.
package event

import "sync"

// Kind categorizes an event.
type Kind string

const (
	CellAdded        Kind = "cell_added"
	ObjectQueued     Kind = "object_queued"
	ObjectCaptured   Kind = "object_captured"
	ObjectReleased   Kind = "object_released"
	ObjectLeft       Kind = "object_left"
	GrabStarted      Kind = "grab_started"
	GrabStopped      Kind = "grab_stopped"
	Scrolled         Kind = "scrolled"
	TransformSkipped Kind = "transform_skipped"
	CaptureFailed    Kind = "capture_failed"
)

// Event is a notable occurrence on the shelf.
type Event struct {
	Frame   uint64  `json:"frame" db:"frame"`
	Kind    Kind    `json:"kind" db:"kind"`
	Cell    int     `json:"cell" db:"cell"` // -1 when not cell specific
	Subject string  `json:"subject,omitempty" db:"subject"`
	Value   float32 `json:"value" db:"value"`
}

// Recorder receives events. Implementations must not block.
type Recorder interface {
	Record(e Event)
}

// Discard drops every event.
var Discard Recorder = discard{}

type discard struct{}

func (discard) Record(Event) {}

// Stamp returns a recorder that fills in the frame number before
// forwarding.
func Stamp(next Recorder, frame *uint64) Recorder {
	if next == nil {
		next = Discard
	}
	return stamped{next: next, frame: frame}
}

type stamped struct {
	next  Recorder
	frame *uint64
}

func (s stamped) Record(e Event) {
	e.Frame = *s.frame
	s.next.Record(e)
}

// Log is a bounded, concurrency-safe buffer of recent events.
type Log struct {
	mu      sync.Mutex
	events  []Event
	limit   int
	pending []Event
}

// NewLog keeps at most limit recent events.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = 256
	}
	return &Log{limit: limit}
}

// Record appends an event, dropping the oldest beyond the limit.
func (l *Log) Record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	if over := len(l.events) - l.limit; over > 0 {
		l.events = append(l.events[:0], l.events[over:]...)
	}
	l.pending = append(l.pending, e)
	if over := len(l.pending) - 4*l.limit; over > 0 {
		l.pending = append(l.pending[:0], l.pending[over:]...)
	}
}

// Recent returns up to n most recent events, newest first.
func (l *Log) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.events) {
		n = len(l.events)
	}
	out := make([]Event, 0, n)
	for i := len(l.events) - 1; i >= len(l.events)-n; i-- {
		out = append(out, l.events[i])
	}
	return out
}

// Drain returns and clears the events recorded since the last drain.
func (l *Log) Drain() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.pending
	l.pending = nil
	return out
}

// Multi fans events out to several recorders.
func Multi(recs ...Recorder) Recorder {
	return multi(recs)
}

type multi []Recorder

func (m multi) Record(e Event) {
	for _, r := range m {
		if r != nil {
			r.Record(e)
		}
	}
}
