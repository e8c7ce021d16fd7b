// Package progress reports per-post crawl outcomes.
//
// The downloader emits one Event per post it handles. Reporters decide what
// to do with them: print a one-character marker, log them, or record them
// for later inspection.
package progress

import (
	"sync"

	"github.com/Zoidster/BirbBot/pkg/models"
)

// Kind is the outcome of handling one post
type Kind int

const (
	New Kind = iota
	Indirect
	Duplicate
	Skipped
	Unsupported
	Failed
)

// Marker returns the terminal marker for the kind
func (k Kind) Marker() rune {
	switch k {
	case New:
		return '.'
	case Indirect:
		return ';'
	case Duplicate:
		return '_'
	case Skipped, Unsupported:
		return '-'
	default:
		return '!'
	}
}

func (k Kind) String() string {
	switch k {
	case New:
		return "new"
	case Indirect:
		return "indirect"
	case Duplicate:
		return "duplicate"
	case Skipped:
		return "skipped"
	case Unsupported:
		return "unsupported"
	default:
		return "failed"
	}
}

// Event describes what happened to one post
type Event struct {
	Kind     Kind
	Feed     string
	Listing  models.Listing
	PostID   string
	URL      string
	Filename string
	Err      error
}

// Reporter receives progress events
type Reporter interface {
	Report(e Event)
}

// ReporterFunc adapts a function to Reporter
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Finisher is implemented by reporters that need to close off a crawl's output
type Finisher interface {
	Finish()
}

// Finish calls Finish on r if it implements Finisher
func Finish(r Reporter) {
	if f, ok := r.(Finisher); ok {
		f.Finish()
	}
}

// Nop discards every event
var Nop Reporter = ReporterFunc(func(Event) {})

type multi []Reporter

// Multi fans events out to every non-nil reporter in order
func Multi(reporters ...Reporter) Reporter {
	var m multi
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multi) Report(e Event) {
	for _, r := range m {
		r.Report(e)
	}
}

func (m multi) Finish() {
	for _, r := range m {
		Finish(r)
	}
}

// Recorder keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Markers returns the marker sequence of the recorded events
func (r *Recorder) Markers() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]rune, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind.Marker())
	}
	return string(out)
}

// Count returns how many events of kind were recorded
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset drops all recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
