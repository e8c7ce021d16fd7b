package progress

import (
	"io"
	"sync"

	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/ui"
)

// MarkerWriter prints one marker per event on a single line
type MarkerWriter struct {
	mu      sync.Mutex
	w       io.Writer
	color   bool
	pending bool
}

// NewMarkerWriter creates a marker writer; color enables ANSI colors
func NewMarkerWriter(w io.Writer, color bool) *MarkerWriter {
	return &MarkerWriter{w: w, color: color}
}

func (m *MarkerWriter) Report(e Event) {
	marker := string(e.Kind.Marker())
	if m.color {
		marker = colorFor(e.Kind)(marker)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	io.WriteString(m.w, marker)
	m.pending = true
}

// Finish ends the marker line
func (m *MarkerWriter) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending {
		io.WriteString(m.w, "\n")
		m.pending = false
	}
}

func colorFor(k Kind) func(string) string {
	switch k {
	case New:
		return ui.Green
	case Indirect:
		return ui.Cyan
	case Duplicate:
		return ui.Dim
	case Failed:
		return ui.Red
	default:
		return ui.Yellow
	}
}

// LogReporter logs every event at debug level
type LogReporter struct {
	logger logger.Logger
}

// NewLogReporter creates a reporter writing to log
func NewLogReporter(log logger.Logger) *LogReporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LogReporter{logger: log}
}

func (l *LogReporter) Report(e Event) {
	fields := map[string]interface{}{
		"outcome":   e.Kind.String(),
		"subreddit": e.Feed,
		"listing":   string(e.Listing),
		"post_id":   e.PostID,
	}
	if e.Filename != "" {
		fields["filename"] = e.Filename
	}
	if e.URL != "" {
		fields["url"] = e.URL
	}

	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	l.logger.DebugWithFields("Post handled", fields)
}
