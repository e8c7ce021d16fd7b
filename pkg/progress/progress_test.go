package progress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zoidster/BirbBot/pkg/logger"
	"github.com/Zoidster/BirbBot/pkg/models"
)

func TestKindMarkers(t *testing.T) {
	tests := []struct {
		kind   Kind
		marker rune
		name   string
	}{
		{New, '.', "new"},
		{Indirect, ';', "indirect"},
		{Duplicate, '_', "duplicate"},
		{Skipped, '-', "skipped"},
		{Unsupported, '-', "unsupported"},
		{Failed, '!', "failed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.marker, tt.kind.Marker(), tt.name)
		assert.Equal(t, tt.name, tt.kind.String())
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Report(Event{Kind: Indirect, PostID: "a"})
	r.Report(Event{Kind: New, PostID: "a"})
	r.Report(Event{Kind: Duplicate, PostID: "b"})

	assert.Equal(t, ";._", r.Markers())
	assert.Equal(t, 1, r.Count(New))
	assert.Len(t, r.Events(), 3)

	r.Reset()
	assert.Empty(t, r.Events())
}

func TestMarkerWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewMarkerWriter(&buf, false)

	w.Finish()
	assert.Empty(t, buf.String())

	w.Report(Event{Kind: New})
	w.Report(Event{Kind: Duplicate})
	w.Report(Event{Kind: Unsupported})
	w.Finish()

	assert.Equal(t, "._-\n", buf.String())
}

func TestMarkerWriterColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewMarkerWriter(&buf, true)

	w.Report(Event{Kind: New})
	assert.Equal(t, "\033[32m.\033[0m", buf.String())
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	var buf bytes.Buffer
	m := Multi(a, nil, b, NewMarkerWriter(&buf, false))

	m.Report(Event{Kind: Skipped})
	Finish(m)

	assert.Equal(t, "-", a.Markers())
	assert.Equal(t, "-", b.Markers())
	assert.Equal(t, "-\n", buf.String())
}

func TestLogReporter(t *testing.T) {
	log := logger.NewTestLogger()
	r := NewLogReporter(log)

	r.Report(Event{Kind: New, Feed: "birbs", Listing: models.ListingHot, PostID: "a", Filename: "a.jpg"})
	r.Report(Event{Kind: Failed, Feed: "birbs", Listing: models.ListingTop, PostID: "b", Err: errors.New("503")})

	debug := log.GetMessagesByLevel("DEBUG")
	if assert.Len(t, debug, 2) {
		assert.Equal(t, "a.jpg", debug[0].Fields["filename"])
		assert.Equal(t, "hot", debug[0].Fields["listing"])
		assert.Equal(t, "failed", debug[1].Fields["outcome"])
		assert.Equal(t, "503", debug[1].Fields["error"])
	}
}

func TestFinishIgnoresPlainReporters(t *testing.T) {
	Finish(Nop)
	Finish(NewRecorder())
}
