package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Zoidster/BirbBot/pkg/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug json", &config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"empty level defaults to info", &config.LoggingConfig{}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "birbbot.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.level)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	l, err := New(&config.LoggingConfig{Level: "disabled"})
	require.NoError(t, err)

	parent := l.(*zerologLogger)
	child := l.WithField("feed", "birbs").WithFields(map[string]interface{}{"listing": "hot"}).(*zerologLogger)

	assert.Empty(t, parent.fields)
	assert.Equal(t, "birbs", child.fields["feed"])
	assert.Equal(t, "hot", child.fields["listing"])
}

func TestTestLoggerCapturesFields(t *testing.T) {
	tl := NewTestLogger()

	tl.WithField("feed", "birbs").WithError(errors.New("boom")).Error("Crawl cycle failed")
	tl.InfoWithFields("Component started", map[string]interface{}{"component": "scheduler"})

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "ERROR", msgs[0].Level)
	assert.Equal(t, "birbs", msgs[0].Fields["feed"])
	assert.Equal(t, "boom", msgs[0].Fields["error"])
	assert.True(t, tl.HasError())
	assert.True(t, tl.HasMessage("Component started"))

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestLogCycle(t *testing.T) {
	tl := NewTestLogger()

	LogCycle(tl, "birbs", 3, 0, nil)
	LogCycle(tl, "birbs", 0, 0, errors.New("feed not found"))

	assert.True(t, tl.HasMessage("Crawl cycle complete"))
	errs := tl.GetMessagesByLevel("ERROR")
	require.Len(t, errs, 1)
	assert.Equal(t, "feed not found", errs[0].Fields["error"])
}
