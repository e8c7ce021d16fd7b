package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogComponentStart logs when a long-running component starts
func LogComponentStart(l Logger, component string, fields map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", fields)
}

// LogComponentStop logs when a long-running component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// LogCycle logs the outcome of one crawl cycle
func LogCycle(l Logger, feed string, newImages int, duration time.Duration, err error) {
	l = l.WithFields(map[string]interface{}{
		"feed":       feed,
		"new_images": newImages,
		"duration":   duration,
	})
	if err != nil {
		l.WithError(err).Error("Crawl cycle failed")
		return
	}
	l.Info("Crawl cycle complete")
}

// Nop returns a logger that discards everything
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string) {}
func (nopLogger) Info(msg string)  {}
func (nopLogger) Warn(msg string)  {}
func (nopLogger) Error(msg string) {}

func (n nopLogger) WithField(key string, value interface{}) Logger  { return n }
func (n nopLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (n nopLogger) WithError(err error) Logger                      { return n }
func (n nopLogger) WithContext(ctx context.Context) Logger          { return n }

func (nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}

func (nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
