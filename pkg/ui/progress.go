package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StatusTracker keeps running totals across crawl cycles
type StatusTracker struct {
	mu              sync.Mutex
	TotalDownloaded int
	Cycles          int
	FailedCycles    int
	StartTime       time.Time
	perFeed         map[string]int
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
		perFeed:   make(map[string]int),
	}
}

// RecordCycle adds the outcome of one crawl cycle
func (st *StatusTracker) RecordCycle(feed string, newImages int, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.Cycles++
	st.TotalDownloaded += newImages
	st.perFeed[feed] += newImages
	if err != nil {
		st.FailedCycles++
	}
}

// FeedTotal returns the number of images downloaded for feed
func (st *StatusTracker) FeedTotal(feed string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.perFeed[feed]
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// CycleLine formats the status line printed after a cycle
func (st *StatusTracker) CycleLine(feed string, newImages int, err error) string {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err != nil {
		return fmt.Sprintf("%s r/%s: %v", Red("[FAILED]"), feed, err)
	}
	return fmt.Sprintf("%s r/%s: %d new | total %d over %d cycles",
		Green("[COLLECTED]"), feed, newImages, st.TotalDownloaded, st.Cycles)
}

// PrintCycle records a cycle and prints its status line to w
func (st *StatusTracker) PrintCycle(w io.Writer, feed string, newImages int, err error) {
	st.RecordCycle(feed, newImages, err)
	fmt.Fprintln(w, st.CycleLine(feed, newImages, err))
}
