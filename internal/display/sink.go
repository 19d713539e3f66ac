// Package display delivers refreshed summaries to the status indicator and
// anything else listening for updates.
package display

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// EventStatsUpdated is broadcast after each refresh that read the stats file.
const EventStatsUpdated = "stats-updated"

// DefaultTitle is shown before the first successful refresh.
const DefaultTitle = "---"

// Sink receives the formatted monthly total. Both calls are best effort:
// callers ignore SetIndicatorText errors and NotifyRefresh never blocks.
type Sink interface {
	SetIndicatorText(text string) error
	NotifyRefresh()
}

// Fanout forwards every call to each of its sinks in order.
type Fanout []Sink

// SetIndicatorText updates every sink and joins their errors.
func (f Fanout) SetIndicatorText(text string) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.SetIndicatorText(text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyRefresh notifies every sink.
func (f Fanout) NotifyRefresh() {
	for _, s := range f {
		if s != nil {
			s.NotifyRefresh()
		}
	}
}

// WriterSink prints a line each time the title changes.
type WriterSink struct {
	mu   sync.Mutex
	w    io.Writer
	last string
	now  func() time.Time
}

// NewWriterSink creates a WriterSink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w, now: time.Now}
}

// SetIndicatorText writes text if it differs from the previous value.
func (s *WriterSink) SetIndicatorText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if text == s.last {
		return nil
	}
	s.last = text

	_, err := fmt.Fprintf(s.w, "%s  %s tokens this month\n", s.now().Format(time.DateTime), text)
	return err
}

// NotifyRefresh is a no-op.
func (s *WriterSink) NotifyRefresh() {}
