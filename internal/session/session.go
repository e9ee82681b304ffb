// Package session holds a recording: its event log and metadata, the portable
// encoding used to embed it in saved projects, and the on-disk store of the
// current session.
package session

import (
	"time"

	"github.com/fakeyudi/blockrec/internal/event"
)

// MaxEvents is the default cap on the length of a recording.
const MaxEvents = 10000

// Session is one recording.
type Session struct {
	Events   []event.Event
	Metadata Metadata
}

// Metadata describes a recording. Times are wall-clock and used for display
// only; replay timing comes from event timestamps.
type Metadata struct {
	StartTime *time.Time
	EndTime   *time.Time
	// TotalDuration is in milliseconds, set when recording stops.
	TotalDuration int64
	// EventCount is frozen when recording stops.
	EventCount int
	// InitialSnapshot is the document before the first captured event.
	InitialSnapshot *event.Snapshot
}

// Len reports the number of recorded events.
func (s *Session) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Events)
}

// Empty reports whether there is nothing worth saving: no events and no
// recording was ever started.
func (s *Session) Empty() bool {
	return s.Len() == 0 && (s == nil || s.Metadata.StartTime == nil)
}

// Duration returns the recorded duration.
func (s *Session) Duration() time.Duration {
	return time.Duration(s.Metadata.TotalDuration) * time.Millisecond
}

// Clone returns a copy whose event slice can be read while the original
// keeps growing.
func (s *Session) Clone() *Session {
	c := &Session{Metadata: s.Metadata}
	c.Events = append([]event.Event(nil), s.Events...)
	return c
}
