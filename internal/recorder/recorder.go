// Package recorder records block-editing sessions from a document and replays
// them into a document at a chosen speed.
//
// A Recorder owns one session and moves between three states: Stopped,
// Recording and Playing. While Recording, every document mutation is
// captured into the session's event log. While Playing, a single goroutine
// walks the log in order, waits out the recorded gaps divided by the speed,
// and applies each event through an identity map that translates the ids
// of the recording into the ids of the replay. Faults in a single event are
// logged and skipped; only precondition violations are returned.
package recorder

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fakeyudi/blockrec/internal/capture"
	"github.com/fakeyudi/blockrec/internal/clock"
	"github.com/fakeyudi/blockrec/internal/document"
	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/notice"
	"github.com/fakeyudi/blockrec/internal/session"
)

// Overlay is the cancel affordance shown over the document while playing.
type Overlay interface {
	Show(speed int)
	Hide()
}

type noOverlay struct{}

func (noOverlay) Show(int) {}
func (noOverlay) Hide()    {}

// Progress describes the playback run after one event was applied.
type Progress struct {
	Applied int
	Total   int
	Event   event.Event
	// Err is the *ApplyError for an event that was skipped.
	Err error
	// Mapped is the number of identities currently remapped.
	Mapped int
}

// Observer receives progress from the playback goroutine.
type Observer func(Progress)

// Option configures a Recorder.
type Option func(*Recorder)

func WithLogger(l *slog.Logger) Option { return func(r *Recorder) { r.logger = l } }

func WithClock(c clock.Clock) Option { return func(r *Recorder) { r.clock = c } }

func WithNotifier(n notice.Notifier) Option { return func(r *Recorder) { r.notifier = n } }

func WithOverlay(o Overlay) Option { return func(r *Recorder) { r.overlay = o } }

func WithObserver(o Observer) Option { return func(r *Recorder) { r.observer = o } }

// WithMaxEvents caps the event log. Non-positive values keep the default.
func WithMaxEvents(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.maxEvents = n
		}
	}
}

// Recorder records from and replays into one document.
type Recorder struct {
	doc       document.Document
	logger    *slog.Logger
	clock     clock.Clock
	notifier  notice.Notifier
	overlay   Overlay
	observer  Observer
	maxEvents int

	mu          sync.Mutex
	state       State
	session     *session.Session
	startedAt   time.Time
	unsubscribe func()
	run         *run
	lastRun     *run
}

// New returns a stopped Recorder with an empty session.
func New(doc document.Document, opts ...Option) *Recorder {
	r := &Recorder{
		doc:       doc,
		logger:    slog.Default(),
		clock:     clock.Real(),
		notifier:  notice.Discard,
		overlay:   noOverlay{},
		maxEvents: session.MaxEvents,
		session:   &session.Session{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) notify(level notice.Level, key notice.Key, args ...any) {
	r.notifier.Notify(notice.Notice{Level: level, Key: key, Args: args})
}

// StartRecording clears the log, snapshots the document as the session's
// initial state and begins capturing.
func (r *Recorder) StartRecording() error {
	r.mu.Lock()
	if state := r.busyLocked(); state != Stopped {
		r.mu.Unlock()
		key := notice.RecordingAlreadyActive
		if state == Playing {
			key = notice.RecordingBlockedByPlayback
		}
		r.notify(notice.Warning, key)
		return &StateError{Op: "start recording", State: state, Err: ErrAlreadyActive}
	}

	now := r.clock.Now()
	start := now.Truncate(time.Millisecond)
	s := &session.Session{Metadata: session.Metadata{StartTime: &start}}
	if snap, err := r.doc.Snapshot(); err != nil {
		r.logger.Warn("initial snapshot failed", "error", err)
	} else {
		s.Metadata.InitialSnapshot = &snap
	}

	r.session = s
	r.startedAt = now
	f := capture.New(r.doc, now, capture.WithClock(r.clock.Now), capture.WithLogger(r.logger))
	r.state = Recording
	r.unsubscribe = r.doc.Subscribe(f.Listener(r.append))
	r.mu.Unlock()

	r.logger.Info("recording started")
	r.notify(notice.Success, notice.RecordingStarted)
	return nil
}

// append is the capture sink. Events arriving in any state but Recording
// are ignored. The event that would exceed the cap stops the recording
// instead of being stored.
func (r *Recorder) append(e event.Event) {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return
	}
	if len(r.session.Events) >= r.maxEvents {
		count, dur := r.stopLocked()
		r.mu.Unlock()
		r.logger.Warn("event cap reached, recording stopped", "max", r.maxEvents)
		r.notify(notice.Warning, notice.RecordingCapReached, r.maxEvents)
		r.notify(notice.Success, notice.RecordingStopped, count, FormatDuration(dur))
		return
	}
	r.session.Events = append(r.session.Events, e)
	r.mu.Unlock()
}

// StopRecording ends capture and finalizes the session metadata.
func (r *Recorder) StopRecording() error {
	r.mu.Lock()
	if r.state != Recording {
		state := r.state
		r.mu.Unlock()
		r.notify(notice.Warning, notice.RecordingNotActive)
		return &StateError{Op: "stop recording", State: state, Err: ErrNotRecording}
	}
	count, dur := r.stopLocked()
	r.mu.Unlock()

	r.logger.Info("recording stopped", "events", count, "duration", dur)
	r.notify(notice.Success, notice.RecordingStopped, count, FormatDuration(dur))
	return nil
}

func (r *Recorder) stopLocked() (int, time.Duration) {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	now := r.clock.Now()
	end := now.Truncate(time.Millisecond)
	dur := now.Sub(r.startedAt)

	m := &r.session.Metadata
	m.EndTime = &end
	m.TotalDuration = dur.Milliseconds()
	m.EventCount = len(r.session.Events)
	r.state = Stopped
	return m.EventCount, dur
}

// Reset stops whatever is active and discards the session.
func (r *Recorder) Reset() {
	switch r.State() {
	case Recording:
		_ = r.StopRecording()
	case Playing:
		r.StopPlaying()
	}

	r.mu.Lock()
	if r.state == Recording {
		r.stopLocked()
	}
	r.session = &session.Session{}
	r.mu.Unlock()

	r.logger.Info("recorder reset")
	r.notify(notice.Info, notice.ResetDone)
}

// busyLocked is the state a new operation must respect. A stopped run whose
// goroutine has not exited yet may still be applying an event, so it counts
// as Playing until Done is closed.
func (r *Recorder) busyLocked() State {
	if r.state != Stopped || r.lastRun == nil {
		return r.state
	}
	select {
	case <-r.lastRun.done:
		return Stopped
	default:
		return Playing
	}
}

// State reports the current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// EventCount reports the number of events in the log.
func (r *Recorder) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.session.Events)
}

// Duration is the elapsed recording time while recording and the recorded
// total otherwise.
func (r *Recorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Recording {
		return r.clock.Now().Sub(r.startedAt)
	}
	return r.session.Duration()
}

// StartTime returns when the session's recording started, or nil.
func (r *Recorder) StartTime() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Metadata.StartTime
}

// EndTime returns when the session's recording stopped, or nil.
func (r *Recorder) EndTime() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Metadata.EndTime
}

// Session returns a copy of the current session.
func (r *Recorder) Session() *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Clone()
}

// ExportSession encodes the current session in its portable form.
func (r *Recorder) ExportSession() ([]byte, error) {
	return session.Export(r.Session())
}

// ImportSession replaces the session with one decoded from data. The
// current session is untouched when data is rejected.
func (r *Recorder) ImportSession(data []byte) error {
	s, err := session.Import(data)
	if err != nil {
		r.logger.Warn("import rejected", "error", err)
		r.notify(notice.Warning, notice.ImportInvalid)
		return err
	}
	return r.LoadSession(s)
}

// LoadSession replaces the session with s. Only allowed while stopped.
func (r *Recorder) LoadSession(s *session.Session) error {
	if s == nil {
		return fmt.Errorf("load session: %w", session.ErrInvalidFormat)
	}
	r.mu.Lock()
	if state := r.busyLocked(); state != Stopped {
		r.mu.Unlock()
		r.notify(notice.Warning, notice.ImportBusy)
		return &StateError{Op: "import", State: state, Err: ErrAlreadyActive}
	}
	r.session = s.Clone()
	r.mu.Unlock()

	r.logger.Info("session loaded", "events", s.Len())
	r.notify(notice.Success, notice.ImportDone, s.Len())
	return nil
}
