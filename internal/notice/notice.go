// Package notice carries user-visible notices: localized message keys, the
// Notifier the recorder reports through, and an io.Writer implementation.
package notice

import (
	"fmt"
	"io"
	"sync"
)

// Key identifies a message in the catalogs.
type Key string

const (
	RecordingStarted           Key = "recording.started"
	RecordingStopped           Key = "recording.stopped"
	RecordingAlreadyActive     Key = "recording.already_active"
	RecordingBlockedByPlayback Key = "recording.blocked_by_playback"
	RecordingNotActive         Key = "recording.not_active"
	RecordingCapReached        Key = "recording.cap_reached"
	PlaybackBusy               Key = "playback.busy"
	PlaybackEmpty              Key = "playback.empty"
	PlaybackInvalidSpeed       Key = "playback.invalid_speed"
	PlaybackStarted            Key = "playback.started"
	PlaybackFinished           Key = "playback.finished"
	PlaybackStopped            Key = "playback.stopped"
	PlaybackBanner             Key = "playback.banner"
	PlaybackCancel             Key = "playback.cancel"
	ResetDone                  Key = "reset.done"
	ResetConfirm               Key = "reset.confirm"
	ImportDone                 Key = "import.done"
	ImportInvalid              Key = "import.invalid"
	ImportBusy                 Key = "import.busy"
	StatusStopped              Key = "status.stopped"
	StatusRecording            Key = "status.recording"
	StatusPlaying              Key = "status.playing"
	StatusUnknown              Key = "status.unknown"
	TimeNone                   Key = "time.none"
)

// Level is the severity a notice is shown with.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Notice is one user-visible message.
type Notice struct {
	Level Level
	Key   Key
	Args  []any
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})

// WriterNotifier prints each notice on its own line.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
	p  *Printer
}

// NewWriterNotifier returns a Notifier that renders notices with p into w.
func NewWriterNotifier(w io.Writer, p *Printer) *WriterNotifier {
	return &WriterNotifier{w: w, p: p}
}

func (n *WriterNotifier) Notify(no Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, n.p.Text(no.Key, no.Args...))
}

// Recorder keeps every notice it receives. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Keys returns the keys received so far, in order.
func (r *Recorder) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]Key, len(r.notices))
	for i, n := range r.notices {
		keys[i] = n.Key
	}
	return keys
}

// Notices returns a copy of the notices received so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
