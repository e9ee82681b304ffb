// Package capture turns document change notifications into recorded events.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fakeyudi/blockrec/internal/document"
	"github.com/fakeyudi/blockrec/internal/event"
)

// UnknownType is recorded as the node type of a deletion whose snapshot the
// document did not provide.
const UnknownType = "unknown"

// Inspector is the part of the document the filter reads from.
type Inspector interface {
	Node(id string) (document.Node, bool)
	SnapshotNode(id string) (event.Snapshot, error)
}

// ExtractionError reports a notification that could not be turned into an
// event. It is logged and the notification is skipped.
type ExtractionError struct {
	Type   string
	NodeID string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("capture %s %s: %v", e.Type, e.NodeID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var errNoSubject = errors.New("notification has no subject node")

// Filter decides which notifications become events and serializes them.
type Filter struct {
	doc    Inspector
	start  time.Time
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) { f.now = now }
}

// WithLogger sets the logger for dropped notifications.
func WithLogger(l *slog.Logger) Option {
	return func(f *Filter) { f.logger = l }
}

// New returns a filter whose timestamps count from start.
func New(doc Inspector, start time.Time, opts ...Option) *Filter {
	f := &Filter{doc: doc, start: start, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Listener returns a document listener that passes every recorded event to
// sink. It never panics and never stops on a bad notification.
func (f *Filter) Listener(sink func(event.Event)) document.Listener {
	return func(n document.Notification) {
		e, ok, err := f.safeExtract(n)
		if err != nil {
			f.logger.Warn("capture extraction failed", "type", n.Type, "node", n.NodeID, "error", err)
			return
		}
		if !ok {
			return
		}
		f.logger.Debug("captured event", "kind", e.Kind(), "node", e.NodeID, "ts", e.Timestamp)
		sink(e)
	}
}

func (f *Filter) safeExtract(n document.Notification) (e event.Event, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok = event.Event{}, false
			err = &ExtractionError{Type: n.Type, NodeID: n.NodeID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return f.Extract(n)
}

// Extract converts one notification. ok is false for notifications that are
// not recorded: UI-only ones, unknown kinds, and creations whose node is
// already gone.
func (f *Filter) Extract(n document.Notification) (event.Event, bool, error) {
	if n.UI {
		return event.Event{}, false, nil
	}
	kind, known := event.ParseKind(n.Type)
	if !known {
		return event.Event{}, false, nil
	}

	if n.NodeID == "" {
		return event.Event{}, false, &ExtractionError{Type: n.Type, Err: errNoSubject}
	}

	e := event.Event{Timestamp: f.elapsed(), NodeID: n.NodeID}
	switch kind {
	case event.KindCreate:
		node, found := f.doc.Node(n.NodeID)
		if !found {
			f.logger.Debug("dropping create for vanished node", "node", n.NodeID)
			return event.Event{}, false, nil
		}
		snap, err := f.doc.SnapshotNode(n.NodeID)
		if err != nil {
			if errors.Is(err, document.ErrNodeNotFound) {
				return event.Event{}, false, nil
			}
			return event.Event{}, false, &ExtractionError{Type: n.Type, NodeID: n.NodeID, Err: err}
		}
		e.Payload = event.Create{NodeType: node.Type, Snapshot: snap, Position: node.Position}
	case event.KindDelete:
		p := event.Delete{NodeType: UnknownType, OldSnapshot: n.OldSnapshot}
		if n.OldSnapshot != nil && n.OldSnapshot.Type != "" {
			p.NodeType = n.OldSnapshot.Type
		}
		e.Payload = p
	case event.KindMove:
		e.Payload = event.Move{
			OldParentID:   event.StringPtr(n.OldParentID),
			NewParentID:   event.StringPtr(n.NewParentID),
			NewSlot:       event.StringPtr(n.NewSlot),
			NewCoordinate: n.NewCoordinate,
		}
	case event.KindChange:
		e.Payload = event.NewChange(n.Element, n.Name, n.NewValue)
	}
	return e, true, nil
}

func (f *Filter) elapsed() int64 {
	ms := f.now().Sub(f.start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
