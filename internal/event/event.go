// Package event defines the recorded mutation log of a block-assembly session.
//
// An Event is one captured mutation of the block document. Its Payload is a
// closed set of variants (Create, Delete, Move, Change); code that needs to act
// on every kind goes through Accept with a Visitor so that adding a variant
// breaks every consumer at compile time instead of silently falling through.
package event

import (
	"fmt"
	"strings"
)

// Kind names the mutation an Event records.
type Kind string

const (
	KindCreate Kind = "create"
	KindDelete Kind = "delete"
	KindMove   Kind = "move"
	KindChange Kind = "change"

	// KindInvalid marks an event that could not be decoded. It is never
	// produced by capture, only by importing foreign data.
	KindInvalid Kind = "invalid"
)

// ParseKind maps a notification or wire type name onto a recorded Kind.
// Matching is case-insensitive. Names outside the four recorded kinds
// return false.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCreate:
		return KindCreate, true
	case KindDelete:
		return KindDelete, true
	case KindMove:
		return KindMove, true
	case KindChange:
		return KindChange, true
	}
	return "", false
}

// Event is one entry of the recording log.
type Event struct {
	// Timestamp is milliseconds since the recording started.
	Timestamp int64
	// NodeID identifies the subject node in the recording-time document.
	NodeID  string
	Payload Payload
}

// Kind reports the kind of the event's payload.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return KindInvalid
	}
	return e.Payload.Kind()
}

// Accept dispatches the event to the Visitor method matching its payload.
func (e Event) Accept(v Visitor) error {
	if e.Payload == nil {
		return &MalformedError{Reason: "missing payload"}
	}
	return e.Payload.accept(e, v)
}

// Payload is the kind-specific part of an Event. The unexported method keeps
// the set of implementations closed to this package.
type Payload interface {
	Kind() Kind
	accept(e Event, v Visitor) error
}

// Visitor receives one call per event, selected by payload kind.
type Visitor interface {
	VisitCreate(e Event, p Create) error
	VisitDelete(e Event, p Delete) error
	VisitMove(e Event, p Move) error
	VisitChange(e Event, p Change) error
}

// Create records a node entering the document.
type Create struct {
	NodeType string
	// Snapshot holds the node and its attached subtree at creation time.
	Snapshot Snapshot
	Position Coordinate
}

func (Create) Kind() Kind { return KindCreate }
func (p Create) accept(e Event, v Visitor) error { return v.VisitCreate(e, p) }

// Delete records a node leaving the document. OldSnapshot is kept for
// inspection only; replay removes by id.
type Delete struct {
	NodeType    string
	OldSnapshot *Snapshot
}

func (Delete) Kind() Kind { return KindDelete }
func (p Delete) accept(e Event, v Visitor) error { return v.VisitDelete(e, p) }

// Move records a reconnection and/or translation. A nil field means the
// notification did not carry that value; a nil NewSlot with a non-nil
// NewParentID means next-statement chaining.
type Move struct {
	OldParentID   *string
	NewParentID   *string
	NewSlot       *string
	NewCoordinate *Coordinate
}

func (Move) Kind() Kind { return KindMove }
func (p Move) accept(e Event, v Visitor) error { return v.VisitMove(e, p) }

// ElementField is the only Change element currently recorded.
const ElementField = "field"

// Change records a new value for one element of a node.
type Change struct {
	Element  string
	Name     string
	NewValue any
}

func (Change) Kind() Kind { return KindChange }
func (p Change) accept(e Event, v Visitor) error { return v.VisitChange(e, p) }

// Invalid carries an imported entry that could not be decoded. Raw is
// re-encoded verbatim on export.
type Invalid struct {
	Raw []byte
	Err error
}

func (Invalid) Kind() Kind { return KindInvalid }

func (p Invalid) accept(Event, Visitor) error {
	reason := "undecodable event"
	if p.Err != nil {
		reason = p.Err.Error()
	}
	return &MalformedError{Reason: reason}
}

// MalformedError is returned by Accept for events that cannot be applied.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed event: %s", e.Reason)
}

// Ordered reports whether events are sorted by Timestamp, non-decreasing.
func Ordered(events []Event) bool {
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			return false
		}
	}
	return true
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
