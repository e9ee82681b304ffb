// Package document describes the block editing surface the recorder records
// from and replays into. The recorder depends only on these interfaces; the
// in-memory implementation lives in package workspace.
package document

import (
	"errors"

	"github.com/fakeyudi/blockrec/internal/event"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNoField      = errors.New("node has no such field")
	ErrNoConnection = errors.New("no matching connection")
	ErrSlotOccupied = errors.New("connection already occupied")
	ErrCycle        = errors.New("connection would create a cycle")
	ErrReadOnly     = errors.New("document is read-only")
)

// Notification types emitted by a document. Anything else is a UI-only
// notification and carries no mutation.
const (
	TypeCreate = "create"
	TypeDelete = "delete"
	TypeMove   = "move"
	TypeChange = "change"
	TypeSelect = "selected"
)

// Notification describes one change to the document, delivered
// synchronously to every subscriber in subscription order.
type Notification struct {
	Type   string
	UI     bool
	NodeID string

	// Move. Empty strings mean "no parent" / "next-statement connection".
	OldParentID   string
	NewParentID   string
	OldSlot       string
	NewSlot       string
	OldCoordinate *event.Coordinate
	NewCoordinate *event.Coordinate

	// Change.
	Element  string
	Name     string
	OldValue any
	NewValue any

	// Delete. Nil when the document could not serialize the node.
	OldSnapshot *event.Snapshot
}

// Listener receives notifications.
type Listener func(Notification)

// Node is a read-only view of one block.
type Node struct {
	ID       string
	Type     string
	ParentID string
	Slot     string
	Position event.Coordinate
	Fields   map[string]any
}

// Restored reports the identities produced by deserializing a snapshot.
// IDs maps every node id found in the snapshot to the id it received.
type Restored struct {
	RootID string
	IDs    map[string]string
}

// Document is the mutable block surface.
type Document interface {
	// Subscribe registers fn and returns a function that removes it.
	Subscribe(fn Listener) (unsubscribe func())

	Node(id string) (Node, bool)
	SnapshotNode(id string) (event.Snapshot, error)
	// RestoreNode deserializes s into new top-level nodes at the given
	// position. Restored nodes receive fresh identities.
	RestoreNode(s event.Snapshot, at event.Coordinate) (Restored, error)
	RemoveNode(id string) error
	Detach(id string) error
	MoveTo(id string, at event.Coordinate) error
	// Connect attaches child to parent's named input, or to parent's
	// next-statement connection when slot is empty.
	Connect(childID, parentID, slot string) error
	SetField(id, name string, value any) error

	// Snapshot and Restore serialize the whole document. Restore keeps node
	// identities and emits no notifications.
	Snapshot() (event.Snapshot, error)
	Restore(s event.Snapshot) error
	Clear()

	SetReadOnly(readOnly bool)
	SetPointerEvents(enabled bool)
}
