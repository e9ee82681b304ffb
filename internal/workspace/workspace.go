// Package workspace is an in-memory block document. Blocks carry named
// fields, named value/statement inputs and a next-statement connection, and
// every mutation is announced to subscribers the way a visual block editor
// announces its change events.
package workspace

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/fakeyudi/blockrec/internal/document"
	"github.com/fakeyudi/blockrec/internal/event"
)

// NodeSpec describes a block to create.
type NodeSpec struct {
	Type   string
	Fields map[string]any
	// Inputs names the block's input connections.
	Inputs []string
}

type block struct {
	id     string
	typ    string
	seq    int
	pos    event.Coordinate
	parent *block
	slot   string // "" when chained through parent's next connection
	fields map[string]any
	inputs map[string]*block
	next   *block
}

type listener struct {
	id int
	fn document.Listener
}

// Workspace implements document.Document.
type Workspace struct {
	mu            sync.Mutex
	blocks        map[string]*block
	seq           int
	listeners     []listener
	nextListener  int
	readOnly      bool
	pointerEvents bool
	newID         func() string
}

var _ document.Document = (*Workspace)(nil)

// Option configures a Workspace.
type Option func(*Workspace)

// WithIDGenerator replaces the uuid generator used for new blocks.
func WithIDGenerator(gen func() string) Option {
	return func(w *Workspace) { w.newID = gen }
}

// New returns an empty, interactive workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		blocks:        make(map[string]*block),
		pointerEvents: true,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Subscribe registers fn for every subsequent notification.
func (w *Workspace) Subscribe(fn document.Listener) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextListener++
	id := w.nextListener
	w.listeners = append(w.listeners, listener{id: id, fn: fn})

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, l := range w.listeners {
			if l.id == id {
				w.listeners = append(w.listeners[:i:i], w.listeners[i+1:]...)
				return
			}
		}
	}
}

// emit delivers notifications outside the lock so listeners may call back
// into the workspace.
func (w *Workspace) emit(ns ...document.Notification) {
	w.mu.Lock()
	ls := make([]listener, len(w.listeners))
	copy(ls, w.listeners)
	w.mu.Unlock()

	for _, n := range ns {
		for _, l := range ls {
			l.fn(n)
		}
	}
}

// CreateNode adds a top-level block at the given position.
func (w *Workspace) CreateNode(spec NodeSpec, at event.Coordinate) (string, error) {
	if spec.Type == "" {
		return "", fmt.Errorf("create node: type is required")
	}
	w.mu.Lock()
	b := w.newBlock(w.newID(), spec.Type, at)
	for name, v := range spec.Fields {
		b.fields[name] = v
	}
	for _, in := range spec.Inputs {
		b.inputs[in] = nil
	}
	w.mu.Unlock()

	w.emit(document.Notification{Type: document.TypeCreate, NodeID: b.id})
	return b.id, nil
}

func (w *Workspace) newBlock(id, typ string, at event.Coordinate) *block {
	w.seq++
	b := &block{
		id:     id,
		typ:    typ,
		seq:    w.seq,
		pos:    at,
		fields: make(map[string]any),
		inputs: make(map[string]*block),
	}
	w.blocks[id] = b
	return b
}

// Node returns a view of the block with the given id.
func (w *Workspace) Node(id string) (document.Node, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.blocks[id]
	if !ok {
		return document.Node{}, false
	}
	return b.view(), true
}

func (b *block) view() document.Node {
	n := document.Node{
		ID:       b.id,
		Type:     b.typ,
		Slot:     b.slot,
		Position: b.pos,
		Fields:   make(map[string]any, len(b.fields)),
	}
	if b.parent != nil {
		n.ParentID = b.parent.id
	}
	for k, v := range b.fields {
		n.Fields[k] = v
	}
	return n
}

// Nodes returns every block in creation order.
func (w *Workspace) Nodes() []document.Node {
	w.mu.Lock()
	defer w.mu.Unlock()
	all := w.sorted(func(*block) bool { return true })
	out := make([]document.Node, len(all))
	for i, b := range all {
		out[i] = b.view()
	}
	return out
}

// Len reports the number of blocks.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.blocks)
}

func (w *Workspace) sorted(keep func(*block) bool) []*block {
	var out []*block
	for _, b := range w.blocks {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// RemoveNode deletes a block together with everything attached below it.
func (w *Workspace) RemoveNode(id string) error {
	w.mu.Lock()
	b, ok := w.blocks[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, document.ErrNodeNotFound)
	}
	var snap *event.Snapshot
	if s, err := snapshotOf(b); err == nil {
		snap = &s
	}
	unlink(b)
	walk(b, func(d *block) { delete(w.blocks, d.id) })
	w.mu.Unlock()

	w.emit(document.Notification{Type: document.TypeDelete, NodeID: id, OldSnapshot: snap})
	return nil
}

// Detach disconnects a block from its parent, leaving it where it is.
func (w *Workspace) Detach(id string) error {
	w.mu.Lock()
	b, ok := w.blocks[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("detach %s: %w", id, document.ErrNodeNotFound)
	}
	if b.parent == nil {
		w.mu.Unlock()
		return nil
	}
	oldParent, oldSlot := b.parent.id, b.slot
	unlink(b)
	pos := b.pos
	w.mu.Unlock()

	w.emit(document.Notification{
		Type:          document.TypeMove,
		NodeID:        id,
		OldParentID:   oldParent,
		OldSlot:       oldSlot,
		NewCoordinate: &pos,
	})
	return nil
}

// MoveTo translates a block to an absolute position, disconnecting it first
// if it is attached.
func (w *Workspace) MoveTo(id string, at event.Coordinate) error {
	w.mu.Lock()
	b, ok := w.blocks[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("move %s: %w", id, document.ErrNodeNotFound)
	}
	n := document.Notification{Type: document.TypeMove, NodeID: id}
	if b.parent != nil {
		n.OldParentID, n.OldSlot = b.parent.id, b.slot
		unlink(b)
	}
	old := b.pos
	b.pos = at
	n.OldCoordinate, n.NewCoordinate = &old, &at
	w.mu.Unlock()

	w.emit(n)
	return nil
}

// Connect attaches child below parent, either into the named input or onto
// the parent's next-statement connection when slot is empty.
func (w *Workspace) Connect(childID, parentID, slot string) error {
	w.mu.Lock()
	child, ok := w.blocks[childID]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("connect %s: %w", childID, document.ErrNodeNotFound)
	}
	parent, ok := w.blocks[parentID]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("connect to %s: %w", parentID, document.ErrNodeNotFound)
	}
	if err := canConnect(child, parent, slot); err != nil {
		w.mu.Unlock()
		return fmt.Errorf("connect %s to %s: %w", childID, parentID, err)
	}

	n := document.Notification{Type: document.TypeMove, NodeID: childID, NewParentID: parentID, NewSlot: slot}
	if child.parent != nil {
		n.OldParentID, n.OldSlot = child.parent.id, child.slot
		unlink(child)
	}
	child.parent, child.slot = parent, slot
	if slot == "" {
		parent.next = child
	} else {
		parent.inputs[slot] = child
	}
	w.mu.Unlock()

	w.emit(n)
	return nil
}

func canConnect(child, parent *block, slot string) error {
	if child == parent {
		return document.ErrCycle
	}
	cycle := false
	walk(child, func(d *block) {
		if d == parent {
			cycle = true
		}
	})
	if cycle {
		return document.ErrCycle
	}
	if slot == "" {
		if parent.next != nil && parent.next != child {
			return document.ErrSlotOccupied
		}
		return nil
	}
	occupant, ok := parent.inputs[slot]
	if !ok {
		return fmt.Errorf("%w: input %q", document.ErrNoConnection, slot)
	}
	if occupant != nil && occupant != child {
		return document.ErrSlotOccupied
	}
	return nil
}

// SetField assigns a field value. Setting a field to its current value is a
// no-op and emits nothing.
func (w *Workspace) SetField(id, name string, value any) error {
	w.mu.Lock()
	b, ok := w.blocks[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("set field on %s: %w", id, document.ErrNodeNotFound)
	}
	old, ok := b.fields[name]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("set %s on %s: %w", name, id, document.ErrNoField)
	}
	if reflect.DeepEqual(old, value) {
		w.mu.Unlock()
		return nil
	}
	b.fields[name] = value
	w.mu.Unlock()

	w.emit(document.Notification{
		Type:     document.TypeChange,
		NodeID:   id,
		Element:  event.ElementField,
		Name:     name,
		OldValue: old,
		NewValue: value,
	})
	return nil
}

// Select emits a UI-only selection notification.
func (w *Workspace) Select(id string) error {
	if _, ok := w.Node(id); !ok {
		return fmt.Errorf("select %s: %w", id, document.ErrNodeNotFound)
	}
	w.emit(document.Notification{Type: document.TypeSelect, UI: true, NodeID: id})
	return nil
}

// Clear removes every block without emitting notifications.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks = make(map[string]*block)
}

// SetReadOnly toggles the read-only interaction mode.
func (w *Workspace) SetReadOnly(readOnly bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.readOnly = readOnly
}

// SetPointerEvents toggles whether the surface accepts pointer input.
func (w *Workspace) SetPointerEvents(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pointerEvents = enabled
}

// Interactive reports whether user edits are currently allowed.
func (w *Workspace) Interactive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.readOnly && w.pointerEvents
}

// unlink detaches b from its parent without touching its position.
func unlink(b *block) {
	p := b.parent
	if p == nil {
		return
	}
	if b.slot == "" {
		if p.next == b {
			p.next = nil
		}
	} else if p.inputs[b.slot] == b {
		p.inputs[b.slot] = nil
	}
	b.parent, b.slot = nil, ""
}

// walk visits b and everything attached below it.
func walk(b *block, fn func(*block)) {
	fn(b)
	names := make([]string, 0, len(b.inputs))
	for name := range b.inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if c := b.inputs[name]; c != nil {
			walk(c, fn)
		}
	}
	if b.next != nil {
		walk(b.next, fn)
	}
}
