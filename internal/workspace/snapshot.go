package workspace

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fakeyudi/blockrec/internal/document"
	"github.com/fakeyudi/blockrec/internal/event"
)

// SnapshotType is the Snapshot.Type of a whole-workspace snapshot. Node
// snapshots carry the block type instead.
const SnapshotType = "workspace"

// blockState is the structural form of a block and everything attached
// below it. An input present with a nil value is declared but empty.
type blockState struct {
	Type   string                 `json:"type"`
	ID     string                 `json:"id,omitempty"`
	X      float64                `json:"x"`
	Y      float64                `json:"y"`
	Fields map[string]any         `json:"fields,omitempty"`
	Inputs map[string]*blockState `json:"inputs,omitempty"`
	Next   *blockState            `json:"next,omitempty"`
}

type workspaceState struct {
	Blocks []*blockState `json:"blocks"`
}

func stateOf(b *block) *blockState {
	s := &blockState{Type: b.typ, ID: b.id, X: b.pos.X, Y: b.pos.Y}
	if len(b.fields) > 0 {
		s.Fields = make(map[string]any, len(b.fields))
		for k, v := range b.fields {
			s.Fields[k] = v
		}
	}
	if len(b.inputs) > 0 {
		s.Inputs = make(map[string]*blockState, len(b.inputs))
		for name, c := range b.inputs {
			if c == nil {
				s.Inputs[name] = nil
				continue
			}
			s.Inputs[name] = stateOf(c)
		}
	}
	if b.next != nil {
		s.Next = stateOf(b.next)
	}
	return s
}

func snapshotOf(b *block) (event.Snapshot, error) {
	body, err := json.Marshal(stateOf(b))
	if err != nil {
		return event.Snapshot{}, fmt.Errorf("serialize block %s: %w", b.id, err)
	}
	return event.NewSnapshot(b.typ, body), nil
}

// SnapshotNode serializes the block and its attached subtree.
func (w *Workspace) SnapshotNode(id string) (event.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.blocks[id]
	if !ok {
		return event.Snapshot{}, fmt.Errorf("snapshot %s: %w", id, document.ErrNodeNotFound)
	}
	return snapshotOf(b)
}

// RestoreNode builds a new top-level block tree from a node snapshot. Every
// block gets a fresh id; the returned map translates snapshot ids to them.
func (w *Workspace) RestoreNode(s event.Snapshot, at event.Coordinate) (document.Restored, error) {
	if err := s.Check(); err != nil {
		return document.Restored{}, err
	}
	var st blockState
	if err := json.Unmarshal(s.Body, &st); err != nil {
		return document.Restored{}, fmt.Errorf("decode node snapshot: %w", err)
	}
	if err := validate(&st); err != nil {
		return document.Restored{}, err
	}

	w.mu.Lock()
	ids := make(map[string]string)
	root := w.build(&st, func(old string) string {
		id := w.newID()
		if old != "" {
			ids[old] = id
		}
		return id
	})
	root.pos = at
	w.mu.Unlock()

	w.emit(document.Notification{Type: document.TypeCreate, NodeID: root.id})
	return document.Restored{RootID: root.id, IDs: ids}, nil
}

// Snapshot serializes every top-level block tree, preserving ids.
func (w *Workspace) Snapshot() (event.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := workspaceState{Blocks: []*blockState{}}
	for _, b := range w.sorted(func(b *block) bool { return b.parent == nil }) {
		st.Blocks = append(st.Blocks, stateOf(b))
	}
	body, err := json.Marshal(st)
	if err != nil {
		return event.Snapshot{}, fmt.Errorf("serialize workspace: %w", err)
	}
	return event.NewSnapshot(SnapshotType, body), nil
}

// Restore replaces the whole workspace with s. Ids are kept; a missing or
// duplicate id is replaced with a fresh one. No notifications are emitted.
func (w *Workspace) Restore(s event.Snapshot) error {
	if err := s.Check(); err != nil {
		return err
	}
	var st workspaceState
	if err := json.Unmarshal(s.Body, &st); err != nil {
		return fmt.Errorf("decode workspace snapshot: %w", err)
	}
	for _, b := range st.Blocks {
		if err := validate(b); err != nil {
			return err
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks = make(map[string]*block)
	for _, b := range st.Blocks {
		w.build(b, func(old string) string {
			if _, taken := w.blocks[old]; old == "" || taken {
				return w.newID()
			}
			return old
		})
	}
	return nil
}

func validate(s *blockState) error {
	if s == nil {
		return nil
	}
	if s.Type == "" {
		return fmt.Errorf("block %q in snapshot has no type", s.ID)
	}
	for _, c := range s.Inputs {
		if err := validate(c); err != nil {
			return err
		}
	}
	return validate(s.Next)
}

// build instantiates s and its descendants. Callers hold w.mu.
func (w *Workspace) build(s *blockState, assign func(old string) string) *block {
	b := w.newBlock(assign(s.ID), s.Type, event.Coordinate{X: s.X, Y: s.Y})
	for k, v := range s.Fields {
		b.fields[k] = v
	}

	names := make([]string, 0, len(s.Inputs))
	for name := range s.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.inputs[name] = nil
		if cs := s.Inputs[name]; cs != nil {
			c := w.build(cs, assign)
			c.parent, c.slot = b, name
			b.inputs[name] = c
		}
	}
	if s.Next != nil {
		c := w.build(s.Next, assign)
		c.parent = b
		b.next = c
	}
	return b
}
