package recorder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fakeyudi/blockrec/internal/document"
	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/idmap"
)

// applier turns recorded events back into document mutations, translating
// node ids through the run's identity map.
type applier struct {
	doc    document.Document
	ids    *idmap.Map
	logger *slog.Logger
}

var _ event.Visitor = (*applier)(nil)

// apply applies events[i]. Panics from the document are converted into
// errors so one bad event cannot end the run.
func (a *applier) apply(i int, e event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			err = &ApplyError{Index: i, Kind: e.Kind(), NodeID: e.NodeID, Err: err}
		}
	}()
	return e.Accept(a)
}

func (a *applier) VisitCreate(e event.Event, p event.Create) error {
	if err := p.Snapshot.Check(); err != nil {
		return err
	}
	r, err := a.doc.RestoreNode(p.Snapshot, p.Position)
	if err != nil {
		return err
	}
	for orig, id := range r.IDs {
		a.ids.Put(orig, id)
	}
	a.ids.Put(e.NodeID, r.RootID)
	return nil
}

func (a *applier) VisitDelete(e event.Event, _ event.Delete) error {
	id := a.ids.Resolve(e.NodeID)
	if _, ok := a.doc.Node(id); !ok {
		a.logger.Debug("delete target not present", "node", e.NodeID, "resolved", id)
		return nil
	}
	if err := a.doc.RemoveNode(id); err != nil {
		return err
	}
	a.ids.Remove(e.NodeID)
	// Descendants went with the node.
	a.ids.RemoveIf(func(_, replay string) bool {
		_, ok := a.doc.Node(replay)
		return !ok
	})
	return nil
}

func (a *applier) VisitMove(e event.Event, p event.Move) error {
	id := a.ids.Resolve(e.NodeID)
	if _, ok := a.doc.Node(id); !ok {
		return fmt.Errorf("move %s: %w", e.NodeID, document.ErrNodeNotFound)
	}

	if p.NewCoordinate != nil {
		if err := a.doc.Detach(id); err != nil {
			return err
		}
		if err := a.doc.MoveTo(id, *p.NewCoordinate); err != nil {
			return err
		}
	}

	switch {
	case p.NewParentID != nil:
		parent := a.ids.Resolve(*p.NewParentID)
		slot := ""
		if p.NewSlot != nil {
			slot = *p.NewSlot
		}
		if err := a.doc.Connect(id, parent, slot); err != nil {
			a.logger.Warn("connection failed, node left unattached",
				"node", e.NodeID, "parent", *p.NewParentID, "slot", slot, "error", err)
		}
	case p.OldParentID != nil:
		return a.doc.Detach(id)
	}
	return nil
}

func (a *applier) VisitChange(e event.Event, p event.Change) error {
	if p.Element != event.ElementField {
		a.logger.Debug("ignoring change to non-field element", "node", e.NodeID, "element", p.Element)
		return nil
	}
	id := a.ids.Resolve(e.NodeID)
	if _, ok := a.doc.Node(id); !ok {
		return fmt.Errorf("change %s: %w", e.NodeID, document.ErrNodeNotFound)
	}
	err := a.doc.SetField(id, p.Name, p.NewValue)
	if errors.Is(err, document.ErrNoField) {
		a.logger.Debug("node has no such field", "node", e.NodeID, "field", p.Name)
		return nil
	}
	return err
}
