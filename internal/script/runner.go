package script

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fakeyudi/blockrec/internal/clock"
	"github.com/fakeyudi/blockrec/internal/document"
	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/idmap"
	"github.com/fakeyudi/blockrec/internal/workspace"
)

// Editor is the editing surface ops are applied to.
type Editor interface {
	CreateNode(spec workspace.NodeSpec, at event.Coordinate) (string, error)
	RemoveNode(id string) error
	Detach(id string) error
	MoveTo(id string, at event.Coordinate) error
	Connect(childID, parentID, slot string) error
	SetField(id, name string, value any) error
	Select(id string) error
	Interactive() bool
}

// OpError reports the op that failed.
type OpError struct {
	Index int
	Op    string
	Ref   string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (%s %s): %v", e.Index+1, e.Op, e.Ref, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Runner applies ops to an Editor. It is not safe for concurrent use.
type Runner struct {
	ed     Editor
	clock  clock.Clock
	logger *slog.Logger
	refs   *idmap.Map
}

// Option configures a Runner.
type Option func(*Runner)

func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner returns a Runner with no bound refs.
func NewRunner(ed Editor, opts ...Option) *Runner {
	r := &Runner{ed: ed, clock: clock.Real(), logger: slog.Default(), refs: idmap.New()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BlockID returns the block a ref currently names.
func (r *Runner) BlockID(ref string) string { return r.refs.Resolve(ref) }

// Run applies ops in order, honouring each op's delay, and stops at the
// first failure.
func (r *Runner) Run(ctx context.Context, ops []Op) error {
	for i, op := range ops {
		d, err := op.Delay()
		if err != nil {
			return &OpError{Index: i, Op: op.Op, Ref: op.Ref, Err: err}
		}
		if d > 0 {
			t := r.clock.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C():
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Apply(op); err != nil {
			return &OpError{Index: i, Op: op.Op, Ref: op.Ref, Err: err}
		}
	}
	return nil
}

// Apply performs one op. Edits are refused while the surface is locked.
func (r *Runner) Apply(op Op) error {
	if err := op.Validate(); err != nil {
		return err
	}
	if op.Op == OpWait {
		return nil
	}
	if !r.ed.Interactive() {
		return document.ErrReadOnly
	}

	id := r.refs.Resolve(op.Ref)
	r.logger.Debug("apply op", "op", op.Op, "ref", op.Ref, "block", id)

	switch op.Op {
	case OpCreate:
		newID, err := r.ed.CreateNode(workspace.NodeSpec{Type: op.Type, Fields: op.Fields, Inputs: op.Inputs}, event.Coordinate{X: op.X, Y: op.Y})
		if err != nil {
			return err
		}
		r.refs.Put(op.Ref, newID)
		return nil
	case OpDelete:
		if err := r.ed.RemoveNode(id); err != nil {
			return err
		}
		r.refs.Remove(op.Ref)
		return nil
	case OpMove:
		return r.ed.MoveTo(id, event.Coordinate{X: op.X, Y: op.Y})
	case OpConnect:
		return r.ed.Connect(id, r.refs.Resolve(op.Parent), op.Slot)
	case OpDisconnect:
		return r.ed.Detach(id)
	case OpSet:
		return r.ed.SetField(id, op.Field, op.Value)
	case OpSelect:
		return r.ed.Select(id)
	}
	return fmt.Errorf("unknown op %q", op.Op)
}
