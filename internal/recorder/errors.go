package recorder

import (
	"errors"
	"fmt"

	"github.com/fakeyudi/blockrec/internal/event"
)

// Precondition failures. They are reported to the user as notices and
// returned to the caller wrapped in a *StateError.
var (
	ErrAlreadyActive = errors.New("recorder is already recording or playing")
	ErrNotRecording  = errors.New("recorder is not recording")
	ErrNothingToPlay = errors.New("no events to play")
	ErrInvalidSpeed  = errors.New("playback speed must be positive")
)

// StateError reports an operation rejected in the recorder's current state.
type StateError struct {
	Op    string
	State State
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s while %s: %v", e.Op, e.State, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// ApplyError reports one event that could not be applied during playback.
// It is logged and handed to the progress observer; playback continues.
type ApplyError struct {
	Index  int
	Kind   event.Kind
	NodeID string
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply event %d (%s %s): %v", e.Index, e.Kind, e.NodeID, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }
