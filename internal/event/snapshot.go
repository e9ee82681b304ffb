package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SnapshotVersion is the schema version written by this build.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when a snapshot was written with a schema
// version this build cannot read.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Coordinate is an absolute canvas position.
type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot is a structural serialization of a node subtree or a whole
// document. Body is owned by the document implementation and is opaque here.
type Snapshot struct {
	Version int             `json:"version"`
	Type    string          `json:"type"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// NewSnapshot wraps body with the current schema version.
func NewSnapshot(typ string, body json.RawMessage) Snapshot {
	return Snapshot{Version: SnapshotVersion, Type: typ, Body: body}
}

// Check verifies the snapshot can be read by this build.
func (s Snapshot) Check() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSnapshotVersion, s.Version, SnapshotVersion)
	}
	if len(s.Body) == 0 {
		return errors.New("snapshot has no body")
	}
	return nil
}
