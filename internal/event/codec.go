package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireEvent is the portable JSON shape of an Event. Field names follow the
// save format used by existing project files.
type wireEvent struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	BlockID   *string         `json:"blockId"`
	BlockType string          `json:"blockType,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type createData struct {
	Snapshot Snapshot   `json:"snapshot"`
	Position Coordinate `json:"position"`
}

type deleteData struct {
	OldSnapshot *Snapshot `json:"oldSnapshot"`
}

type moveData struct {
	OldParentID   *string     `json:"oldParentId"`
	NewParentID   *string     `json:"newParentId"`
	NewInputName  *string     `json:"newInputName"`
	NewCoordinate *Coordinate `json:"newCoordinate"`
}

type changeData struct {
	Element  string `json:"element"`
	Name     string `json:"name"`
	NewValue any    `json:"newValue"`
}

// MarshalJSON encodes the event in its portable wire form. Invalid payloads
// are written back exactly as they were read.
func (e Event) MarshalJSON() ([]byte, error) {
	if inv, ok := e.Payload.(Invalid); ok {
		if len(inv.Raw) == 0 {
			return []byte("null"), nil
		}
		return inv.Raw, nil
	}
	if e.Payload == nil {
		return nil, fmt.Errorf("marshal event at %dms: missing payload", e.Timestamp)
	}

	w := wireEvent{
		Type:      string(e.Payload.Kind()),
		Timestamp: e.Timestamp,
		BlockID:   StringPtr(e.NodeID),
	}

	var data any
	switch p := e.Payload.(type) {
	case Create:
		w.BlockType = p.NodeType
		data = createData{Snapshot: p.Snapshot, Position: p.Position}
	case Delete:
		w.BlockType = p.NodeType
		data = deleteData{OldSnapshot: p.OldSnapshot}
	case Move:
		data = moveData{
			OldParentID:   p.OldParentID,
			NewParentID:   p.NewParentID,
			NewInputName:  p.NewSlot,
			NewCoordinate: p.NewCoordinate,
		}
	case Change:
		data = changeData{Element: p.Element, Name: p.Name, NewValue: p.NewValue}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event data: %w", w.Type, err)
	}
	w.Data = raw
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire event. It never rejects input that is valid
// JSON: entries whose shape or kind is not understood become Invalid
// payloads so that a session can be imported and inspected, and the bad
// entries fail individually at replay time.
func (e *Event) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("event is not valid JSON")
	}
	raw := append([]byte(nil), bytes.TrimSpace(data)...)

	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		*e = Event{Payload: Invalid{Raw: raw, Err: err}}
		return nil
	}

	ev := Event{Timestamp: w.Timestamp}
	if w.BlockID != nil {
		ev.NodeID = *w.BlockID
	}

	payload, err := decodePayload(w)
	if err != nil {
		ev.Payload = Invalid{Raw: raw, Err: err}
	} else {
		ev.Payload = payload
	}
	*e = ev
	return nil
}

func decodePayload(w wireEvent) (Payload, error) {
	kind, ok := ParseKind(w.Type)
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", w.Type)
	}
	data := w.Data
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}

	switch kind {
	case KindCreate:
		var d createData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode create data: %w", err)
		}
		return Create{NodeType: w.BlockType, Snapshot: d.Snapshot, Position: d.Position}, nil
	case KindDelete:
		var d deleteData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode delete data: %w", err)
		}
		return Delete{NodeType: w.BlockType, OldSnapshot: d.OldSnapshot}, nil
	case KindMove:
		var d moveData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode move data: %w", err)
		}
		return Move{
			OldParentID:   d.OldParentID,
			NewParentID:   d.NewParentID,
			NewSlot:       d.NewInputName,
			NewCoordinate: d.NewCoordinate,
		}, nil
	case KindChange:
		var d changeData
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("decode change data: %w", err)
		}
		return Change{Element: d.Element, Name: d.Name, NewValue: d.NewValue}, nil
	}
	return nil, fmt.Errorf("unhandled event type %q", w.Type)
}
