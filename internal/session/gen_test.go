package session_test

import (
	"encoding/json"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/session"
)

// generateTime produces a UTC time with millisecond precision, matching the
// precision of the exported ISO-8601 form.
func generateTime(t *rapid.T, label string) time.Time {
	ms := rapid.Int64Range(0, 1_900_000_000_000).Draw(t, label)
	return time.UnixMilli(ms).UTC()
}

func generateSnapshot(t *rapid.T, label string) event.Snapshot {
	typ := rapid.SampledFrom([]string{"led_on", "repeat", "delay_ms"}).Draw(t, label+"_type")
	id := rapid.StringMatching(`[a-z0-9]{1,8}`).Draw(t, label+"_id")
	body, _ := json.Marshal(map[string]string{"type": typ, "id": id})
	return event.NewSnapshot(typ, body)
}

func optString(t *rapid.T, label string) *string {
	if !rapid.Bool().Draw(t, label+"_set") {
		return nil
	}
	s := rapid.StringMatching(`[a-zA-Z0-9]{1,8}`).Draw(t, label)
	return &s
}

func generatePayload(t *rapid.T) event.Payload {
	switch rapid.IntRange(0, 3).Draw(t, "kind") {
	case 0:
		snap := generateSnapshot(t, "create")
		return event.Create{
			NodeType: snap.Type,
			Snapshot: snap,
			Position: event.Coordinate{
				X: float64(rapid.IntRange(-500, 500).Draw(t, "x")),
				Y: float64(rapid.IntRange(-500, 500).Draw(t, "y")),
			},
		}
	case 1:
		d := event.Delete{NodeType: "unknown"}
		if rapid.Bool().Draw(t, "has_old") {
			snap := generateSnapshot(t, "delete")
			d.NodeType, d.OldSnapshot = snap.Type, &snap
		}
		return d
	case 2:
		m := event.Move{
			OldParentID: optString(t, "old_parent"),
			NewParentID: optString(t, "new_parent"),
			NewSlot:     optString(t, "slot"),
		}
		if rapid.Bool().Draw(t, "has_coord") {
			m.NewCoordinate = &event.Coordinate{X: float64(rapid.IntRange(0, 900).Draw(t, "cx")), Y: 0.5}
		}
		return m
	default:
		var v any
		switch rapid.IntRange(0, 4).Draw(t, "value_kind") {
		case 0:
			v = rapid.String().Draw(t, "value")
		case 1:
			v = rapid.IntRange(-1000, 1000).Draw(t, "value")
		case 2:
			v = rapid.Int64Range(-1<<40, 1<<40).Draw(t, "value")
		case 3:
			v = float64(rapid.IntRange(-1000, 1000).Draw(t, "value")) / 4
		default:
			v = rapid.Bool().Draw(t, "value")
		}
		// Values enter the log the way capture stores them.
		return event.NewChange(event.ElementField, "F", v)
	}
}

// generateSession produces a finalized session with ordered timestamps.
func generateSession(t *rapid.T) *session.Session {
	n := rapid.IntRange(0, 20).Draw(t, "n")
	events := make([]event.Event, n)
	var ts int64
	for i := range events {
		ts += rapid.Int64Range(0, 2000).Draw(t, "delta")
		events[i] = event.Event{
			Timestamp: ts,
			NodeID:    rapid.StringMatching(`[a-z0-9]{1,8}`).Draw(t, "node"),
			Payload:   generatePayload(t),
		}
	}

	s := &session.Session{Events: events}
	if rapid.Bool().Draw(t, "started") {
		start := generateTime(t, "start")
		end := start.Add(time.Duration(ts) * time.Millisecond)
		s.Metadata.StartTime, s.Metadata.EndTime = &start, &end
		s.Metadata.TotalDuration = ts
		s.Metadata.EventCount = n
		snap := generateSnapshot(t, "initial")
		s.Metadata.InitialSnapshot = &snap
	}
	return s
}
