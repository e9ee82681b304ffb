package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fakeyudi/blockrec/internal/event"
)

// ErrInvalidFormat is returned by Import for data that is not a session.
var ErrInvalidFormat = errors.New("invalid session format")

// isoMillis matches the ISO-8601 form existing project files carry.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type wireSession struct {
	Events   []event.Event `json:"events"`
	Metadata wireMetadata  `json:"metadata"`
}

type wireMetadata struct {
	StartTime       *string         `json:"startTime"`
	EndTime         *string         `json:"endTime"`
	TotalDuration   int64           `json:"totalDuration"`
	EventCount      int             `json:"eventCount"`
	InitialSnapshot *event.Snapshot `json:"initialSnapshot"`
}

// Export encodes s as {events, metadata}. Times are written in UTC with
// millisecond precision.
func Export(s *Session) ([]byte, error) {
	w := wireSession{
		Events: s.Events,
		Metadata: wireMetadata{
			StartTime:       formatTime(s.Metadata.StartTime),
			EndTime:         formatTime(s.Metadata.EndTime),
			TotalDuration:   s.Metadata.TotalDuration,
			EventCount:      s.Metadata.EventCount,
			InitialSnapshot: s.Metadata.InitialSnapshot,
		},
	}
	if w.Events == nil {
		w.Events = []event.Event{}
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("export session: %w", err)
	}
	return data, nil
}

// Import decodes data produced by Export. The only structural requirement is
// an events array; individual events are not validated and entries that
// cannot be decoded are kept as invalid events.
func Import(data []byte) (*Session, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidFormat)
	}
	raw, ok := top["events"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, fmt.Errorf("%w: missing events array", ErrInvalidFormat)
	}

	var events []event.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	var meta wireMetadata
	if m, ok := top["metadata"]; ok && !bytes.Equal(bytes.TrimSpace(m), []byte("null")) {
		if err := json.Unmarshal(m, &meta); err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidFormat, err)
		}
	}
	start, err := parseTime(meta.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: startTime: %v", ErrInvalidFormat, err)
	}
	end, err := parseTime(meta.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: endTime: %v", ErrInvalidFormat, err)
	}

	return &Session{
		Events: events,
		Metadata: Metadata{
			StartTime:       start,
			EndTime:         end,
			TotalDuration:   meta.TotalDuration,
			EventCount:      meta.EventCount,
			InitialSnapshot: meta.InitialSnapshot,
		},
	}, nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(isoMillis)
	return &s
}

func parseTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}
