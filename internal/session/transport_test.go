package session_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/session"
)

func assertSameSession(t require.TestingT, want, got *session.Session) {
	require.Equal(t, want.Events, got.Events)
	wm, gm := want.Metadata, got.Metadata
	for _, pair := range [][2]*time.Time{{wm.StartTime, gm.StartTime}, {wm.EndTime, gm.EndTime}} {
		require.Equal(t, pair[0] == nil, pair[1] == nil)
		if pair[0] != nil {
			require.True(t, pair[0].Equal(*pair[1]), "%v != %v", pair[0], pair[1])
		}
	}
	require.Equal(t, wm.TotalDuration, gm.TotalDuration)
	require.Equal(t, wm.EventCount, gm.EventCount)
	require.Equal(t, wm.InitialSnapshot, gm.InitialSnapshot)
}

// Property 2: Import(Export(s)) reproduces the events and metadata of s.
func TestExportImportRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		original := generateSession(t)
		data, err := session.Export(original)
		if err != nil {
			t.Fatalf("Export: %v", err)
		}
		loaded, err := session.Import(data)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		assertSameSession(t, original, loaded)
	})
}

func TestExportShape(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 30, 0, 250_000_000, time.FixedZone("KST", 9*3600))
	s := &session.Session{Metadata: session.Metadata{StartTime: &start, TotalDuration: 1500}}

	data, err := session.Export(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"events": [],
		"metadata": {
			"startTime": "2026-03-01T00:30:00.250Z",
			"endTime": null,
			"totalDuration": 1500,
			"eventCount": 0,
			"initialSnapshot": null
		}
	}`, string(data))
}

func TestImportRejectsNonSessions(t *testing.T) {
	for name, input := range map[string]string{
		"not json":       `recording`,
		"array":          `[1,2,3]`,
		"no events":      `{"metadata":{}}`,
		"events object":  `{"events":{"0":{}}}`,
		"events null":    `{"events":null}`,
		"bad start time": `{"events":[],"metadata":{"startTime":"yesterday"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := session.Import([]byte(input))
			assert.ErrorIs(t, err, session.ErrInvalidFormat)
		})
	}
}

func TestImportToleratesMalformedEvents(t *testing.T) {
	s, err := session.Import([]byte(`{"events":[{"type":"warp"},{"type":"change","timestamp":3,"blockId":"a","data":{"element":"field","name":"N","newValue":2}}]}`))
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, event.KindInvalid, s.Events[0].Kind())
	assert.Equal(t, event.KindChange, s.Events[1].Kind())
	assert.Nil(t, s.Metadata.StartTime)

	out, err := session.Export(s)
	require.NoError(t, err)
	var back map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Contains(t, string(back["events"]), `{"type":"warp"}`)
}

func TestEmpty(t *testing.T) {
	var nilSession *session.Session
	assert.True(t, nilSession.Empty())
	assert.True(t, (&session.Session{}).Empty())

	now := time.Now()
	assert.False(t, (&session.Session{Metadata: session.Metadata{StartTime: &now}}).Empty())
	assert.False(t, (&session.Session{Events: []event.Event{{}}}).Empty())
}
