package recorder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/blockrec/internal/clock"
	"github.com/fakeyudi/blockrec/internal/document"
	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/notice"
	"github.com/fakeyudi/blockrec/internal/session"
	"github.com/fakeyudi/blockrec/internal/workspace"
)

var (
	quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
	epoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	rec     *Recorder
	doc     *workspace.Workspace
	clock   *clock.Fake
	notices *notice.Recorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{doc: workspace.New(), clock: clock.NewFake(epoch), notices: &notice.Recorder{}}
	base := []Option{WithLogger(quiet), WithClock(f.clock), WithNotifier(f.notices)}
	f.rec = New(f.doc, append(base, opts...)...)
	return f
}

func waitDone(t *testing.T, r *Recorder) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not finish")
	}
}

func snapshotEvent(ts int64, id, typ string) event.Event {
	body := json.RawMessage(fmt.Sprintf(`{"type":%q,"id":%q,"x":0,"y":0}`, typ, id))
	return event.Event{
		Timestamp: ts,
		NodeID:    id,
		Payload:   event.Create{NodeType: typ, Snapshot: event.NewSnapshot(typ, body)},
	}
}

// progressLog collects observer callbacks from the playback goroutine.
type progressLog struct {
	mu    sync.Mutex
	steps []Progress
}

func (p *progressLog) observe(pr Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, pr)
}

func (p *progressLog) all() []Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Progress(nil), p.steps...)
}

func TestRecordingLifecycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rec.StartRecording())
	assert.Equal(t, Recording, f.rec.State())

	err := f.rec.StartRecording()
	require.ErrorIs(t, err, ErrAlreadyActive)
	var se *StateError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, Recording, se.State)

	id, err := f.doc.CreateNode(workspace.NodeSpec{Type: "led", Fields: map[string]any{"PIN": "13"}}, event.Coordinate{X: 3, Y: 4})
	require.NoError(t, err)
	f.clock.Advance(65 * time.Second)
	assert.Equal(t, "00:01:05", FormatDuration(f.rec.Duration()), "duration is live while recording")
	require.NoError(t, f.doc.SetField(id, "PIN", "7"))

	require.NoError(t, f.rec.StopRecording())
	assert.ErrorIs(t, f.rec.StopRecording(), ErrNotRecording)

	s := f.rec.Session()
	require.Equal(t, 2, s.Len())
	assert.Equal(t, int64(0), s.Events[0].Timestamp)
	assert.Equal(t, int64(65000), s.Events[1].Timestamp)
	assert.Equal(t, 2, s.Metadata.EventCount)
	assert.Equal(t, int64(65000), s.Metadata.TotalDuration)
	require.NotNil(t, s.Metadata.InitialSnapshot)
	assert.True(t, s.Metadata.StartTime.Equal(epoch))
	assert.True(t, s.Metadata.EndTime.Equal(epoch.Add(65*time.Second)))

	// Edits after stopping are not captured.
	require.NoError(t, f.doc.SetField(id, "PIN", "8"))
	assert.Equal(t, 2, f.rec.EventCount())

	assert.Equal(t, []notice.Key{
		notice.RecordingStarted,
		notice.RecordingAlreadyActive,
		notice.RecordingStopped,
		notice.RecordingNotActive,
	}, f.notices.Keys())
	assert.Equal(t, []any{2, "00:01:05"}, f.notices.Notices()[2].Args)
}

func TestEventCapStopsRecording(t *testing.T) {
	f := newFixture(t)
	id, err := f.doc.CreateNode(workspace.NodeSpec{Type: "led", Fields: map[string]any{"ON": false}}, event.Coordinate{})
	require.NoError(t, err)
	require.NoError(t, f.rec.StartRecording())

	for i := 1; i <= session.MaxEvents+1; i++ {
		require.NoError(t, f.doc.SetField(id, "ON", i%2 == 1))
	}

	assert.Equal(t, Stopped, f.rec.State())
	assert.Equal(t, session.MaxEvents, f.rec.EventCount())
	assert.Equal(t, session.MaxEvents, f.rec.Session().Metadata.EventCount)
	assert.Contains(t, f.notices.Keys(), notice.RecordingCapReached)

	// Later edits are not captured.
	require.NoError(t, f.doc.SetField(id, "ON", true))
	require.NoError(t, f.doc.SetField(id, "ON", false))
	assert.Equal(t, session.MaxEvents, f.rec.EventCount())
}

func TestReplayRemapsIdentities(t *testing.T) {
	src := newFixture(t)
	require.NoError(t, src.rec.StartRecording())
	a, err := src.doc.CreateNode(workspace.NodeSpec{Type: "led"}, event.Coordinate{})
	require.NoError(t, err)
	require.NoError(t, src.doc.MoveTo(a, event.Coordinate{X: 10, Y: 10}))
	require.NoError(t, src.doc.RemoveNode(a))
	require.NoError(t, src.rec.StopRecording())

	var progress progressLog
	dst := newFixture(t, WithObserver(progress.observe))
	var mu sync.Mutex
	var seen []document.Notification
	dst.doc.Subscribe(func(n document.Notification) {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
	})
	require.NoError(t, dst.rec.LoadSession(src.rec.Session()))
	require.NoError(t, dst.rec.PlayRecording(1))
	waitDone(t, dst.rec)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	created := seen[0].NodeID
	assert.Equal(t, document.TypeCreate, seen[0].Type)
	assert.NotEqual(t, a, created)
	assert.Equal(t, document.TypeMove, seen[1].Type)
	assert.Equal(t, created, seen[1].NodeID)
	assert.Equal(t, &event.Coordinate{X: 10, Y: 10}, seen[1].NewCoordinate)
	assert.Equal(t, document.TypeDelete, seen[2].Type)
	assert.Equal(t, created, seen[2].NodeID)

	assert.Zero(t, dst.doc.Len())
	steps := progress.all()
	require.Len(t, steps, 3)
	assert.Equal(t, 1, steps[0].Mapped)
	assert.Zero(t, steps[2].Mapped, "identity map is empty after the delete")
	for _, s := range steps {
		assert.NoError(t, s.Err)
	}
}

func TestReplayRestoresInitialSnapshotAndFallsBackToRawIDs(t *testing.T) {
	src := newFixture(t)
	setup, err := src.doc.CreateNode(workspace.NodeSpec{Type: "setup", Inputs: []string{"DO"}}, event.Coordinate{})
	require.NoError(t, err)

	require.NoError(t, src.rec.StartRecording())
	led, err := src.doc.CreateNode(workspace.NodeSpec{Type: "led", Fields: map[string]any{"PIN": "13"}}, event.Coordinate{X: 40})
	require.NoError(t, err)
	require.NoError(t, src.doc.Connect(led, setup, "DO"))
	require.NoError(t, src.doc.SetField(led, "PIN", "9"))
	require.NoError(t, src.rec.StopRecording())

	dst := newFixture(t)
	_, err = dst.doc.CreateNode(workspace.NodeSpec{Type: "stale"}, event.Coordinate{})
	require.NoError(t, err)
	require.NoError(t, dst.rec.LoadSession(src.rec.Session()))
	require.NoError(t, dst.rec.PlayRecording(2))
	waitDone(t, dst.rec)

	nodes := dst.doc.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, setup, nodes[0].ID, "initial snapshot keeps its ids")
	assert.Equal(t, setup, nodes[1].ParentID, "unmapped parent resolves to its raw id")
	assert.Equal(t, "DO", nodes[1].Slot)
	assert.Equal(t, "9", nodes[1].Fields["PIN"])
	assert.NotEqual(t, led, nodes[1].ID)
}

func TestReplayIsolatesFaults(t *testing.T) {
	var progress progressLog
	f := newFixture(t, WithObserver(progress.observe))
	events := []event.Event{
		snapshotEvent(0, "x", "led"),
		{Timestamp: 0, NodeID: "x", Payload: event.Move{NewParentID: event.StringPtr("ghost")}},
		{Timestamp: 0, NodeID: "nobody", Payload: event.Change{Element: event.ElementField, Name: "F", NewValue: 1.0}},
		{Timestamp: 0, Payload: event.Invalid{Raw: []byte(`{"type":"warp"}`), Err: errors.New("unknown event type")}},
		{Timestamp: 0, NodeID: "old", Payload: event.Create{NodeType: "led", Snapshot: event.Snapshot{Version: 0, Body: []byte(`{}`)}}},
		{Timestamp: 0, NodeID: "x", Payload: event.Change{Element: event.ElementField, Name: "MISSING", NewValue: 1.0}},
		{Timestamp: 0, NodeID: "never", Payload: event.Delete{NodeType: "led"}},
		snapshotEvent(0, "y", "button"),
	}
	require.NoError(t, f.rec.LoadSession(&session.Session{Events: events}))
	require.NoError(t, f.rec.PlayRecording(1))
	waitDone(t, f.rec)

	nodes := f.doc.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "led", nodes[0].Type)
	assert.Empty(t, nodes[0].ParentID, "failed connection leaves the node unattached")
	assert.Equal(t, "button", nodes[1].Type)

	steps := progress.all()
	require.Len(t, steps, len(events))
	var failed []int
	for _, s := range steps {
		if s.Err != nil {
			var ae *ApplyError
			require.ErrorAs(t, s.Err, &ae)
			failed = append(failed, ae.Index)
		}
	}
	assert.Equal(t, []int{2, 3, 4}, failed)
	assert.ErrorIs(t, steps[4].Err, event.ErrSnapshotVersion)
	assert.Equal(t, Stopped, f.rec.State())
}

func TestApplierRecoversFromPanics(t *testing.T) {
	a := &applier{doc: panicDoc{workspace.New()}, ids: nil, logger: quiet}
	err := a.apply(7, snapshotEvent(0, "p", "led"))
	var ae *ApplyError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 7, ae.Index)
	assert.Contains(t, err.Error(), "panic")
}

type panicDoc struct{ *workspace.Workspace }

func (panicDoc) RestoreNode(event.Snapshot, event.Coordinate) (document.Restored, error) {
	panic("document exploded")
}

func spacedEvents(n int, gap int64) []event.Event {
	events := make([]event.Event, n)
	for i := range events {
		events[i] = snapshotEvent(int64(i)*gap, fmt.Sprintf("n%d", i), "led")
	}
	return events
}

func TestStopPlayingFromListener(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rec.LoadSession(&session.Session{Events: spacedEvents(10, 100)}))

	creates := 0
	f.doc.Subscribe(func(n document.Notification) {
		if n.Type != document.TypeCreate {
			return
		}
		creates++
		if creates == 3 {
			f.rec.StopPlaying()
		}
	})

	require.NoError(t, f.rec.PlayRecording(1))
	for i := 0; i < 2; i++ {
		f.clock.BlockUntil(1)
		f.clock.Advance(100 * time.Millisecond)
	}
	waitDone(t, f.rec)

	assert.Equal(t, Stopped, f.rec.State())
	assert.Equal(t, 3, f.doc.Len())
	assert.Zero(t, f.clock.Pending(), "no continuation may remain scheduled")
	assert.True(t, f.doc.Interactive())

	f.clock.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, f.doc.Len())
	assert.Contains(t, f.notices.Keys(), notice.PlaybackStopped)
	assert.NotContains(t, f.notices.Keys(), notice.PlaybackFinished)
}

type overlaySpy struct {
	mu    sync.Mutex
	calls []string
}

func (o *overlaySpy) Show(speed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, fmt.Sprintf("show %d", speed))
}

func (o *overlaySpy) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, "hide")
}

func TestStopPlayingReleasesLock(t *testing.T) {
	spy := &overlaySpy{}
	f := newFixture(t, WithOverlay(spy))
	require.NoError(t, f.rec.LoadSession(&session.Session{Events: spacedEvents(5, 1000)}))

	require.NoError(t, f.rec.PlayRecording(4))
	f.clock.BlockUntil(1)
	assert.Equal(t, Playing, f.rec.State())
	assert.Equal(t, 4, f.rec.Speed())
	assert.False(t, f.doc.Interactive(), "document is read-only while playing")

	f.rec.StopPlaying()
	assert.Equal(t, Stopped, f.rec.State())
	assert.True(t, f.doc.Interactive())
	waitDone(t, f.rec)
	assert.Zero(t, f.clock.Pending())
	assert.Equal(t, 1, f.doc.Len())

	f.rec.StopPlaying()
	assert.Equal(t, []string{"show 4", "hide"}, spy.calls)
}

// gatedDoc holds every RestoreNode until the gate is opened.
type gatedDoc struct {
	*workspace.Workspace
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedDoc) RestoreNode(s event.Snapshot, at event.Coordinate) (document.Restored, error) {
	g.entered <- struct{}{}
	<-g.gate
	return g.Workspace.RestoreNode(s, at)
}

func TestStoppedRunBlocksNewWorkUntilItExits(t *testing.T) {
	doc := &gatedDoc{Workspace: workspace.New(), entered: make(chan struct{}, 1), gate: make(chan struct{})}
	notices := &notice.Recorder{}
	rec := New(doc, WithLogger(quiet), WithClock(clock.NewFake(epoch)), WithNotifier(notices))
	events := spacedEvents(3, 1000)
	require.NoError(t, rec.LoadSession(&session.Session{Events: events}))
	require.NoError(t, rec.PlayRecording(1))

	<-doc.entered
	rec.StopPlaying()
	assert.Equal(t, Stopped, rec.State())

	var se *StateError
	err := rec.StartRecording()
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, Playing, se.State)
	assert.ErrorIs(t, rec.PlayRecording(1), ErrAlreadyActive)
	assert.ErrorIs(t, rec.LoadSession(&session.Session{}), ErrAlreadyActive)

	close(doc.gate)
	waitDone(t, rec)
	assert.Equal(t, 1, doc.Len(), "the event in flight still lands")

	require.NoError(t, rec.StartRecording())
	require.NoError(t, rec.StopRecording())
	assert.Zero(t, rec.EventCount(), "replayed edits never reach a new recording")

	keys := notices.Keys()
	assert.Contains(t, keys, notice.RecordingBlockedByPlayback)
	assert.Contains(t, keys, notice.PlaybackBusy)
	assert.Contains(t, keys, notice.ImportBusy)
}

func TestReplayKeepsArrayOrderWhenTimestampsGoBack(t *testing.T) {
	var progress progressLog
	f := newFixture(t, WithObserver(progress.observe))
	events := []event.Event{
		snapshotEvent(1000, "a", "led"),
		snapshotEvent(0, "b", "led"),
		snapshotEvent(500, "c", "led"),
	}
	require.NoError(t, f.rec.LoadSession(&session.Session{Events: events}))
	require.NoError(t, f.rec.PlayRecording(1))

	// 1000 -> 0 waits for nothing; the only timer is the 500ms gap.
	f.clock.BlockUntil(1)
	require.Len(t, progress.all(), 2)
	f.clock.Advance(499 * time.Millisecond)
	assert.Equal(t, 1, f.clock.Pending())
	assert.Len(t, progress.all(), 2)
	f.clock.Advance(time.Millisecond)
	waitDone(t, f.rec)

	steps := progress.all()
	require.Len(t, steps, 3)
	for i, s := range steps {
		assert.Equal(t, i+1, s.Applied)
		assert.Equal(t, events[i].NodeID, s.Event.NodeID)
		assert.NoError(t, s.Err)
	}
	assert.Equal(t, 3, f.doc.Len())
}

func TestPlaybackTimingFollowsSpeed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rec.LoadSession(&session.Session{Events: spacedEvents(4, 1000)}))
	require.NoError(t, f.rec.PlayRecording(4))

	for i := 1; i < 4; i++ {
		f.clock.BlockUntil(1)
		f.clock.Advance(249 * time.Millisecond)
		assert.Equal(t, 1, f.clock.Pending(), "timer %d fired early", i)
		f.clock.Advance(time.Millisecond)
	}
	waitDone(t, f.rec)
	assert.Equal(t, 4, f.doc.Len())
	assert.Contains(t, f.notices.Keys(), notice.PlaybackFinished)
	assert.True(t, f.doc.Interactive())
}

func TestPlaybackWallClockSpeedScaling(t *testing.T) {
	if testing.Short() {
		t.Skip("wall-clock timing")
	}
	events := spacedEvents(7, 60) // 360ms at 1x

	elapsed := func(speed int) time.Duration {
		rec := New(workspace.New(), WithLogger(quiet))
		require.NoError(t, rec.LoadSession(&session.Session{Events: events}))
		start := time.Now()
		require.NoError(t, rec.PlayRecording(speed))
		waitDone(t, rec)
		return time.Since(start)
	}

	one, two, eight := elapsed(1), elapsed(2), elapsed(8)
	assert.GreaterOrEqual(t, one, 360*time.Millisecond)
	assert.GreaterOrEqual(t, two, 180*time.Millisecond)
	assert.GreaterOrEqual(t, eight, 45*time.Millisecond)
	assert.Less(t, two, one)
	assert.Less(t, eight, two)
	assert.InDelta(t, 0.5, float64(two)/float64(one), 0.2)
}

func TestDelay(t *testing.T) {
	cases := []struct {
		prev, next int64
		speed      int
		want       time.Duration
	}{
		{0, 1000, 1, time.Second},
		{0, 1000, 2, 500 * time.Millisecond},
		{0, 1000, 8, 125 * time.Millisecond},
		{0, 1, 8, 125 * time.Microsecond},
		{5, 5, 8, 0},
		{10, 5, 1, 0},
		{0, 900, 3, 300 * time.Millisecond},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Delay(c.prev, c.next, c.speed), "%d->%d @%d", c.prev, c.next, c.speed)
	}
}

func TestPlayPreconditions(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.rec.PlayRecording(1), ErrNothingToPlay)

	require.NoError(t, f.rec.LoadSession(&session.Session{Events: spacedEvents(2, 1000)}))
	assert.ErrorIs(t, f.rec.PlayRecording(0), ErrInvalidSpeed)
	assert.ErrorIs(t, f.rec.PlayRecording(-2), ErrInvalidSpeed)
	assert.Equal(t, Stopped, f.rec.State())

	require.NoError(t, f.rec.PlayRecording(3), "non-standard speeds are accepted")
	assert.ErrorIs(t, f.rec.PlayRecording(1), ErrAlreadyActive)
	assert.ErrorIs(t, f.rec.StartRecording(), ErrAlreadyActive)
	assert.ErrorIs(t, f.rec.LoadSession(&session.Session{}), ErrAlreadyActive)
	f.rec.StopPlaying()
	waitDone(t, f.rec)

	require.NoError(t, f.rec.StartRecording())
	assert.ErrorIs(t, f.rec.PlayRecording(1), ErrAlreadyActive)
	assert.ErrorIs(t, f.rec.ImportSession([]byte(`{"events":[]}`)), ErrAlreadyActive)
	require.NoError(t, f.rec.StopRecording())

	keys := f.notices.Keys()
	assert.Contains(t, keys, notice.PlaybackEmpty)
	assert.Contains(t, keys, notice.PlaybackInvalidSpeed)
	assert.Contains(t, keys, notice.PlaybackBusy)
	assert.Contains(t, keys, notice.RecordingBlockedByPlayback)
	assert.Contains(t, keys, notice.ImportBusy)
}

func TestResetIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rec.StartRecording())
	_, err := f.doc.CreateNode(workspace.NodeSpec{Type: "led"}, event.Coordinate{})
	require.NoError(t, err)

	f.rec.Reset()
	assert.Equal(t, Stopped, f.rec.State())
	assert.Zero(t, f.rec.EventCount())
	assert.Nil(t, f.rec.StartTime())

	f.rec.Reset()
	assert.Equal(t, Stopped, f.rec.State())
	assert.Zero(t, f.rec.EventCount())
	assert.True(t, f.rec.Session().Empty())

	require.NoError(t, f.rec.LoadSession(&session.Session{Events: spacedEvents(3, 1000)}))
	require.NoError(t, f.rec.PlayRecording(1))
	f.clock.BlockUntil(1)
	f.rec.Reset()
	assert.Equal(t, Stopped, f.rec.State())
	assert.True(t, f.doc.Interactive())
	waitDone(t, f.rec)
}

func TestExportImportThroughRecorder(t *testing.T) {
	src := newFixture(t)
	require.NoError(t, src.rec.StartRecording())
	id, err := src.doc.CreateNode(workspace.NodeSpec{Type: "led", Fields: map[string]any{"PIN": "13"}}, event.Coordinate{X: 1, Y: 2})
	require.NoError(t, err)
	src.clock.Advance(1500 * time.Millisecond)
	require.NoError(t, src.doc.SetField(id, "PIN", "2"))
	require.NoError(t, src.doc.RemoveNode(id))
	require.NoError(t, src.rec.StopRecording())

	data, err := src.rec.ExportSession()
	require.NoError(t, err)

	dst := newFixture(t)
	require.NoError(t, dst.rec.ImportSession(data))
	want, got := src.rec.Session(), dst.rec.Session()
	assert.Equal(t, want.Events, got.Events)
	assert.Equal(t, want.Metadata.TotalDuration, got.Metadata.TotalDuration)
	assert.Equal(t, want.Metadata.EventCount, got.Metadata.EventCount)
	assert.Equal(t, want.Metadata.InitialSnapshot, got.Metadata.InitialSnapshot)
	assert.True(t, want.Metadata.StartTime.Equal(*got.Metadata.StartTime))

	again, err := dst.rec.ExportSession()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))

	assert.ErrorIs(t, dst.rec.ImportSession([]byte(`{"metadata":{}}`)), session.ErrInvalidFormat)
	assert.Equal(t, 3, dst.rec.EventCount(), "rejected import leaves the session untouched")
}

func TestIntegerFieldValuesSurviveExport(t *testing.T) {
	src := newFixture(t)
	id, err := src.doc.CreateNode(workspace.NodeSpec{Type: "led", Fields: map[string]any{"PIN": 13}}, event.Coordinate{})
	require.NoError(t, err)
	require.NoError(t, src.rec.StartRecording())
	require.NoError(t, src.doc.SetField(id, "PIN", 7))
	require.NoError(t, src.rec.StopRecording())

	data, err := src.rec.ExportSession()
	require.NoError(t, err)
	got, err := session.Import(data)
	require.NoError(t, err)

	want := src.rec.Session().Events
	require.Len(t, want, 1)
	assert.Equal(t, event.Change{Element: event.ElementField, Name: "PIN", NewValue: 7.0}, want[0].Payload)
	assert.Equal(t, want, got.Events)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatDuration(999*time.Millisecond))
	assert.Equal(t, "01:02:03", FormatDuration(time.Hour+2*time.Minute+3*time.Second))
	assert.Equal(t, "27:00:00", FormatDuration(27*time.Hour))
	assert.Equal(t, "00:00:00", FormatDuration(-time.Second))

	assert.Equal(t, "none", FormatDateTime(nil, "none"))
	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.Local)
	assert.Equal(t, "2026-02-03 04:05:06", FormatDateTime(&ts, "none"))
}
