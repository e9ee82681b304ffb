package recorder

import (
	"context"
	"time"

	"github.com/fakeyudi/blockrec/internal/event"
	"github.com/fakeyudi/blockrec/internal/idmap"
	"github.com/fakeyudi/blockrec/internal/notice"
)

// run is one playback. It owns its identity map; cancel is the token the
// playback goroutine observes at every suspend point.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	ids    *idmap.Map
	speed  int
}

var closedDone = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Delay is the time to wait between two events recorded at prev and next
// milliseconds when replaying at speed. Out-of-order timestamps give zero.
// No minimum is applied, so zero-length gaps stay zero at any speed.
func Delay(prev, next int64, speed int) time.Duration {
	gap := next - prev
	if gap <= 0 || speed <= 0 {
		return 0
	}
	return time.Duration(gap) * time.Millisecond / time.Duration(speed)
}

func standardSpeed(speed int) bool {
	switch speed {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

// PlayRecording resets the document to the session's initial snapshot and
// starts replaying the log in the background. It returns as soon as the
// first event is scheduled.
func (r *Recorder) PlayRecording(speed int) error {
	r.mu.Lock()
	if state := r.busyLocked(); state != Stopped {
		r.mu.Unlock()
		r.notify(notice.Warning, notice.PlaybackBusy)
		return &StateError{Op: "play", State: state, Err: ErrAlreadyActive}
	}
	if len(r.session.Events) == 0 {
		r.mu.Unlock()
		r.notify(notice.Warning, notice.PlaybackEmpty)
		return &StateError{Op: "play", State: Stopped, Err: ErrNothingToPlay}
	}
	if speed <= 0 {
		r.mu.Unlock()
		r.notify(notice.Warning, notice.PlaybackInvalidSpeed, speed)
		return &StateError{Op: "play", State: Stopped, Err: ErrInvalidSpeed}
	}
	if !standardSpeed(speed) {
		r.logger.Warn("non-standard playback speed", "speed", speed)
	}

	r.doc.Clear()
	if snap := r.session.Metadata.InitialSnapshot; snap != nil {
		if err := r.doc.Restore(*snap); err != nil {
			r.logger.Warn("initial snapshot restore failed, playing on current document", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	pr := &run{cancel: cancel, done: make(chan struct{}), ids: idmap.New(), speed: speed}
	events := r.session.Events
	r.run, r.lastRun = pr, pr
	r.state = Playing
	r.lock(speed)
	r.mu.Unlock()

	r.logger.Info("playback started", "speed", speed, "events", len(events))
	r.notify(notice.Info, notice.PlaybackStarted, speed)
	go r.play(ctx, pr, events)
	return nil
}

// StopPlaying cancels the active playback. It is a no-op when nothing is
// playing and never waits for the playback goroutine, so it may be called
// from a document listener or any UI callback. An event already being
// applied still lands; until the goroutine exits (see Done) recording,
// playing and loading are refused.
func (r *Recorder) StopPlaying() {
	r.mu.Lock()
	if r.state != Playing || r.run == nil {
		r.mu.Unlock()
		return
	}
	r.run.cancel()
	r.run = nil
	r.state = Stopped
	r.unlock()
	r.mu.Unlock()

	r.logger.Info("playback stopped")
	r.notify(notice.Info, notice.PlaybackStopped)
}

// Done returns a channel closed when the most recent playback goroutine has
// exited, including after StopPlaying. With no playback it returns a closed
// channel.
func (r *Recorder) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastRun == nil {
		return closedDone
	}
	return r.lastRun.done
}

// Wait blocks until the most recent playback goroutine exits or ctx is done.
func (r *Recorder) Wait(ctx context.Context) error {
	select {
	case <-r.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Speed reports the speed of the active playback, or 0.
func (r *Recorder) Speed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.run == nil {
		return 0
	}
	return r.run.speed
}

func (r *Recorder) lock(speed int) {
	r.doc.SetReadOnly(true)
	r.doc.SetPointerEvents(false)
	r.overlay.Show(speed)
}

func (r *Recorder) unlock() {
	r.doc.SetReadOnly(false)
	r.doc.SetPointerEvents(true)
	r.overlay.Hide()
}

// play is the playback goroutine. It applies events strictly in slice order
// and suspends only on the timer between them.
func (r *Recorder) play(ctx context.Context, pr *run, events []event.Event) {
	completed := false
	defer func() { r.finish(pr, completed) }()

	a := &applier{doc: r.doc, ids: pr.ids, logger: r.logger}
	for i, e := range events {
		if i > 0 {
			if d := Delay(events[i-1].Timestamp, e.Timestamp, pr.speed); d > 0 {
				t := r.clock.NewTimer(d)
				select {
				case <-ctx.Done():
					t.Stop()
					return
				case <-t.C():
				}
			}
		}
		if ctx.Err() != nil {
			return
		}

		err := a.apply(i, e)
		if err != nil {
			r.logger.Warn("event application failed", "error", err)
		} else {
			r.logger.Debug("applied event", "index", i, "kind", e.Kind(), "node", e.NodeID)
		}
		if r.observer != nil {
			r.observer(Progress{Applied: i + 1, Total: len(events), Event: e, Err: err, Mapped: pr.ids.Len()})
		}
	}
	completed = true
}

// finish runs when the playback goroutine exits, however it exits. The
// read-only lock is released here unless StopPlaying already did it.
func (r *Recorder) finish(pr *run, completed bool) {
	pr.ids.Clear()
	pr.cancel()

	r.mu.Lock()
	owned := r.run == pr
	if owned {
		r.run = nil
		r.state = Stopped
		r.unlock()
	}
	r.mu.Unlock()

	if owned {
		r.logger.Info("playback finished", "completed", completed)
		r.notify(notice.Info, notice.PlaybackFinished)
	}
	close(pr.done)
}
