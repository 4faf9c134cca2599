package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ritsu/mindustry-notifier/internal/syncx"
)

// ErrFatalState is returned by Run when a fatal state terminates detection.
var ErrFatalState = errors.New("fatal detection state")

// FrameSource supplies sampled frames of the monitored window.
type FrameSource interface {
	Sample(ctx context.Context) Frame
}

// Notifier delivers desktop notifications. Fire-and-forget; delivery
// failures are the implementation's concern and never reach the monitor.
type Notifier interface {
	Notify(title, body string)
}

// Status is a point-in-time view of the monitor for the status server.
type Status struct {
	State            string    `json:"state"`
	Since            time.Time `json:"since"`
	LastNotifiedBoss time.Time `json:"last_notified_boss,omitempty"`
	Ticks            uint64    `json:"ticks"`
	FrameChanged     bool      `json:"frame_changed"`
}

// Options configure the monitor loop. Zero values fall back to the package
// defaults; tests shrink the intervals.
type Options struct {
	Tick           time.Duration
	SubTick        time.Duration
	StatusInterval time.Duration
	Verbose        bool
	Quiet          bool
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = TickInterval
	}
	if o.SubTick <= 0 {
		o.SubTick = SubTickInterval
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = DefaultStatusInterval
	}
	return o
}

// Monitor drives the detection loop: sample, classify, debounce, notify.
// Ticks are strictly sequential; a new sample is never requested before the
// previous tick's side effects have completed.
type Monitor struct {
	source   FrameSource
	notifier Notifier
	session  *Session
	journal  *Journal
	status   *syncx.Guard[Status]

	mu   sync.RWMutex
	opts Options

	now func() time.Time
}

// NewMonitor creates a monitor over the given frame source and notifier.
func NewMonitor(source FrameSource, notifier Notifier, opts Options) *Monitor {
	now := time.Now()
	return &Monitor{
		source:   source,
		notifier: notifier,
		session:  NewSession(now),
		journal:  NewJournal(JournalMaxEntries, JournalEventBuffer),
		status:   syncx.NewGuard(Status{State: "starting", Since: now}),
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
}

// SetStatusInterval adjusts the verbose-log throttle, e.g. on config reload.
func (m *Monitor) SetStatusInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.opts.StatusInterval = d
	m.mu.Unlock()
}

// Status returns the latest status snapshot.
func (m *Monitor) Status() Status { return m.status.Get() }

// History returns state transitions from the last N seconds.
func (m *Monitor) History(seconds int) []Entry { return m.journal.Recent(seconds) }

// Events returns the transition event feed.
func (m *Monitor) Events() <-chan Entry { return m.journal.Events() }

// Run executes the detection loop until a fatal state is observed or ctx is
// cancelled. Returns nil on cancellation and an ErrFatalState-wrapped error
// on a fatal state; the caller maps these to process exit codes.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.RLock()
	opts := m.opts
	m.mu.RUnlock()
	slog.Info("notifier started", "tick", opts.Tick, "cooldown", BossCooldown)

	for {
		frame := m.source.Sample(ctx)
		// A sample cut short by shutdown reflects the cancellation, not the
		// window; acting on it would turn a clean exit into a fatal state.
		if ctx.Err() != nil {
			return nil
		}
		state := Classify(frame)
		now := m.now()
		d := m.session.Tick(state, now)

		if d.Notify {
			m.notifier.Notify(d.Title, d.Body)
		}
		if d.Transition {
			m.journal.Add(Entry{Timestamp: now, State: state.String(), Notified: d.Notify})
		}
		m.updateStatus(state, frame.Changed, now, d)
		m.logStatus(d, frame, now)

		if d.Fatal {
			slog.Error("fatal state, stopping detection", "state", state.String())
			return fmt.Errorf("%w: %s", ErrFatalState, state)
		}

		if err := m.sleepTick(ctx); err != nil {
			return nil
		}
	}
}

func (m *Monitor) updateStatus(state GameState, changed bool, now time.Time, d Decision) {
	m.status.Update(func(s *Status) {
		if d.Transition {
			s.Since = now
		}
		s.State = state.String()
		s.LastNotifiedBoss = m.session.LastNotifiedBoss()
		s.Ticks++
		s.FrameChanged = changed
	})
}

func (m *Monitor) logStatus(d Decision, frame Frame, now time.Time) {
	m.mu.RLock()
	opts := m.opts
	m.mu.RUnlock()

	if opts.Quiet {
		return
	}
	if d.Transition {
		slog.Info("state changed", "state", d.State.String(), "notified", d.Notify)
		m.session.MarkStatusLogged(now)
		return
	}
	if opts.Verbose && m.session.ShouldLogStatus(now, opts.StatusInterval) {
		slog.Info("status", "state", d.State.String(), "frame_changed", frame.Changed)
	}
}

// sleepTick sleeps one full tick in sub-tick increments so cancellation is
// observed within one sub-interval rather than a full tick.
func (m *Monitor) sleepTick(ctx context.Context) error {
	m.mu.RLock()
	tick, sub := m.opts.Tick, m.opts.SubTick
	m.mu.RUnlock()

	steps := int(tick / sub)
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sub):
		}
	}
	return nil
}
