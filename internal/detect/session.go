package detect

import "time"

// Session carries detection bookkeeping across ticks. It is mutated only by
// the monitor loop; tests drive Tick directly with synthetic clocks.
type Session struct {
	lastState        GameState
	hasLast          bool
	lastNotifiedBoss time.Time
	lastStatusLog    time.Time
}

// Decision is the outcome of folding one classification into the session.
type Decision struct {
	State      GameState
	Notify     bool
	Title      string
	Body       string
	Transition bool
	Fatal      bool
}

// NewSession creates a session with no prior state. lastNotifiedBoss is
// back-dated a full cooldown so the very first boss wave always notifies,
// even immediately after startup.
func NewSession(now time.Time) *Session {
	return &Session{lastNotifiedBoss: now.Add(-BossCooldown)}
}

// Tick applies one tick's classification and decides whether a notification
// is due. Fatal states always notify; Minimized notifies only on the tick it
// is first entered; BossWave notifies on entry when the cooldown since the
// last notified wave has elapsed. Continued BossWave ticks do not refresh
// the cooldown.
func (s *Session) Tick(state GameState, now time.Time) Decision {
	d := Decision{State: state}
	d.Transition = !s.hasLast || state != s.lastState

	switch state {
	case StateNotFound, StateCaptureFailed:
		d.Notify = true
		d.Fatal = true
	case StateMinimized:
		d.Notify = d.Transition
	case StateBossWave:
		if d.Transition && now.Sub(s.lastNotifiedBoss) >= BossCooldown {
			d.Notify = true
			s.lastNotifiedBoss = now
		}
	case StateOther:
		// never notifies
	}

	if d.Notify {
		d.Title = state.Title()
		d.Body = state.Body()
	}

	s.lastState = state
	s.hasLast = true
	return d
}

// LastState returns the previous tick's state and whether one exists.
func (s *Session) LastState() (GameState, bool) {
	return s.lastState, s.hasLast
}

// LastNotifiedBoss returns when a boss-wave notification was last sent.
func (s *Session) LastNotifiedBoss() time.Time {
	return s.lastNotifiedBoss
}

// ShouldLogStatus reports whether a non-transition status line is due and
// records the emission time when it is.
func (s *Session) ShouldLogStatus(now time.Time, interval time.Duration) bool {
	if now.Sub(s.lastStatusLog) < interval {
		return false
	}
	s.lastStatusLog = now
	return true
}

// MarkStatusLogged resets the status-line throttle; transition logs count
// against the same throttle window.
func (s *Session) MarkStatusLogged(now time.Time) {
	s.lastStatusLog = now
}
