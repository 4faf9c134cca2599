package detect

// GameState classifies the monitored window at a single sampling instant.
// Exactly one state is produced per sampling attempt.
type GameState int

const (
	// StateNotFound means the game window does not exist.
	StateNotFound GameState = iota
	// StateCaptureFailed means the window exists but its pixels could not be read.
	StateCaptureFailed
	// StateMinimized means the window is iconified, so no pixel data is available.
	StateMinimized
	// StateBossWave means the sampled region is uniformly boss pixels.
	StateBossWave
	// StateOther means the window is visible and capturable but not showing a boss bar.
	StateOther
)

func (s GameState) String() string {
	switch s {
	case StateNotFound:
		return "not-found"
	case StateCaptureFailed:
		return "capture-failed"
	case StateMinimized:
		return "minimized"
	case StateBossWave:
		return "boss-wave"
	case StateOther:
		return "other"
	default:
		return "unknown"
	}
}

// Fatal reports whether observing this state terminates the detection loop.
func (s GameState) Fatal() bool {
	return s == StateNotFound || s == StateCaptureFailed
}

// stateText holds the notification title and body for each state.
var stateText = map[GameState][2]string{
	StateNotFound: {
		"Mindustry not found.",
		"",
	},
	StateCaptureFailed: {
		"Failed to read pixel data.",
		"Unable to read pixel data from the Mindustry game window. Boss wave notifications will be unavailable.",
	},
	StateMinimized: {
		"Mindustry is minimized.",
		"Boss waves cannot be detected while the game window is minimized.",
	},
	StateBossWave: {
		"Boss wave detected.",
		"A boss wave has been detected in your Mindustry game.",
	},
	StateOther: {
		"Mindustry is active.",
		"",
	},
}

// Title returns the notification title for the state.
func (s GameState) Title() string { return stateText[s][0] }

// Body returns the notification body for the state.
func (s GameState) Body() string { return stateText[s][1] }
