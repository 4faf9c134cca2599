// Package detect implements boss-wave detection: frame classification and
// the debounce state machine that turns per-tick states into notifications.
package detect

import "time"

// Detection timing constants
const (
	// Full tick between samples; subdivided so shutdown stays responsive
	TickInterval    = 500 * time.Millisecond
	SubTickInterval = 100 * time.Millisecond

	// Minimum elapsed time between boss-wave notifications. A boss health
	// bar can flicker to a non-boss color mid-fight; re-entries inside
	// this window count as the same wave.
	BossCooldown = 120 * time.Second

	// Default throttle for non-transition status lines in verbose mode
	DefaultStatusInterval = 5 * time.Second
)

// Health-bar sampling region, in window coordinates
const (
	RegionX      = 20
	RegionY      = 145
	RegionWidth  = 10
	RegionHeight = 30
)

// Boss pixel classification
const (
	// Reference luminance of the red boss health bar, calibrated against
	// the game's palette. Not configurable.
	BossLuma      = 93.425
	LumaTolerance = 1.0
)

// Journal configuration
const (
	JournalMaxEntries  = 50
	JournalEventBuffer = 100
)
