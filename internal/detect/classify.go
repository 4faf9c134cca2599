package detect

import "math"

// FrameKind tags the variant of a sampled frame.
type FrameKind int

const (
	// FrameNoWindow means the game window does not exist.
	FrameNoWindow FrameKind = iota
	// FrameMinimized means the window is iconified.
	FrameMinimized
	// FrameCaptureFailed means the capture call did not fully succeed.
	FrameCaptureFailed
	// FramePixels carries an RGB pixel grid of the health-bar region.
	FramePixels
)

// Frame is one sampled view of the monitored window. For FramePixels, Pix
// holds Width*Height RGB triplets in row-major order. Changed is set by the
// frame source when the region differs from the previous sample; it only
// informs logging and the status API, never classification.
type Frame struct {
	Kind    FrameKind
	Width   int
	Height  int
	Pix     []uint8
	Changed bool
}

// Luma returns the weighted brightness of an RGB pixel (BT.709 coefficients).
func Luma(r, g, b uint8) float64 {
	return 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
}

// IsBossPixel reports whether a pixel matches the boss health-bar luminance.
func IsBossPixel(r, g, b uint8) bool {
	return math.Abs(Luma(r, g, b)-BossLuma) < LumaTolerance
}

// Classify maps a sampled frame to a GameState. Existence, minimization and
// capture success short-circuit in that order before any pixel is inspected.
// Pure function of its input.
func Classify(f Frame) GameState {
	switch f.Kind {
	case FrameNoWindow:
		return StateNotFound
	case FrameMinimized:
		return StateMinimized
	case FrameCaptureFailed:
		return StateCaptureFailed
	case FramePixels:
		return classifyPixels(f)
	default:
		return StateCaptureFailed
	}
}

// classifyPixels returns StateBossWave iff every pixel in the region is a
// boss pixel. A zero-area or truncated region has no pixels to fail the
// check; it classifies as StateOther by contract.
func classifyPixels(f Frame) GameState {
	n := f.Width * f.Height
	if n <= 0 || len(f.Pix) < n*3 {
		return StateOther
	}
	for i := 0; i < n; i++ {
		o := i * 3
		if !IsBossPixel(f.Pix[o], f.Pix[o+1], f.Pix[o+2]) {
			return StateOther
		}
	}
	return StateBossWave
}
