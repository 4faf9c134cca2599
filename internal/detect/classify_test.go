package detect

import (
	"math"
	"testing"
)

// pixelFrame builds a uniform RGB region.
func pixelFrame(w, h int, r, g, b uint8) Frame {
	f := Frame{Kind: FramePixels, Width: w, Height: h, Pix: make([]uint8, 0, w*h*3)}
	for i := 0; i < w*h; i++ {
		f.Pix = append(f.Pix, r, g, b)
	}
	return f
}

func TestClassifyFrameKinds(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  GameState
	}{
		{"no window", Frame{Kind: FrameNoWindow}, StateNotFound},
		{"minimized", Frame{Kind: FrameMinimized}, StateMinimized},
		{"capture failed", Frame{Kind: FrameCaptureFailed}, StateCaptureFailed},
		{"boss pixels", pixelFrame(RegionWidth, RegionHeight, 93, 93, 93), StateBossWave},
		{"non-boss pixels", pixelFrame(RegionWidth, RegionHeight, 200, 200, 200), StateOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.frame); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyShortCircuitsBeforePixels(t *testing.T) {
	// A failed capture may still carry partial pixel data; the kind wins.
	f := pixelFrame(RegionWidth, RegionHeight, 93, 93, 93)
	f.Kind = FrameCaptureFailed
	if got := Classify(f); got != StateCaptureFailed {
		t.Errorf("Classify() = %v, want %v", got, StateCaptureFailed)
	}

	f.Kind = FrameMinimized
	if got := Classify(f); got != StateMinimized {
		t.Errorf("Classify() = %v, want %v", got, StateMinimized)
	}
}

func TestClassifyLumaBoundaries(t *testing.T) {
	// Grey pixels have luma equal to their channel value, so the boss band
	// (92.425, 94.425) is easy to straddle.
	tests := []struct {
		value uint8
		want  GameState
	}{
		{92, StateOther},
		{93, StateBossWave},
		{94, StateBossWave},
		{95, StateOther},
	}
	for _, tt := range tests {
		f := pixelFrame(RegionWidth, RegionHeight, tt.value, tt.value, tt.value)
		if got := Classify(f); got != tt.want {
			t.Errorf("Classify(grey %d) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestClassifySinglePixelBreaksBossWave(t *testing.T) {
	f := pixelFrame(RegionWidth, RegionHeight, 93, 93, 93)
	if got := Classify(f); got != StateBossWave {
		t.Fatalf("uniform boss region: Classify() = %v, want %v", got, StateBossWave)
	}

	// Flip one pixel to luma 100.
	mid := (RegionWidth * RegionHeight / 2) * 3
	f.Pix[mid], f.Pix[mid+1], f.Pix[mid+2] = 100, 100, 100
	if got := Classify(f); got != StateOther {
		t.Errorf("one off-band pixel: Classify() = %v, want %v", got, StateOther)
	}
}

func TestClassifyEmptyRegion(t *testing.T) {
	// Zero-area regions have no pixels to fail the check; pinned to Other.
	tests := []struct {
		name  string
		frame Frame
	}{
		{"zero width", Frame{Kind: FramePixels, Width: 0, Height: RegionHeight}},
		{"zero height", Frame{Kind: FramePixels, Width: RegionWidth, Height: 0}},
		{"nil pixels", Frame{Kind: FramePixels, Width: RegionWidth, Height: RegionHeight}},
		{"truncated pixels", Frame{Kind: FramePixels, Width: 2, Height: 2, Pix: []uint8{93, 93, 93}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.frame); got != StateOther {
				t.Errorf("Classify() = %v, want %v", got, StateOther)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	f := pixelFrame(RegionWidth, RegionHeight, 93, 94, 93)
	first := Classify(f)
	for i := 0; i < 10; i++ {
		if got := Classify(f); got != first {
			t.Fatalf("Classify() not deterministic: %v then %v", first, got)
		}
	}
}

func TestIsBossPixel(t *testing.T) {
	if !IsBossPixel(93, 94, 93) {
		t.Error("pixel with luma 93.72 should be a boss pixel")
	}
	if IsBossPixel(100, 100, 100) {
		t.Error("pixel with luma 100 should not be a boss pixel")
	}
}

func TestLuma(t *testing.T) {
	if got := Luma(0, 0, 0); got != 0 {
		t.Errorf("Luma(black) = %f, want 0", got)
	}
	if got := Luma(255, 255, 255); math.Abs(got-255) > 1e-9 {
		t.Errorf("Luma(white) = %f, want 255", got)
	}
	// Pure red contributes only the red coefficient.
	if got := Luma(255, 0, 0); got != 0.2126*255 {
		t.Errorf("Luma(red) = %f, want %f", got, 0.2126*255)
	}
}
