// Package screen provides platform-specific capture of the game window's
// health-bar region.
package screen

import (
	"context"
	"crypto/md5"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/ritsu/mindustry-notifier/internal/detect"
)

// Title of the game window to monitor.
const WindowTitle = "Mindustry"

// CaptureTimeout bounds a single backend capture call. A hung platform call
// surfaces as a capture failure instead of stalling the detection loop.
const CaptureTimeout = 2 * time.Second

// Source samples the monitored window.
type Source interface {
	Sample(ctx context.Context) detect.Frame
	Close()
}

// backend implements platform-specific raw capture.
type backend interface {
	capture(ctx context.Context) detect.Frame
	cleanup()
}

// baseSource bounds backend calls with a timeout and tracks frame changes by
// hashing the sampled region. The region is small and often uniform, so an
// exact hash is used; perceptual hashes degenerate on uniform images.
type baseSource struct {
	backend
	timeout  time.Duration
	lastHash [16]byte
	hasHash  bool
}

func newBase(b backend) *baseSource {
	return &baseSource{backend: b, timeout: CaptureTimeout}
}

// Sample captures one frame. The backend call runs in its own goroutine so a
// stuck capture is abandoned at the deadline.
func (s *baseSource) Sample(ctx context.Context) detect.Frame {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	frames := make(chan detect.Frame, 1)
	go func() { frames <- s.capture(ctx) }()

	var f detect.Frame
	select {
	case f = <-frames:
	case <-ctx.Done():
		slog.Warn("capture timed out", "timeout", s.timeout)
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}

	if f.Kind == detect.FramePixels {
		f.Changed = s.changed(f)
	}
	return f
}

// changed compares the region's hash against the previous sample.
func (s *baseSource) changed(f detect.Frame) bool {
	hash := md5.Sum(f.Pix)
	if s.hasHash && hash == s.lastHash {
		return false
	}
	s.lastHash = hash
	s.hasHash = true
	return true
}

func (s *baseSource) Close() { s.cleanup() }

// regionFrame extracts the health-bar region from a captured window image.
// A window too small to contain the region cannot be read meaningfully and
// reports a capture failure.
func regionFrame(img image.Image) detect.Frame {
	b := img.Bounds()
	r := image.Rect(
		detect.RegionX, detect.RegionY,
		detect.RegionX+detect.RegionWidth, detect.RegionY+detect.RegionHeight,
	).Add(b.Min)
	if !r.In(b) {
		slog.Warn("window smaller than detection region", "window", b.Size().String())
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}

	f := detect.Frame{
		Kind:   detect.FramePixels,
		Width:  r.Dx(),
		Height: r.Dy(),
		Pix:    make([]uint8, 0, r.Dx()*r.Dy()*3),
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			f.Pix = append(f.Pix, c.R, c.G, c.B)
		}
	}
	return f
}
