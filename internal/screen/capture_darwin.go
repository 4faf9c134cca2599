//go:build darwin

package screen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png" // PNG decoder
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ritsu/mindustry-notifier/internal/detect"
)

type darwinBackend struct{ tempDir string }

// New creates the platform frame source.
func New() Source {
	tmpDir, err := os.MkdirTemp("", "mindustry-notifier-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&darwinBackend{tempDir: tmpDir})
}

// windowScript asks System Events for the front window's geometry and
// minimized state of the game process.
const windowScript = `tell application "System Events"
	tell (first process whose name is "%s")
		set w to front window
		set {x, y} to position of w
		set {ww, wh} to size of w
		set mini to value of attribute "AXMinimized" of w
		return (x as text) & " " & y & " " & ww & " " & wh & " " & mini
	end tell
end tell`

func (d *darwinBackend) capture(ctx context.Context) detect.Frame {
	if !gameProcessRunning(ctx) {
		return detect.Frame{Kind: detect.FrameNoWindow}
	}

	rect, minimized, err := windowGeometry(ctx)
	if err != nil {
		// Process exists but no window is reachable.
		return detect.Frame{Kind: detect.FrameNoWindow}
	}
	if minimized {
		return detect.Frame{Kind: detect.FrameMinimized}
	}

	img := d.captureRect(ctx, rect)
	if img == nil {
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}
	return regionFrame(img)
}

func (d *darwinBackend) cleanup() {
	if d.tempDir != "" {
		os.RemoveAll(d.tempDir)
	}
}

func gameProcessRunning(ctx context.Context) bool {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		slog.Debug("process listing failed", "error", err)
		return true
	}
	for _, p := range procs {
		if name, err := p.NameWithContext(ctx); err == nil && strings.Contains(name, WindowTitle) {
			return true
		}
		if cmd, err := p.CmdlineWithContext(ctx); err == nil && strings.Contains(cmd, WindowTitle) {
			return true
		}
	}
	return false
}

// windowGeometry returns the game window's screen rectangle and whether it
// is minimized.
func windowGeometry(ctx context.Context) (image.Rectangle, bool, error) {
	script := fmt.Sprintf(windowScript, WindowTitle)
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return image.Rectangle{}, false, fmt.Errorf("window lookup: %w", err)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) != 5 {
		return image.Rectangle{}, false, fmt.Errorf("unexpected window lookup output: %q", out)
	}
	vals := make([]int, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return image.Rectangle{}, false, fmt.Errorf("parse window geometry: %w", err)
		}
		vals[i] = v
	}
	rect := image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3])
	return rect, fields[4] == "true", nil
}

// captureRect captures the window's screen rectangle with the native
// screencapture tool.
func (d *darwinBackend) captureRect(ctx context.Context, r image.Rectangle) image.Image {
	tmpFile := filepath.Join(d.tempDir, "window.png")
	region := fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Dx(), r.Dy())
	cmd := exec.CommandContext(ctx, "screencapture", "-x", "-t", "png", "-R"+region, tmpFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("screencapture failed", "error", err, "stderr", stderr.String())
		return nil
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		slog.Error("failed to read capture", "error", err)
		return nil
	}
	os.Remove(tmpFile)

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Error("failed to decode capture", "error", err)
		return nil
	}
	return img
}
