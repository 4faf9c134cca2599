//go:build linux

package screen

import (
	"bytes"
	"context"
	"image"
	_ "image/png" // PNG decoder
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/ritsu/mindustry-notifier/internal/detect"
)

type linuxBackend struct{ tempDir string }

// New creates the platform frame source.
func New() Source {
	tmpDir, err := os.MkdirTemp("", "mindustry-notifier-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newBase(&linuxBackend{tempDir: tmpDir})
}

func (l *linuxBackend) capture(ctx context.Context) detect.Frame {
	if !gameProcessRunning(ctx) {
		return detect.Frame{Kind: detect.FrameNoWindow}
	}

	id, visible := findWindow(ctx)
	if id == "" {
		return detect.Frame{Kind: detect.FrameNoWindow}
	}
	if !visible {
		return detect.Frame{Kind: detect.FrameMinimized}
	}

	img := l.captureWindow(ctx, id)
	if img == nil {
		return detect.Frame{Kind: detect.FrameCaptureFailed}
	}
	return regionFrame(img)
}

func (l *linuxBackend) cleanup() {
	if l.tempDir != "" {
		os.RemoveAll(l.tempDir)
	}
}

// gameProcessRunning checks for a running Mindustry process. The desktop
// build runs under a JVM, so the command line is checked as well as the
// process name.
func gameProcessRunning(ctx context.Context) bool {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		slog.Debug("process listing failed", "error", err)
		return true // let the window lookup decide
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

// findWindow resolves the game window ID via xdotool and whether it is
// currently mapped (an iconified window drops out of --onlyvisible).
func findWindow(ctx context.Context) (id string, visible bool) {
	out, err := exec.CommandContext(ctx, "xdotool", "search", "--name", "^"+WindowTitle+"$").Output()
	if err != nil {
		return "", false
	}
	id = firstLine(out)
	if id == "" {
		return "", false
	}
	out, err = exec.CommandContext(ctx, "xdotool", "search", "--onlyvisible", "--name", "^"+WindowTitle+"$").Output()
	if err != nil || firstLine(out) == "" {
		return id, false
	}
	return id, true
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

// captureWindow grabs the window contents with ImageMagick's import.
func (l *linuxBackend) captureWindow(ctx context.Context, id string) image.Image {
	if _, err := exec.LookPath("import"); err != nil {
		slog.Error("no window capture tool found (install ImageMagick)")
		return nil
	}
	tmpFile := filepath.Join(l.tempDir, "window.png")
	cmd := exec.CommandContext(ctx, "import", "-silent", "-window", id, tmpFile)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		slog.Error("window capture failed", "error", err, "stderr", stderr.String())
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
