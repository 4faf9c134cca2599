package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ritsu/mindustry-notifier/internal/detect"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notifier.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Verbose || cfg.Quiet {
		t.Error("defaults should not enable verbose or quiet")
	}
	if cfg.StatusInterval != detect.DefaultStatusInterval {
		t.Errorf("StatusInterval = %v, want default", cfg.StatusInterval)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("HTTPAddr = %q, want disabled by default", cfg.HTTPAddr)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "verbose: true\nstatus_interval: 30\nhttp_addr: \"127.0.0.1:8420\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if !cfg.Verbose {
		t.Error("Verbose should come from the file")
	}
	if cfg.StatusInterval != 30*time.Second {
		t.Errorf("StatusInterval = %v, want 30s", cfg.StatusInterval)
	}
	if cfg.HTTPAddr != "127.0.0.1:8420" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "http_addr: \":9000\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.StatusInterval != detect.DefaultStatusInterval {
		t.Errorf("StatusInterval = %v, want default when the key is absent", cfg.StatusInterval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "status_interval: [not a number\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail for unparseable YAML")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "verbose: true\nstatus_interval: 30\n")
	t.Setenv("VERBOSE", "false")
	t.Setenv("STATUS_INTERVAL", "45")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.Verbose {
		t.Error("VERBOSE=false should override the file")
	}
	if cfg.StatusInterval != 45*time.Second {
		t.Errorf("StatusInterval = %v, want env value 45s", cfg.StatusInterval)
	}
}

func TestEnvBoolParsing(t *testing.T) {
	for _, v := range []string{"true", "1"} {
		t.Setenv("QUIET", v)
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() = %v", err)
		}
		if !cfg.Quiet {
			t.Errorf("QUIET=%q should enable quiet", v)
		}
	}
}

func TestValidateRejectsVerboseAndQuiet(t *testing.T) {
	c := &Config{Verbose: true, Quiet: true, StatusInterval: time.Second}
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject verbose together with quiet")
	}
}

func TestValidateRejectsNonPositiveInterval(t *testing.T) {
	c := &Config{StatusInterval: 0}
	if err := c.Validate(); err == nil {
		t.Error("Validate() should reject a non-positive status interval")
	}
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "status_interval: 10\n")

	reloads := make(chan *Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(c *Config) { reloads <- c }) }()

	// Give the watcher a moment to register before rewriting the file.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("status_interval: 25\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloads:
		if cfg.StatusInterval != 25*time.Second {
			t.Errorf("reloaded StatusInterval = %v, want 25s", cfg.StatusInterval)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed after file change")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() = %v, want nil on cancellation", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop on cancellation")
	}
}
