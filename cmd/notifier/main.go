// Mindustry boss-wave notifier - samples the game window's health-bar region
// and raises a desktop notification when a boss wave appears.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ritsu/mindustry-notifier/internal/config"
	"github.com/ritsu/mindustry-notifier/internal/detect"
	"github.com/ritsu/mindustry-notifier/internal/notify"
	"github.com/ritsu/mindustry-notifier/internal/screen"
	"github.com/ritsu/mindustry-notifier/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		verbose  bool
		quiet    bool
		interval int
		cfgPath  string
		addr     string
	)
	flag.BoolVar(&verbose, "verbose", false, "log status every tick, throttled to the status interval")
	flag.BoolVar(&verbose, "v", false, "shorthand for -verbose")
	flag.BoolVar(&quiet, "quiet", false, "suppress all non-critical logging")
	flag.BoolVar(&quiet, "q", false, "shorthand for -quiet")
	flag.IntVar(&interval, "interval", 5, "seconds between status lines in verbose mode")
	flag.IntVar(&interval, "i", 5, "shorthand for -interval")
	flag.StringVar(&cfgPath, "config", "", "path to optional YAML config file")
	flag.StringVar(&addr, "addr", "", "serve the local status API on this address (e.g. 127.0.0.1:8700)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// Flags override file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbose", "v":
			cfg.Verbose = verbose
		case "quiet", "q":
			cfg.Quiet = quiet
		case "interval", "i":
			cfg.StatusInterval = time.Duration(interval) * time.Second
		case "addr":
			cfg.HTTPAddr = addr
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// Setup structured logging; quiet mode passes only critical lines.
	level := slog.LevelInfo
	if cfg.Quiet {
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	src := screen.New()
	defer src.Close()

	mon := detect.NewMonitor(src, notify.NewDesktop(), detect.Options{
		StatusInterval: cfg.StatusInterval,
		Verbose:        cfg.Verbose,
		Quiet:          cfg.Quiet,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Path != "" {
		go func() {
			err := config.Watch(ctx, cfg.Path, func(next *config.Config) {
				mon.SetStatusInterval(next.StatusInterval)
				slog.Info("config reloaded", "status_interval", next.StatusInterval)
			})
			if err != nil {
				slog.Warn("config watch failed", "error", err)
			}
		}()
	}

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		httpServer = &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      server.New(mon).Handler(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("status server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
				slog.Error("status server error", "error", err)
			}
		}()
	}

	// User-initiated shutdown cancels the loop between sub-sleeps.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		cancel()
	}()

	runErr := mon.Run(ctx)

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Debug("status server shutdown error", "error", err)
		}
	}

	// Fatal detection states exit non-zero; the monitor already raised the
	// notification and the critical log line.
	if runErr != nil {
		return 1
	}
	slog.Info("shutdown complete")
	return 0
}
