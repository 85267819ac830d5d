// Package main provides a paging controller that watches a studio audio feed
// and powers network speaker groups on while sustained audio is present.
//
// Usage:
//
//	paging [-config path/to/config.json]
//
// If -config is not specified, the controller looks for config.json in the
// same directory as the binary.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oszuidwest/zwfm-paging/internal/audio"
	"github.com/oszuidwest/zwfm-paging/internal/config"
	"github.com/oszuidwest/zwfm-paging/internal/gateway"
	"github.com/oszuidwest/zwfm-paging/internal/journal"
	"github.com/oszuidwest/zwfm-paging/internal/monitor"
	"github.com/oszuidwest/zwfm-paging/internal/util"
)

// Build information. Overridden at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: config.json next to binary)")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		slog.Info("version info", "version", Version, "commit", Commit, "build_time", BuildTime)
		return
	}

	if *configPath == "" {
		execPath, err := os.Executable()
		if err != nil {
			slog.Error("failed to get executable path", "error", err)
			os.Exit(1)
		}
		*configPath = filepath.Join(filepath.Dir(execPath), "config.json")
	}

	slog.Info("using config file", "path", *configPath)

	cfg := config.New(*configPath)
	if err := cfg.Load(); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Check capture backend availability
	ffmpegPath := util.ResolveFFmpegPath(cfg.GetFFmpegPath())
	captureAvailable := audio.CaptureAvailable(cfg.GetFFmpegPath())
	switch {
	case !captureAvailable:
		slog.Warn("audio capture backend not found - running in degraded mode",
			"configured_path", cfg.GetFFmpegPath())
	case ffmpegPath != "":
		slog.Info("FFmpeg found", "path", ffmpegPath)
	}

	jl := journal.New()
	gw := gateway.NewClient(cfg)
	ctrl := monitor.New(cfg, ffmpegPath, jl, gw, clockwork.NewRealClock())

	srv := NewServer(cfg, ctrl, jl, gw, captureAvailable)

	// Resume monitoring when the previous session was interrupted while
	// active. Resume waits out a grace delay so devices can settle.
	if captureAvailable {
		go ctrl.Resume()
	} else if cfg.WasMonitoring() {
		slog.Warn("monitoring not resumed - audio capture not available")
	}

	// Start web server.
	httpServer := srv.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, util.ShutdownSignals()...)
	<-sigChan

	slog.Info("shutting down")

	// Stop version checker goroutine
	srv.version.Stop()

	// Shut down HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Shutdown powers the speakers down but keeps the resume flag, so an
	// active session starts again on the next boot.
	if err := ctrl.Shutdown(); err != nil {
		slog.Error("error stopping monitor", "error", err)
	}

	slog.Info("shutdown complete")
}
