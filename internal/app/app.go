package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/storefront/internal/config"
	"github.com/five82/storefront/internal/dispatch"
	"github.com/five82/storefront/internal/mall"
	"github.com/five82/storefront/internal/prefs"
	"github.com/five82/storefront/internal/state"
	"github.com/five82/storefront/internal/telemetry"
	"github.com/five82/storefront/internal/ui"
)

// Options configure the storefront application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses the config value
	PollEvery  int    // seconds; zero uses the config value
	LogPath    string // empty uses <user cache dir>/storefront/storefront.log
}

// Run boots the storefront TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(opts.PrefsPath) != "" {
		cfg.PrefsPath = opts.PrefsPath
	}
	if opts.PollEvery > 0 {
		cfg.PollEvery = time.Duration(opts.PollEvery) * time.Second
	}

	logger, closeLog, err := openLogger(opts.LogPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer closeLog()

	shutdown, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", slog.String("error", err.Error()))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = shutdown(flushCtx)
	}()

	client, err := mall.NewClient(cfg.APIBase, cfg.SubDomain)
	if err != nil {
		return fmt.Errorf("init mall client: %w", err)
	}

	scalars := prefs.OpenScalars(cfg.PrefsPath)
	store := state.NewStore(state.State{})
	dispatcher := dispatch.New(store, client, scalars, dispatch.Options{
		Logger:           logger,
		RegionExclusions: cfg.RegionExclusions,
	})

	// An offline start still shows hydrated values; failures are on the
	// snapshot for the UI to report.
	if err := dispatcher.Boot(ctx); err != nil {
		logger.Warn("boot incomplete", slog.String("error", err.Error()))
	}

	StartPoller(ctx, dispatcher, cfg.PollEvery, logger)

	return ui.Run(ui.Options{
		Context:    ctx,
		Dispatcher: dispatcher,
		Prefs:      scalars,
		ThemeName:  scalars.Theme(),
		Logger:     logger,
	})
}

// openLogger writes JSON logs to a file; the terminal belongs to the UI.
func openLogger(path string) (*slog.Logger, func(), error) {
	if strings.TrimSpace(path) == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}, nil
		}
		path = filepath.Join(dir, "storefront", "storefront.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, func() { _ = file.Close() }, nil
}
