// Package runtimeinit performs the startup steps shared by the daemon and its
// tests: configuration, logging and the clipboard backend.
package runtimeinit

import (
	"fmt"
	"io"
	"log/slog"

	"light-dict/src/clipboard"
	"light-dict/src/config"
	"light-dict/src/logutil"
)

type Options struct {
	LoadOptions config.LoadOptions
	// SetupLogging replaces logutil.Setup when set.
	SetupLogging func(cfg *config.Config) io.Closer
	// InitClipboard replaces clipboard.Init when set.
	InitClipboard func() error
}

// Bootstrap loads configuration and brings up logging and the clipboard. The
// returned closer flushes the log file.
func Bootstrap(opts Options) (*config.Config, io.Closer, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setup := opts.SetupLogging
	if setup == nil {
		setup = func(cfg *config.Config) io.Closer {
			return logutil.Setup(cfg.EnableFileLogging, cfg.LogFile, cfg.LogLevel)
		}
	}
	closer := setup(cfg)

	initClipboard := opts.InitClipboard
	if initClipboard == nil {
		initClipboard = clipboard.Init
	}
	if err := initClipboard(); err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	slog.Info("configuration loaded", "settings", cfg.SettingsFile, "bus", cfg.BusName, "ocr_helper", cfg.OCRHelper)
	return cfg, closer, nil
}
