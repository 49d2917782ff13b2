package logutil

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB   = 10
	maxArchives = 3
)

// Setup installs the default slog logger. With file logging enabled records
// go to a rotating file (10MB, 3 archives); otherwise they are discarded to
// keep stdout clean. The returned closer releases the file.
func Setup(enableFileLogging bool, path, level string) io.Closer {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if !enableFileLogging || path == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, opts)))
		log.SetOutput(io.Discard)
		return nopCloser{}
	}
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxArchives,
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, opts)))
	return w
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate shortens s for log lines.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
