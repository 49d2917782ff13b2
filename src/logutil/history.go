package logutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// History appends one JSON line per captured lookup.
type History struct {
	logger *slog.Logger
	closer io.Closer
}

// OpenHistory writes to a rotating file at path.
func OpenHistory(path string) *History {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	w := &lumberjack.Logger{Filename: path, MaxSize: maxSizeMB, MaxBackups: maxArchives}
	return NewHistory(w)
}

// NewHistory writes to w. If w is an io.Closer, Close closes it.
func NewHistory(w io.Writer) *History {
	h := &History{logger: slog.New(slog.NewJSONHandler(w, nil))}
	if c, ok := w.(io.Closer); ok {
		h.closer = c
	}
	return h
}

// Record logs a finished lookup.
func (h *History) Record(command, selection, appID, output string, err error) {
	if h == nil {
		return
	}
	attrs := []any{
		"command", command,
		"selection", selection,
		"app", appID,
	}
	if err != nil {
		h.logger.Info("lookup", append(attrs, "error", err.Error())...)
		return
	}
	h.logger.Info("lookup", append(attrs, "output", output)...)
}

func (h *History) Close() error {
	if h == nil || h.closer == nil {
		return nil
	}
	return h.closer.Close()
}
