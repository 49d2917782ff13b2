// Package ocr invokes the external OCR helper and owns the screenshot grant
// that lets exactly that helper query the engine while it runs.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"light-dict/src/errs"
)

// Mode is the helper's recognition mode.
type Mode string

const (
	ModeWord      Mode = "word"
	ModeParagraph Mode = "paragraph"
	ModeArea      Mode = "area"
	ModeLine      Mode = "line"
)

// DefaultTimeout bounds one helper run.
const DefaultTimeout = 60 * time.Second

// ParseMode accepts the four mode names case-insensitively; anything else is
// word mode.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeParagraph:
		return ModeParagraph
	case ModeArea:
		return ModeArea
	case ModeLine:
		return ModeLine
	default:
		return ModeWord
	}
}

// Args builds the helper arguments. A non-empty override replaces them all.
func Args(mode Mode, params, override string) ([]string, error) {
	if strings.TrimSpace(override) != "" {
		args, err := shellquote.Split(override)
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeInvalidArgs, "invalid OCR parameters")
		}
		return args, nil
	}
	extra, err := shellquote.Split(params)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeConfig, "invalid ocr-params setting")
	}
	return append([]string{"-m", string(mode)}, extra...), nil
}

// Helper runs the OCR helper binary.
type Helper struct {
	Path    string
	Grant   *Grant
	Timeout time.Duration
}

// Run executes the helper with args and returns its trimmed stdout. The
// helper's pid holds the grant from start until the call settles.
func (h *Helper) Run(ctx context.Context, args []string) (string, error) {
	if h.Path == "" {
		return "", errs.New(errs.CodeUnavailable, "no OCR helper configured")
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("starting OCR helper", "helper", h.Path, "args", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return "", errs.Wrap(err, errs.CodeUnavailable, "failed to start OCR helper")
	}
	revoke := func() {}
	if h.Grant != nil {
		revoke = h.Grant.Allow(cmd.Process.Pid)
	}
	err := cmd.Wait()
	revoke()

	if ctx.Err() == context.DeadlineExceeded {
		return "", errs.Newf(errs.CodeExecution, "OCR helper timed out after %v", timeout)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", errs.New(errs.CodeExecution, fmt.Sprintf("OCR helper failed: %s", msg))
	}
	return strings.TrimSpace(stdout.String()), nil
}
