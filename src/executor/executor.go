// Package executor runs commands against a selection and routes the outcome
// to the sinks the command declares.
package executor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"light-dict/src/command"
	"light-dict/src/config"
	"light-dict/src/errs"
	"light-dict/src/eventloop"
	"light-dict/src/session"
)

const (
	// ScriptDelay lets the command bar hide before a script simulates keys.
	ScriptDelay = 30 * time.Millisecond
	// DefaultTimeout bounds a captured shell run.
	DefaultTimeout = 30 * time.Second

	scriptTimer = "script-eval"
)

var (
	ErrBusy           = errs.New(errs.CodeBusy, "Busy, please retry")
	ErrScriptDisabled = errs.New(errs.CodeScriptDisabled, "scripted commands are disabled (enable-script)")
)

// Result is Ok when Err is nil.
type Result struct {
	Output string
	Err    error
}

func Ok(output string) Result { return Result{Output: output} }

func Fail(err error) Result { return Result{Err: err} }

// Sinks are the destinations a captured result can be routed to.
type Sinks interface {
	// ArmIgnore makes the selection monitor skip the next selection event.
	ArmIgnore()
	// DisarmIgnore clears the flag when the write that armed it failed.
	DisarmIgnore()
	SetPrimary(text string) error
	CopyClipboard(text string) error
	ShowPanel(sel session.Selection, text string, isError bool)
	Commit(text string) error
}

// History records captured lookups.
type History interface {
	Record(command, selection, appID, output string, err error)
}

var Bindings = config.Bindings{
	"script":  {Key: config.KeyEnableScript, Kind: config.Bool},
	"history": {Key: config.KeyEnableHistory, Kind: config.Bool},
}

// Executor runs commands off the loop and delivers results on it.
type Executor struct {
	runner  eventloop.Runner
	sched   eventloop.Scheduler
	sinks   Sinks
	host    Host
	history History

	shell         string
	timeout       time.Duration
	scriptEnabled bool
	historyOn     bool

	// OnResult, if set, observes every captured result after routing.
	OnResult func(command.Command, session.Selection, Result)
}

func New(runner eventloop.Runner, sched eventloop.Scheduler, sinks Sinks, host Host) *Executor {
	return &Executor{
		runner:  runner,
		sched:   sched,
		sinks:   sinks,
		host:    host,
		shell:   "sh",
		timeout: DefaultTimeout,
	}
}

// SetHistory installs the lookup history writer.
func (e *Executor) SetHistory(h History) { e.history = h }

// SetScriptEnabled opts in to the scripted dialect.
func (e *Executor) SetScriptEnabled(on bool) { e.scriptEnabled = on }

// SetTimeout bounds captured shell runs.
func (e *Executor) SetTimeout(d time.Duration) {
	if d > 0 {
		e.timeout = d
	}
}

func (e *Executor) Apply(field string, v any) {
	switch field {
	case "script":
		e.scriptEnabled = v.(bool)
	case "history":
		e.historyOn = v.(bool)
	}
}

// Stop drops a pending scripted evaluation.
func (e *Executor) Stop() { e.sched.Cancel(scriptTimer) }

// Run executes cmd against sel without blocking the loop. Results arrive on
// the loop and are routed to cmd's sinks.
func (e *Executor) Run(cmd command.Command, sel session.Selection) {
	slog.Debug("executing command", "command", cmd.Name, "dialect", cmd.Dialect, "sinks", cmd.Sinks)
	if cmd.Dialect == command.Scripted {
		e.runScript(cmd, sel)
		return
	}
	line := Substitute(cmd.Text, sel.Text, sel.AppID)
	if cmd.Sinks.Detached() {
		e.spawnDetached(cmd, line)
		return
	}
	timeout := e.timeout
	shell := e.shell
	ok := e.runner.Go(func() func() {
		res := runCaptured(shell, line, timeout)
		return func() { e.deliver(cmd, sel, res) }
	})
	if !ok {
		e.deliver(cmd, sel, Fail(ErrBusy))
	}
}

func (e *Executor) spawnDetached(cmd command.Command, line string) {
	c := exec.Command(e.shell, "-c", line)
	if err := c.Start(); err != nil {
		slog.Warn("detached command failed to start", "command", cmd.Name, "error", err)
		return
	}
	go func() {
		if err := c.Wait(); err != nil {
			slog.Debug("detached command exited", "command", cmd.Name, "error", err)
		}
	}()
}

func runCaptured(shell, line string, timeout time.Duration) Result {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c := exec.CommandContext(ctx, shell, "-c", line)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Fail(errs.Newf(errs.CodeExecution, "command timed out after %v", timeout))
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Fail(errs.Wrap(err, errs.CodeExecution, "failed to start command"))
		}
		return Fail(errs.New(errs.CodeExecution, msg))
	}
	return Ok(strings.TrimSpace(stdout.String()))
}

func (e *Executor) runScript(cmd command.Command, sel session.Selection) {
	if !e.scriptEnabled {
		slog.Warn("scripted command skipped", "command", cmd.Name)
		if !cmd.Sinks.Detached() {
			e.deliver(cmd, sel, Fail(ErrScriptDisabled))
		}
		return
	}
	host := e.host
	// One pending evaluation; a newer run replaces it.
	e.sched.Reset(scriptTimer, ScriptDelay, func() {
		ok := e.runner.Go(func() func() {
			out, err := Evaluate(cmd.Text, sel, host)
			if cmd.Sinks.Detached() {
				if err != nil {
					slog.Warn("scripted command failed", "command", cmd.Name, "error", err)
				}
				return nil
			}
			res := Ok(out)
			if err != nil {
				res = Fail(errs.Wrap(err, errs.CodeExecution, ""))
			}
			return func() { e.deliver(cmd, sel, res) }
		})
		if !ok && !cmd.Sinks.Detached() {
			e.deliver(cmd, sel, Fail(ErrBusy))
		}
	})
}

// deliver routes a captured result. Errors always reach the panel.
func (e *Executor) deliver(cmd command.Command, sel session.Selection, res Result) {
	if e.historyOn && e.history != nil {
		e.history.Record(cmd.Name, sel.Text, sel.AppID, res.Output, res.Err)
	}
	defer func() {
		if e.OnResult != nil {
			e.OnResult(cmd, sel, res)
		}
	}()

	if res.Err != nil {
		slog.Info("command failed", "command", cmd.Name, "error", res.Err)
		e.sinks.ShowPanel(sel, res.Err.Error(), true)
		return
	}

	out := res.Output
	if cmd.Sinks.Has(command.SinkSelect) {
		e.sinks.ArmIgnore()
		if err := e.sinks.SetPrimary(out); err != nil {
			e.sinks.DisarmIgnore()
			slog.Warn("primary selection write failed", "error", err)
		}
	}
	if cmd.Sinks.Has(command.SinkClipboard) {
		if err := e.sinks.CopyClipboard(out); err != nil {
			slog.Warn("clipboard write failed", "error", err)
		}
	}
	if cmd.Sinks.Has(command.SinkPopup) && out != "" {
		e.sinks.ShowPanel(sel, out, false)
	}
	if cmd.Sinks.Has(command.SinkCommit) {
		e.sinks.ArmIgnore()
		if err := e.sinks.Commit(out); err != nil {
			e.sinks.DisarmIgnore()
			slog.Warn("commit to focused input failed", "error", err)
		}
	}
}
