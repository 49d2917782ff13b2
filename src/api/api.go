// Package api exposes the engine on the session bus so that other processes
// (the ldctl client, the OCR helper, desktop shortcuts) can drive it.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"light-dict/src/errs"
	"light-dict/src/session"
	"light-dict/src/windowing"
)

const (
	Path      dbus.ObjectPath = "/org/lightdict/Engine"
	Interface                 = "org.lightdict.Engine"

	errAccessDenied = "org.freedesktop.DBus.Error.AccessDenied"
	errInvalidArgs  = "org.freedesktop.DBus.Error.InvalidArgs"
	errFailed       = "org.freedesktop.DBus.Error.Failed"
)

// CallTimeout bounds how long a bus call waits for the loop.
const CallTimeout = 5 * time.Second

// Engine is the part of the dispatcher the bus reaches. Every method runs on
// the loop goroutine.
type Engine interface {
	Toggle() session.TriggerMode
	Invoke(kind, text, info string, rect windowing.Rect) error
	OCR(params string) error
	Get(pid int, props []string) ([][]int32, error)
}

// Loop runs fn on the loop goroutine and waits for it.
type Loop interface {
	Call(ctx context.Context, fn func()) error
}

// PIDResolver maps a unique bus name to the caller's process id.
type PIDResolver func(sender string) (uint32, error)

// Server is the exported bus object. Its exported methods are the bus methods.
type Server struct {
	engine Engine
	loop   Loop
	pids   PIDResolver
}

// NewServer returns a server that forwards calls to engine through loop.
func NewServer(engine Engine, loop Loop, pids PIDResolver) *Server {
	return &Server{engine: engine, loop: loop, pids: pids}
}

// Toggle flips the trigger mode between Swift and Popup.
func (s *Server) Toggle() *dbus.Error {
	return s.call("Toggle", func() error {
		s.engine.Toggle()
		return nil
	})
}

// Run invokes kind on text anchored at the pointer.
func (s *Server) Run(kind, text, info string) *dbus.Error {
	return s.call("Run", func() error {
		return s.engine.Invoke(kind, text, info, windowing.Rect{})
	})
}

// RunAt invokes kind on text anchored at rect (x, y, width, height).
func (s *Server) RunAt(kind, text, info string, rect []int32) *dbus.Error {
	if len(rect) != 4 {
		return toDBusError(errs.Newf(errs.CodeInvalidArgs, "rect needs 4 values, got %d", len(rect)))
	}
	r := windowing.Rect{X: int(rect[0]), Y: int(rect[1]), Width: int(rect[2]), Height: int(rect[3])}
	return s.call("RunAt", func() error {
		return s.engine.Invoke(kind, text, info, r)
	})
}

// OCR starts the OCR helper.
func (s *Server) OCR(params string) *dbus.Error {
	return s.call("OCR", func() error {
		return s.engine.OCR(params)
	})
}

// Get answers geometry queries. Only the OCR helper holding the current
// screenshot grant may call it.
func (s *Server) Get(sender dbus.Sender, props []string) ([][]int32, *dbus.Error) {
	pid, err := s.pids(string(sender))
	if err != nil {
		slog.Warn("api: cannot resolve caller pid", "sender", sender, "error", err)
		return nil, toDBusError(errs.Wrap(err, errs.CodeAccessDenied, "cannot resolve caller"))
	}
	var out [][]int32
	derr := s.call("Get", func() error {
		var err error
		out, err = s.engine.Get(int(pid), props)
		return err
	})
	if derr != nil {
		return nil, derr
	}
	return out, nil
}

func (s *Server) call(method string, fn func() error) *dbus.Error {
	ctx, cancel := context.WithTimeout(context.Background(), CallTimeout)
	defer cancel()
	var err error
	if cerr := s.loop.Call(ctx, func() { err = fn() }); cerr != nil {
		err = errs.Wrap(cerr, errs.CodeUnavailable, "engine not responding")
	}
	if err != nil {
		slog.Debug("api call failed", "method", method, "error", err)
		return toDBusError(err)
	}
	slog.Debug("api call", "method", method)
	return nil
}

// BusPIDs resolves callers through the bus daemon.
func BusPIDs(conn *dbus.Conn) PIDResolver {
	return func(sender string) (uint32, error) {
		var pid uint32
		err := conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, sender).Store(&pid)
		return pid, err
	}
}

// Export publishes s on conn. The returned func withdraws it.
func Export(conn *dbus.Conn, s *Server) (func(), error) {
	if err := conn.Export(s, Path, Interface); err != nil {
		return nil, fmt.Errorf("export %s: %w", Interface, err)
	}
	node := &introspect.Node{
		Name: string(Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{Name: Interface, Methods: introspect.Methods(s)},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path, "org.freedesktop.DBus.Introspectable"); err != nil {
		_ = conn.Export(nil, Path, Interface)
		return nil, fmt.Errorf("export introspection: %w", err)
	}
	return func() {
		_ = conn.Export(nil, Path, Interface)
		_ = conn.Export(nil, Path, "org.freedesktop.DBus.Introspectable")
	}, nil
}

func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	switch errs.CodeOf(err) {
	case errs.CodeAccessDenied:
		return dbus.NewError(errAccessDenied, []any{err.Error()})
	case errs.CodeInvalidArgs:
		return dbus.NewError(errInvalidArgs, []any{err.Error()})
	default:
		return dbus.NewError(errFailed, []any{err.Error()})
	}
}

// fromDBusError turns a bus error back into a coded error.
func fromDBusError(err error) error {
	if err == nil {
		return nil
	}
	var derr dbus.Error
	switch e := err.(type) {
	case dbus.Error:
		derr = e
	case *dbus.Error:
		derr = *e
	default:
		return errs.Wrap(err, errs.CodeUnavailable, "bus call failed")
	}
	msg := derr.Error()
	switch derr.Name {
	case errAccessDenied:
		return errs.New(errs.CodeAccessDenied, msg)
	case errInvalidArgs:
		return errs.New(errs.CodeInvalidArgs, msg)
	default:
		return errs.New(errs.CodeExecution, msg)
	}
}
