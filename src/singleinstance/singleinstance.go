// Package singleinstance makes the engine the sole owner of its bus name so
// that exactly one resident daemon runs per session.
package singleinstance

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

// ErrRunning is returned by Acquire when another process owns the name.
var ErrRunning = errors.New("another instance is already running")

// Bus is the subset of *dbus.Conn ownership needs.
type Bus interface {
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
}

// Owner holds a bus name until Release.
type Owner struct {
	bus  Bus
	name string
}

// Acquire requests name without queueing. It fails with ErrRunning when the
// name already has a primary owner.
func Acquire(bus Bus, name string) (*Owner, error) {
	reply, err := bus.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("request bus name %s: %w", name, err)
	}
	switch reply {
	case dbus.RequestNameReplyPrimaryOwner, dbus.RequestNameReplyAlreadyOwner:
		slog.Info("singleinstance: owning bus name", "name", name)
		return &Owner{bus: bus, name: name}, nil
	default:
		return nil, ErrRunning
	}
}

// Name returns the owned bus name.
func (o *Owner) Name() string { return o.name }

// Release gives the name back. Calling it twice is harmless.
func (o *Owner) Release() error {
	if o == nil || o.bus == nil {
		return nil
	}
	bus := o.bus
	o.bus = nil
	if _, err := bus.ReleaseName(o.name); err != nil {
		return fmt.Errorf("release bus name %s: %w", o.name, err)
	}
	slog.Info("singleinstance: released bus name", "name", o.name)
	return nil
}
