// Package notification shows desktop notifications through the freedesktop
// notification service.
package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	service = "org.freedesktop.Notifications"
	path    = dbus.ObjectPath("/org/freedesktop/Notifications")
	method  = service + ".Notify"

	appName = "light-dict"
	// expireMillis is how long a notification stays up.
	expireMillis = int32(3000)
	maxBody      = 200

	// callTimeout bounds a Notify when the notification daemon is wedged.
	callTimeout = 2 * time.Second
)

// Caller is the subset of dbus.BusObject used to send notifications.
type Caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Notifier sends notifications, replacing the previous one it sent. With no
// bus it only logs.
type Notifier struct {
	obj     Caller
	last    uint32
	timeout time.Duration
}

// New returns a notifier on conn; a nil conn logs instead.
func New(conn *dbus.Conn) *Notifier {
	if conn == nil {
		return &Notifier{timeout: callTimeout}
	}
	return &Notifier{obj: conn.Object(service, path), timeout: callTimeout}
}

// NewWithCaller is New with an explicit bus object.
func NewWithCaller(obj Caller) *Notifier { return &Notifier{obj: obj, timeout: callTimeout} }

// Notify shows summary and body. Failures are logged, never returned.
func (n *Notifier) Notify(summary, body string) {
	if len(body) > maxBody {
		body = body[:maxBody] + "..."
	}
	if n.obj == nil {
		slog.Info("notification", "summary", summary, "body", body)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	var id uint32
	call := n.obj.CallWithContext(ctx, method, 0, appName, n.last, "", summary, body,
		[]string{}, map[string]dbus.Variant{}, expireMillis)
	if err := call.Store(&id); err != nil {
		slog.Warn("notification failed", "summary", summary, "error", err)
		return
	}
	n.last = id
}
