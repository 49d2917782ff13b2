package api

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"light-dict/src/windowing"
)

// Client calls a running engine over the session bus.
type Client struct {
	conn  *dbus.Conn
	obj   dbus.BusObject
	owned bool
}

// Dial connects to the session bus and targets the engine owning name.
func Dial(name string) (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	c := NewClient(conn, name)
	c.owned = true
	return c, nil
}

// NewClient targets the engine owning name on an existing connection.
func NewClient(conn *dbus.Conn, name string) *Client {
	return &Client{conn: conn, obj: conn.Object(name, Path)}
}

// Close closes the connection if the client opened it.
func (c *Client) Close() error {
	if c.owned {
		return c.conn.Close()
	}
	return nil
}

// Running reports whether some process owns name.
func Running(conn *dbus.Conn, name string) bool {
	var has bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&has); err != nil {
		return false
	}
	return has
}

func (c *Client) Toggle(ctx context.Context) error {
	return c.do(ctx, "Toggle")
}

func (c *Client) Run(ctx context.Context, kind, text, info string) error {
	return c.do(ctx, "Run", kind, text, info)
}

func (c *Client) RunAt(ctx context.Context, kind, text, info string, rect windowing.Rect) error {
	return c.do(ctx, "RunAt", kind, text, info, rect.Ints())
}

func (c *Client) OCR(ctx context.Context, params string) error {
	return c.do(ctx, "OCR", params)
}

// Get returns one array per requested property; an unknown focused window is
// an empty array.
func (c *Client) Get(ctx context.Context, props ...string) ([][]int32, error) {
	var out [][]int32
	call := c.obj.CallWithContext(ctx, Interface+".Get", 0, props)
	if call.Err != nil {
		return nil, fromDBusError(call.Err)
	}
	if err := call.Store(&out); err != nil {
		return nil, fmt.Errorf("decode Get reply: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method string, args ...any) error {
	return fromDBusError(c.obj.CallWithContext(ctx, Interface+"."+method, 0, args...).Err)
}
