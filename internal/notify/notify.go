// Package notify shows holiday changes as desktop notifications over D-Bus.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/holiday"
	"github.com/belphemur/holidays/internal/logging"
)

const (
	notifyInterface = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
)

// Caller invokes D-Bus methods; dbus.BusObject satisfies it
type Caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier sends a notification whenever the published status text changes
type Notifier struct {
	conn    *dbus.Conn
	obj     Caller
	appName string
	logger  zerolog.Logger

	mu         sync.Mutex
	lastStatus string
	lastID     uint32
}

// New connects to the session bus
func New(appName string) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}

	n := NewWithCaller(appName, conn.Object(notifyInterface, notifyPath))
	n.conn = conn
	return n, nil
}

// NewWithCaller creates a notifier on an existing bus object
func NewWithCaller(appName string, obj Caller) *Notifier {
	return &Notifier{
		obj:     obj,
		appName: appName,
		logger:  logging.GetLogger("notify"),
	}
}

// Close closes the D-Bus connection
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

// Listen handles a publication; it has the signature of a HolidayPublished listener.
// Hidden publications reset the tracked status so the next holiday notifies again.
func (n *Notifier) Listen(_ context.Context, data holiday.ExtensionData) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !data.Visible || data.Status == nil {
		n.lastStatus = ""
		return
	}
	if *data.Status == n.lastStatus {
		return
	}

	body := ""
	if data.ExpandedBody != nil {
		body = *data.ExpandedBody
	}

	id, err := n.send(*data.Status, body, data.Icon, n.lastID)
	if err != nil {
		n.logger.Warn().Err(err).Str("status", *data.Status).Msg("Failed to send desktop notification")
		return
	}
	n.lastStatus = *data.Status
	n.lastID = id
}

func (n *Notifier) send(summary, body, icon string, replaces uint32) (uint32, error) {
	if icon == "" {
		icon = "x-office-calendar"
	}
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(0)),
	}

	call := n.obj.Call(
		notifyInterface+".Notify",
		0,
		n.appName, // app_name
		replaces,  // replaces_id
		icon,      // app_icon
		summary,   // summary
		body,      // body
		[]string{},
		hints,
		int32(-1), // expire_timeout: server default
	)
	if call.Err != nil {
		return 0, fmt.Errorf("send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("get notification id: %w", err)
	}

	n.logger.Debug().Uint32("id", id).Str("summary", summary).Msg("Sent notification")
	return id, nil
}
