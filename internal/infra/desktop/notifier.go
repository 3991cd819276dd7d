// Package desktop delivers notifications through the freedesktop
// notification service on the user's session bus.
package desktop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"peptrack_reminders/internal/domain/notification"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	busName        = "org.freedesktop.Notifications"
	objectPath     = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod   = busName + ".Notify"
	defaultAppName = "PepTrack"
)

// busObject is the slice of dbus.BusObject the notifier uses.
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Notifier is a notification.Notifier backed by D-Bus.
// Notifications sharing a tag replace each other on screen.
type Notifier struct {
	obj     busObject
	conn    *dbus.Conn
	appName string
	timeout time.Duration
	logger  *logrus.Entry

	mu  sync.Mutex
	ids map[string]uint32 // tag -> last notification id
}

// NewNotifier connects to the session bus. It fails when no bus is reachable,
// which callers treat as "native channel unavailable".
func NewNotifier(appName string, timeout time.Duration, logger *logrus.Entry) (*Notifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: session bus: %v", notification.ErrChannelUnavailable, err)
	}
	n := newNotifier(conn.Object(busName, objectPath), appName, timeout, logger)
	n.conn = conn
	return n, nil
}

func newNotifier(obj busObject, appName string, timeout time.Duration, logger *logrus.Entry) *Notifier {
	if appName == "" {
		appName = defaultAppName
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Notifier{
		obj:     obj,
		appName: appName,
		timeout: timeout,
		logger:  logger.WithField("component", "desktop_notifier"),
		ids:     make(map[string]uint32),
	}
}

var _ notification.Notifier = (*Notifier)(nil)

// Notify shows a notification. A zero timeout lets the server decide.
func (n *Notifier) Notify(ctx context.Context, title, body, tag string) error {
	n.mu.Lock()
	replaces := n.ids[tag]
	n.mu.Unlock()

	expire := int32(-1)
	if n.timeout > 0 {
		expire = int32(n.timeout / time.Millisecond)
	}

	call := n.obj.CallWithContext(ctx, notifyMethod, 0,
		n.appName,
		replaces,
		"",
		title,
		body,
		[]string{},
		map[string]dbus.Variant{},
		expire,
	)
	if call.Err != nil {
		return fmt.Errorf("dbus notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("dbus notify reply: %w", err)
	}
	if tag != "" {
		n.mu.Lock()
		n.ids[tag] = id
		n.mu.Unlock()
	}
	n.logger.WithFields(logrus.Fields{
		"notification_id": id,
		"tag":             tag,
	}).Debug("Desktop notification shown")
	return nil
}

// Close releases the bus connection.
func (n *Notifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
