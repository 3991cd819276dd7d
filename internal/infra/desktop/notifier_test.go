package desktop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCall struct {
	method string
	args   []interface{}
}

type fakeBus struct {
	calls  []fakeCall
	nextID uint32
	err    error
}

func (b *fakeBus) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	b.calls = append(b.calls, fakeCall{method: method, args: args})
	if b.err != nil {
		return &dbus.Call{Err: b.err}
	}
	b.nextID++
	return &dbus.Call{Body: []interface{}{b.nextID}}
}

func newTestNotifier(bus *fakeBus, timeout time.Duration) *Notifier {
	logger, _ := logtest.NewNullLogger()
	return newNotifier(bus, "", timeout, logrus.NewEntry(logger))
}

func TestNotifier_SendsFreedesktopNotify(t *testing.T) {
	bus := &fakeBus{}
	n := newTestNotifier(bus, 8*time.Second)

	require.NoError(t, n.Notify(context.Background(), "Dose Reminder", "Time for your BPC-157 dose", "dose-reminder:s1-09:00"))

	require.Len(t, bus.calls, 1)
	call := bus.calls[0]
	assert.Equal(t, "org.freedesktop.Notifications.Notify", call.method)
	require.Len(t, call.args, 8)
	assert.Equal(t, "PepTrack", call.args[0])
	assert.Equal(t, uint32(0), call.args[1])
	assert.Equal(t, "Dose Reminder", call.args[3])
	assert.Equal(t, "Time for your BPC-157 dose", call.args[4])
	assert.Equal(t, int32(8000), call.args[7])
}

func TestNotifier_SameTagReplacesPrevious(t *testing.T) {
	bus := &fakeBus{nextID: 41}
	n := newTestNotifier(bus, 0)
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, "t", "b", "tag-a"))
	require.NoError(t, n.Notify(ctx, "t", "b", "tag-a"))
	require.NoError(t, n.Notify(ctx, "t", "b", "tag-b"))

	require.Len(t, bus.calls, 3)
	assert.Equal(t, uint32(0), bus.calls[0].args[1])
	assert.Equal(t, uint32(42), bus.calls[1].args[1])
	assert.Equal(t, uint32(0), bus.calls[2].args[1])
	assert.Equal(t, int32(-1), bus.calls[0].args[7])
}

func TestNotifier_CallError(t *testing.T) {
	bus := &fakeBus{err: errors.New("org.freedesktop.DBus.Error.ServiceUnknown")}
	n := newTestNotifier(bus, 0)

	err := n.Notify(context.Background(), "t", "b", "tag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ServiceUnknown")
	assert.Empty(t, n.ids)
}
