package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"peptrack_reminders/internal/app"
	"peptrack_reminders/internal/domain/notification"
	"peptrack_reminders/internal/domain/reminder"
	"peptrack_reminders/internal/infra/clock"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

var (
	occA = reminder.Occurrence{ScheduleID: "A", PeptideName: "BPC-157", TimeOfDay: "09:00", AmountMg: 0.25}
	occB = reminder.Occurrence{ScheduleID: "B", PeptideName: "TB-500", TimeOfDay: "21:00"}
)

type stubGateway struct {
	mu      sync.Mutex
	calls   int
	result  []reminder.Occurrence
	failOn  map[int]bool // 1-based call numbers that fail
	onFetch func()
}

func (g *stubGateway) FetchDue(context.Context) ([]reminder.Occurrence, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	hook := g.onFetch
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	if g.failOn[n] {
		return nil, reminder.NewGatewayError("reminders.pending", errors.New("backend unavailable"))
	}
	return g.result, nil
}

func (g *stubGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type countingDispatcher struct {
	mu    sync.Mutex
	byKey map[string]int
	total int
}

func newCountingDispatcher() *countingDispatcher {
	return &countingDispatcher{byKey: map[string]int{}}
}

func (d *countingDispatcher) Notify(_ context.Context, occ reminder.Occurrence) notification.Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byKey[occ.Key()]++
	d.total++
	return notification.Delivery{Toast: true}
}

func (d *countingDispatcher) Total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.total
}

type fixture struct {
	clock      *clock.Manual
	gateway    *stubGateway
	dispatcher *countingDispatcher
	tracker    *app.DedupTracker
	scheduler  *ReminderScheduler
	logs       *logtest.Hook
}

func newFixture(t *testing.T, enabled bool, result ...reminder.Occurrence) *fixture {
	t.Helper()
	c := clock.NewManual(epoch)
	gw := &stubGateway{result: result, failOn: map[int]bool{}}
	d := newCountingDispatcher()
	tracker := app.NewDedupTracker(c, app.DefaultDedupRetention)
	l, hook := logtest.NewNullLogger()
	s := NewReminderScheduler(gw, d, tracker, Options{
		CheckInterval: 5 * time.Minute,
		Enabled:       enabled,
		Clock:         c,
	}, logrus.NewEntry(l))
	t.Cleanup(s.Stop)
	return &fixture{clock: c, gateway: gw, dispatcher: d, tracker: tracker, scheduler: s, logs: hook}
}

func TestScheduler_StartRunsImmediateCycle(t *testing.T) {
	f := newFixture(t, true, occA, occB)

	f.scheduler.Start(context.Background())

	assert.True(t, f.scheduler.IsRunning())
	assert.Equal(t, 1, f.gateway.Calls())
	assert.Equal(t, 2, f.dispatcher.Total())
	assert.Equal(t, epoch, f.scheduler.LastCheckTime())
	assert.Equal(t, 1, f.clock.Pending(), "next tick armed")
}

func TestScheduler_Scenario_SuppressThenRepeatAfterRetention(t *testing.T) {
	f := newFixture(t, true, occA, occB)
	ctx := context.Background()

	f.scheduler.Start(ctx)
	assert.Equal(t, 2, f.dispatcher.Total(), "immediate cycle dispatches both")

	f.clock.Advance(5 * time.Minute)
	assert.Equal(t, 2, f.gateway.Calls())
	assert.Equal(t, 2, f.dispatcher.Total(), "both suppressed on the next cycle")
	assert.Equal(t, 2, f.scheduler.Status().LastCycle.Suppressed)

	f.clock.Advance(56 * time.Minute) // 61 minutes total
	assert.Equal(t, 4, f.dispatcher.Total(), "both dispatched again once retention expired")
	assert.Equal(t, 2, f.dispatcher.byKey[occA.Key()])
	assert.Equal(t, 2, f.dispatcher.byKey[occB.Key()])
}

func TestScheduler_AtMostOncePerRetentionWindow(t *testing.T) {
	f := newFixture(t, true, occA)
	ctx := context.Background()
	f.scheduler.Start(ctx)

	// Timer ticks plus manual checks; none of them may notify inside the window.
	for i := 0; i < 11; i++ {
		f.clock.Advance(5 * time.Minute)
		f.scheduler.CheckReminders(ctx)
		f.clock.Advance(10 * time.Second)
		f.scheduler.CheckReminders(ctx)
	}
	assert.Equal(t, 1, f.dispatcher.byKey[occA.Key()])
	assert.Greater(t, f.gateway.Calls(), 30)
}

func TestScheduler_CheckWhileStopped(t *testing.T) {
	f := newFixture(t, true, occA)

	report := f.scheduler.CheckReminders(context.Background())

	assert.True(t, report.Skipped)
	assert.Equal(t, 0, f.gateway.Calls())
	assert.Equal(t, 0, f.dispatcher.Total())
	assert.True(t, f.scheduler.LastCheckTime().IsZero())
}

func TestScheduler_Disabled(t *testing.T) {
	f := newFixture(t, false, occA)

	f.scheduler.Start(context.Background())
	f.clock.Advance(30 * time.Minute)

	assert.False(t, f.scheduler.IsRunning())
	assert.Equal(t, 0, f.gateway.Calls())
	assert.Equal(t, 0, f.clock.Pending())
	assert.True(t, f.scheduler.CheckReminders(context.Background()).Skipped)
}

func TestScheduler_StartTwiceWarns(t *testing.T) {
	f := newFixture(t, true, occA)
	ctx := context.Background()

	f.scheduler.Start(ctx)
	f.scheduler.Start(ctx)

	assert.Equal(t, 1, f.gateway.Calls(), "second start is a no-op")
	assert.Equal(t, 1, f.clock.Pending())
	require.NotNil(t, f.logs.LastEntry())
	assert.Equal(t, logrus.WarnLevel, f.logs.LastEntry().Level)
}

func TestScheduler_StopIsIdempotentAndClears(t *testing.T) {
	f := newFixture(t, true, occA)

	assert.NotPanics(t, f.scheduler.Stop, "stop before start")
	assert.False(t, f.scheduler.IsRunning())

	f.scheduler.Start(context.Background())
	assert.Equal(t, 1, f.tracker.Len())

	f.scheduler.Stop()
	assert.False(t, f.scheduler.IsRunning())
	assert.Equal(t, 0, f.tracker.Len())
	assert.Equal(t, 0, f.clock.Pending(), "timer disarmed")
	last := f.scheduler.LastCheckTime()

	assert.NotPanics(t, f.scheduler.Stop)
	assert.Equal(t, last, f.scheduler.LastCheckTime())

	f.clock.Advance(time.Hour)
	assert.Equal(t, 1, f.gateway.Calls(), "no polling after stop")
}

func TestScheduler_RestartStartsClean(t *testing.T) {
	f := newFixture(t, true, occA)
	ctx := context.Background()

	f.scheduler.Start(ctx)
	f.scheduler.Restart(ctx)

	assert.True(t, f.scheduler.IsRunning())
	assert.Equal(t, 2, f.dispatcher.byKey[occA.Key()], "restart clears suppression")
	assert.Equal(t, 1, f.clock.Pending())
}

func TestScheduler_GatewayFailureOnFirstCall(t *testing.T) {
	f := newFixture(t, true, occA)
	f.gateway.failOn[1] = true

	assert.NotPanics(t, func() { f.scheduler.Start(context.Background()) })

	st := f.scheduler.Status()
	assert.True(t, st.Running)
	assert.Equal(t, epoch, st.LastCheckTime, "failed cycles still record the check time")
	assert.ErrorIs(t, st.LastCycle.Err, reminder.ErrGateway)
	assert.Equal(t, 0, f.dispatcher.Total())

	f.clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, f.dispatcher.Total(), "next poll proceeds normally")
	assert.NoError(t, f.scheduler.Status().LastCycle.Err)
}

func TestScheduler_StopDuringCycleDiscardsMarks(t *testing.T) {
	f := newFixture(t, true, occA)
	ctx := context.Background()
	f.scheduler.Start(ctx)
	f.scheduler.Stop()
	f.dispatcher = newCountingDispatcher()
	f.scheduler.dispatcher = f.dispatcher

	// The gateway call of the next start's first cycle triggers a stop mid-cycle.
	f.gateway.onFetch = func() {
		f.gateway.onFetch = nil
		f.scheduler.Stop()
	}
	f.scheduler.Start(ctx)

	assert.False(t, f.scheduler.IsRunning())
	assert.Equal(t, 1, f.dispatcher.Total(), "in-flight cycle is allowed to finish")
	assert.Equal(t, 0, f.tracker.Len(), "its marks are not kept")
	assert.Equal(t, 0, f.clock.Pending(), "no tick armed after a stop")

	f.gateway.onFetch = nil
	f.scheduler.Start(ctx)
	assert.Equal(t, 2, f.dispatcher.Total(), "stale marks do not suppress after restart")
}

func TestScheduler_SlowGatewayDoesNotOverlapCycles(t *testing.T) {
	f := newFixture(t, true, occA)
	inFlight, maxInFlight := 0, 0
	f.gateway.onFetch = func() {
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		if inFlight == 1 {
			// The remote call takes longer than the poll interval.
			f.clock.Advance(12 * time.Minute)
		}
		inFlight--
	}

	f.scheduler.Start(context.Background())
	f.clock.Advance(30 * time.Minute)

	assert.Equal(t, 1, maxInFlight, "the next tick is armed only after a cycle resolves")
	assert.Equal(t, 3, f.gateway.Calls())
	assert.Equal(t, 1, f.clock.Pending())
}

func TestScheduler_Defaults(t *testing.T) {
	s := NewReminderScheduler(&stubGateway{}, newCountingDispatcher(), nil, Options{Enabled: true}, nil)
	st := s.Status()
	assert.Equal(t, DefaultCheckInterval, st.CheckInterval)
	assert.False(t, st.Running)
	assert.True(t, st.Enabled)
}
