package scheduler

import (
	"context"
	"sync"
	"time"

	"peptrack_reminders/internal/app"
	"peptrack_reminders/internal/domain/reminder"
	"peptrack_reminders/internal/infra/clock"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultCheckInterval is the poll cadence when none is configured.
const DefaultCheckInterval = 5 * time.Minute

// Options configure a ReminderScheduler.
type Options struct {
	CheckInterval time.Duration // default DefaultCheckInterval
	Enabled       bool
	Clock         clock.Clock // default clock.Real
}

// CycleReport summarises one poll cycle.
type CycleReport struct {
	StartedAt   time.Time
	FinishedAt  time.Time
	Fetched     int
	Dispatched  int
	Suppressed  int
	Undelivered int   // dispatched but no channel showed it
	Skipped     bool  // scheduler not running: nothing was done
	Err         error // gateway failure, if any
}

// Status is the read-only state exposed to the host application.
type Status struct {
	Running       bool
	Enabled       bool
	LastCheckTime time.Time
	LastCycle     CycleReport
	Tracked       int
	CheckInterval time.Duration
}

// ReminderScheduler polls a reminder gateway and dispatches every due
// occurrence at most once per dedup retention window.
//
// The next tick is armed only after the current cycle has fully returned, so
// timer-driven cycles never overlap. Manual CheckReminders calls share the
// same cycle lock.
type ReminderScheduler struct {
	gateway    reminder.Gateway
	dispatcher app.Dispatcher
	tracker    *app.DedupTracker
	clock      clock.Clock
	cadence    cron.Schedule
	interval   time.Duration
	enabled    bool
	logger     *logrus.Entry

	mu         sync.Mutex
	running    bool
	generation uint64
	timer      clock.Timer
	runCtx     context.Context
	lastCheck  time.Time
	lastCycle  CycleReport

	cycleMu sync.Mutex
}

func NewReminderScheduler(
	gateway reminder.Gateway,
	dispatcher app.Dispatcher,
	tracker *app.DedupTracker,
	opts Options,
	logger *logrus.Entry,
) *ReminderScheduler {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if tracker == nil {
		tracker = app.NewDedupTracker(opts.Clock, app.DefaultDedupRetention)
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ReminderScheduler{
		gateway:    gateway,
		dispatcher: dispatcher,
		tracker:    tracker,
		clock:      opts.Clock,
		cadence:    cron.Every(opts.CheckInterval),
		interval:   opts.CheckInterval,
		enabled:    opts.Enabled,
		logger:     logger.WithField("component", "reminder_scheduler"),
	}
}

// Start begins polling: one cycle runs immediately, before Start returns,
// and the following ones on the configured interval.
func (s *ReminderScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("Reminder scheduler already running, ignoring start")
		return
	}
	if !s.enabled {
		s.mu.Unlock()
		s.logger.Info("Reminder service disabled, not starting")
		return
	}
	s.running = true
	s.generation++
	gen := s.generation
	s.runCtx = ctx
	s.mu.Unlock()

	s.logger.WithField("check_interval", s.interval.String()).Info("Starting reminder scheduler...")
	s.runCycle(ctx, gen)
	s.armNext(gen)
}

// Stop disarms the timer and clears the dedup state. A cycle already in
// flight finishes, but its marks are discarded.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.runCtx = nil
	s.mu.Unlock()

	s.tracker.Clear()
	s.logger.Info("Reminder scheduler stopped.")
}

// Restart is Stop followed by Start.
func (s *ReminderScheduler) Restart(ctx context.Context) {
	s.Stop()
	s.Start(ctx)
}

// CheckReminders runs one poll cycle now. It does nothing while stopped.
func (s *ReminderScheduler) CheckReminders(ctx context.Context) CycleReport {
	s.mu.Lock()
	running, gen := s.running, s.generation
	s.mu.Unlock()
	if !running {
		return CycleReport{Skipped: true}
	}
	return s.runCycle(ctx, gen)
}

// IsRunning reports whether the scheduler is between Start and Stop.
func (s *ReminderScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastCheckTime is the end of the most recent completed cycle, zero if none.
func (s *ReminderScheduler) LastCheckTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheck
}

func (s *ReminderScheduler) Status() Status {
	s.mu.Lock()
	st := Status{
		Running:       s.running,
		Enabled:       s.enabled,
		LastCheckTime: s.lastCheck,
		LastCycle:     s.lastCycle,
		CheckInterval: s.interval,
	}
	s.mu.Unlock()
	st.Tracked = s.tracker.Len()
	return st
}

func (s *ReminderScheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.generation == gen
}

func (s *ReminderScheduler) armNext(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.generation != gen {
		return
	}
	now := s.clock.Now()
	delay := s.cadence.Next(now).Sub(now)
	s.timer = s.clock.AfterFunc(delay, func() { s.tick(gen) })
}

func (s *ReminderScheduler) tick(gen uint64) {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil || !s.current(gen) {
		return
	}
	s.runCycle(ctx, gen)
	s.armNext(gen)
}

func (s *ReminderScheduler) runCycle(ctx context.Context, gen uint64) (report CycleReport) {
	if !s.current(gen) {
		return CycleReport{Skipped: true}
	}
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	report.StartedAt = s.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Reminder check panicked")
		}
		report.FinishedAt = s.clock.Now()
		s.mu.Lock()
		s.lastCheck = report.FinishedAt
		s.lastCycle = report
		s.mu.Unlock()
	}()

	occurrences, err := s.gateway.FetchDue(ctx)
	if err != nil {
		report.Err = err
		s.logger.WithError(err).Error("Failed to fetch due reminders")
		return report
	}
	report.Fetched = len(occurrences)

	for _, occ := range occurrences {
		key := occ.Key()
		if s.tracker.Has(key) {
			report.Suppressed++
			continue
		}
		delivery := s.dispatcher.Notify(ctx, occ)
		report.Dispatched++
		if !delivery.Delivered() {
			report.Undelivered++
		}
		if s.current(gen) {
			s.tracker.Mark(key)
		}
	}

	if report.Dispatched > 0 || report.Fetched > 0 {
		s.logger.WithFields(logrus.Fields{
			"fetched":    report.Fetched,
			"dispatched": report.Dispatched,
			"suppressed": report.Suppressed,
		}).Info("Reminder check completed")
	} else {
		s.logger.Debug("Reminder check completed, nothing due")
	}
	return report
}
