// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"peptrack_reminders/internal/domain/schedule"
	"peptrack_reminders/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// SchedulerControl is what the bot needs from the reminder scheduler.
type SchedulerControl interface {
	Status() scheduler.Status
	CheckReminders(ctx context.Context) scheduler.CycleReport
}

// ScheduleLister lists dose schedules.
type ScheduleLister interface {
	ListSchedules(ctx context.Context) ([]*schedule.DoseSchedule, error)
}

// Commands builds replies for the bot commands.
type Commands struct {
	control   SchedulerControl
	schedules ScheduleLister
	location  *time.Location
}

func NewCommands(control SchedulerControl, schedules ScheduleLister, location *time.Location) *Commands {
	if location == nil {
		location = time.Local
	}
	return &Commands{control: control, schedules: schedules, location: location}
}

// RegisterBotCommands wires the command set for the configured chat only.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	cmds *Commands,
	chatID int64,
	baseLogger *logrus.Entry,
) {
	logger := baseLogger.WithField("handler_group", "reminder_commands")
	group := b.Group()
	group.Use(restrictToChat(chatID, logger))

	group.Handle("/start", reply(logger, "/start", func() (string, error) {
		return cmds.Start(), nil
	}))
	group.Handle("/help", reply(logger, "/help", func() (string, error) {
		return cmds.Help(), nil
	}))
	group.Handle("/status", reply(logger, "/status", func() (string, error) {
		return cmds.Status(), nil
	}))
	group.Handle("/check", reply(logger, "/check", func() (string, error) {
		return cmds.Check(ctx), nil
	}))
	group.Handle("/schedules", reply(logger, "/schedules", func() (string, error) {
		return cmds.Schedules(ctx)
	}))
}

func reply(logger *logrus.Entry, command string, build func() (string, error)) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		logCtx := logger.WithFields(logrus.Fields{
			"command": command,
			"chat_id": c.Chat().ID,
		})
		logCtx.Info("Processing command")

		text, err := build()
		if err != nil {
			logCtx.WithError(err).Error("Command failed")
			return c.Send("Something went wrong, please try again later.")
		}
		return c.Send(text)
	}
}

func (c *Commands) Start() string {
	return "Hi! I will message you here when a peptide dose is due. Use /help for the list of commands."
}

func (c *Commands) Help() string {
	var b strings.Builder
	b.WriteString("Available commands:\n\n")
	b.WriteString("/status - scheduler state and the last check\n")
	b.WriteString("/check - check for due doses now\n")
	b.WriteString("/schedules - list dose schedules\n")
	b.WriteString("/help - show this message")
	return b.String()
}

func (c *Commands) Status() string {
	st := c.control.Status()
	var b strings.Builder
	state := "stopped"
	switch {
	case !st.Enabled:
		state = "disabled"
	case st.Running:
		state = "running"
	}
	fmt.Fprintf(&b, "Reminders: %s (every %s)\n", state, st.CheckInterval)
	if st.LastCheckTime.IsZero() {
		b.WriteString("Last check: never\n")
	} else {
		fmt.Fprintf(&b, "Last check: %s\n", st.LastCheckTime.In(c.location).Format("2006-01-02 15:04:05"))
		b.WriteString("Last cycle: " + summarize(st.LastCycle) + "\n")
	}
	fmt.Fprintf(&b, "Recently notified: %d", st.Tracked)
	return b.String()
}

func (c *Commands) Check(ctx context.Context) string {
	report := c.control.CheckReminders(ctx)
	if report.Skipped {
		return "Reminders are not running, nothing was checked."
	}
	return "Checked: " + summarize(report)
}

func (c *Commands) Schedules(ctx context.Context) (string, error) {
	list, err := c.schedules.ListSchedules(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "No dose schedules yet.", nil
	}
	var b strings.Builder
	b.WriteString("Dose schedules:\n")
	for _, s := range list {
		b.WriteString(FormatSchedule(s))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func summarize(r scheduler.CycleReport) string {
	if r.Err != nil {
		return "failed: " + r.Err.Error()
	}
	s := fmt.Sprintf("%d due, %d sent, %d already sent", r.Fetched, r.Dispatched, r.Suppressed)
	if r.Undelivered > 0 {
		s += fmt.Sprintf(", %d not delivered", r.Undelivered)
	}
	return s
}

// FormatSchedule renders one schedule line, e.g.
// "09:00 BPC-157 0.25 mg (Mon, Wed, Fri) - Recovery".
func FormatSchedule(s *schedule.DoseSchedule) string {
	var b strings.Builder
	b.WriteString(s.TimeOfDay)
	name := s.PeptideName
	if name == "" {
		name = s.ProtocolName
	}
	if name != "" {
		b.WriteString(" " + name)
	}
	if s.AmountMg > 0 {
		fmt.Fprintf(&b, " %g mg", s.AmountMg)
	}
	b.WriteString(" (" + schedule.FormatDays(s.DaysOfWeek) + ")")
	if s.ProtocolName != "" && s.ProtocolName != name {
		b.WriteString(" - " + s.ProtocolName)
	}
	if !s.Enabled {
		b.WriteString(" [paused]")
	}
	return b.String()
}
