package cli

import (
	"fmt"
	"strings"

	"peptrack_reminders/internal/domain/schedule"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#D97706")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dimStyle    = lipgloss.NewStyle().Foreground(dim)
	onStyle     = lipgloss.NewStyle().Foreground(success)
	offStyle    = lipgloss.NewStyle().Foreground(warning)
	errStyle    = lipgloss.NewStyle().Foreground(danger).Bold(true)
)

type column struct {
	title string
	width int
}

var scheduleColumns = []column{
	{"ID", 36},
	{"TIME", 5},
	{"PEPTIDE", 16},
	{"AMOUNT", 8},
	{"DAYS", 27},
	{"STATE", 7},
}

func renderSchedules(list []*schedule.DoseSchedule) string {
	if len(list) == 0 {
		return dimStyle.Render("No dose schedules.") + "\n"
	}
	var b strings.Builder
	header := make([]string, len(scheduleColumns))
	for i, c := range scheduleColumns {
		header[i] = headerStyle.Render(pad(c.title, c.width))
	}
	b.WriteString(strings.Join(header, "  ") + "\n")

	for _, s := range list {
		name := s.PeptideName
		if name == "" {
			name = s.ProtocolName
		}
		amount := ""
		if s.AmountMg > 0 {
			amount = fmt.Sprintf("%g mg", s.AmountMg)
		}
		state := onStyle.Render(pad("on", 7))
		if !s.Enabled {
			state = offStyle.Render(pad("paused", 7))
		}
		cells := []string{
			dimStyle.Render(pad(s.ID, scheduleColumns[0].width)),
			pad(s.TimeOfDay, scheduleColumns[1].width),
			pad(name, scheduleColumns[2].width),
			pad(amount, scheduleColumns[3].width),
			pad(schedule.FormatDays(s.DaysOfWeek), scheduleColumns[4].width),
			state,
		}
		b.WriteString(strings.Join(cells, "  ") + "\n")
	}
	return b.String()
}

func renderCheckResult(r checkResult) string {
	if !r.Enabled {
		return dimStyle.Render("Reminders are disabled (REMINDERS_ENABLED=false); nothing was checked.")
	}
	if r.Error != "" {
		return errStyle.Render("Check failed: ") + r.Error
	}
	line := fmt.Sprintf("%d due, %d sent, %d already sent", r.Fetched, r.Dispatched, r.Suppressed)
	if r.Undelivered > 0 {
		line += errStyle.Render(fmt.Sprintf(", %d not delivered", r.Undelivered))
	}
	return headerStyle.Render("Checked: ") + line
}

// pad truncates or right-pads s to width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
