// Package toast renders in-app toast messages on a terminal.
package toast

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"peptrack_reminders/internal/domain/notification"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoColor    = lipgloss.Color("#8B949E")
	successColor = lipgloss.Color("#22C55E")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	dim          = lipgloss.Color("#6B7280")

	timeStyle = lipgloss.NewStyle().Foreground(dim)

	severityColors = map[notification.Severity]lipgloss.Color{
		notification.SeverityInfo:    infoColor,
		notification.SeveritySuccess: successColor,
		notification.SeverityWarning: warningColor,
		notification.SeverityError:   errorColor,
	}
)

// Terminal is a notification.Toaster that writes one styled line per toast.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewTerminal writes to out, or to stdout when out is nil.
func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{out: out, now: time.Now}
}

var _ notification.Toaster = (*Terminal)(nil)

// Toast writes the message. Empty messages are rejected.
func (t *Terminal) Toast(body string, severity notification.Severity) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return fmt.Errorf("toast: empty message")
	}
	line := Render(t.now(), body, severity)

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.out, line)
	return err
}

// Render formats a toast line: "15:04 [severity] body".
func Render(at time.Time, body string, severity notification.Severity) string {
	color, ok := severityColors[severity]
	if !ok {
		color = infoColor
		severity = notification.SeverityInfo
	}
	tag := lipgloss.NewStyle().Bold(true).Foreground(color).Render("[" + string(severity) + "]")
	return timeStyle.Render(at.Format("15:04")) + " " + tag + " " + body
}
