package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"peptrack_reminders/internal/domain/reminder"
)

// Validation errors.
var (
	ErrInvalidTimeOfDay  = errors.New("invalid time format, use HH:MM (24-hour)")
	ErrInvalidDaysOfWeek = errors.New("invalid days of week, use 0-6 (Sunday-Saturday)")
	ErrMissingProtocol   = errors.New("protocol id is required")
	ErrInvalidAmount     = errors.New("dose amount must not be negative")
)

// DoseSchedule is a recurring dose of one protocol at a fixed time of day.
type DoseSchedule struct {
	ID           string    `json:"id"`
	ProtocolID   string    `json:"protocolId"`
	ProtocolName string    `json:"protocolName"`
	PeptideName  string    `json:"peptideName"`
	AmountMg     float64   `json:"amountMg"`
	Site         string    `json:"site,omitempty"`
	TimeOfDay    string    `json:"timeOfDay"`  // "HH:MM" (24-hour)
	DaysOfWeek   []int     `json:"daysOfWeek"` // 0=Sunday, 1=Monday, ..., 6=Saturday
	Enabled      bool      `json:"enabled"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Validate checks the fields a caller is allowed to set.
func (s *DoseSchedule) Validate() error {
	if strings.TrimSpace(s.ProtocolID) == "" {
		return ErrMissingProtocol
	}
	if s.AmountMg < 0 {
		return ErrInvalidAmount
	}
	if _, err := ParseTimeOfDay(s.TimeOfDay); err != nil {
		return err
	}
	return ValidateDaysOfWeek(s.DaysOfWeek)
}

// Occurrence converts the schedule into the reminder the scheduler consumes.
func (s *DoseSchedule) Occurrence() reminder.Occurrence {
	return reminder.Occurrence{
		ScheduleID:   s.ID,
		ProtocolName: s.ProtocolName,
		PeptideName:  s.PeptideName,
		TimeOfDay:    s.TimeOfDay,
		AmountMg:     s.AmountMg,
	}
}

// RunsOn reports whether the schedule includes the given weekday.
func (s *DoseSchedule) RunsOn(day time.Weekday) bool {
	for _, d := range s.DaysOfWeek {
		if d == int(day) {
			return true
		}
	}
	return false
}

// IsDue reports whether the schedule should trigger at now: it must be enabled,
// scheduled for now's weekday, and its slot must start within window from now.
// A slot that has already passed is not due.
func (s *DoseSchedule) IsDue(now time.Time, window time.Duration) bool {
	if !s.Enabled || !s.RunsOn(now.Weekday()) {
		return false
	}
	slot, err := ParseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return false
	}
	current := now.Hour()*60 + now.Minute()
	diff := slot - current
	return diff >= 0 && diff <= int(window/time.Minute)
}

// ParseTimeOfDay parses "HH:MM" and returns minutes since midnight.
func ParseTimeOfDay(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	hour, err := strconv.Atoi(value[:2])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	minute, err := strconv.Atoi(value[3:])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return hour*60 + minute, nil
}

// ValidateDaysOfWeek requires at least one day and only values 0..6.
func ValidateDaysOfWeek(days []int) error {
	if len(days) == 0 {
		return ErrInvalidDaysOfWeek
	}
	for _, d := range days {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: %d", ErrInvalidDaysOfWeek, d)
		}
	}
	return nil
}

// FilterDue returns the occurrences of every schedule due at now, in input order.
func FilterDue(schedules []*DoseSchedule, now time.Time, window time.Duration) []reminder.Occurrence {
	due := make([]reminder.Occurrence, 0)
	for _, s := range schedules {
		if s.IsDue(now, window) {
			due = append(due, s.Occurrence())
		}
	}
	return due
}

var weekdayShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// FormatDays renders weekday numbers as short names; all seven become "daily".
func FormatDays(days []int) string {
	if len(days) == 7 {
		return "daily"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(weekdayShort) {
			names = append(names, weekdayShort[d])
		}
	}
	return strings.Join(names, ", ")
}

// ParseDays parses "daily", "weekdays", "weekends" or a comma separated list
// of day numbers (0=Sunday) or short names ("mon,wed,fri").
func ParseDays(value string) ([]int, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "", "daily":
		return []int{0, 1, 2, 3, 4, 5, 6}, nil
	case "weekdays":
		return []int{1, 2, 3, 4, 5}, nil
	case "weekends":
		return []int{0, 6}, nil
	}
	var days []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if n, err := strconv.Atoi(part); err == nil {
			days = append(days, n)
			continue
		}
		found := false
		for i, name := range weekdayShort {
			if strings.EqualFold(part, name) {
				days = append(days, i)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDaysOfWeek, part)
		}
	}
	if err := ValidateDaysOfWeek(days); err != nil {
		return nil, err
	}
	return days, nil
}
