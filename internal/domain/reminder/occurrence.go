// internal/domain/reminder/occurrence.go
package reminder

// Occurrence is one due instance of a recurring dose schedule.
// It is derived by the reminder source and never persisted by the scheduler.
type Occurrence struct {
	ScheduleID   string  `json:"scheduleId"`
	ProtocolName string  `json:"protocolName"`
	PeptideName  string  `json:"peptideName"`
	TimeOfDay    string  `json:"timeOfDay"`          // "HH:MM", the daily slot this occurrence belongs to
	AmountMg     float64 `json:"amountMg,omitempty"` // zero means no amount to display
}

// Key returns the notification key used to deduplicate notifications.
// Two occurrences with the same schedule and time slot share a key.
func (o Occurrence) Key() string {
	return NotificationKey(o.ScheduleID, o.TimeOfDay)
}

// HasAmount reports whether a dose amount should be shown.
func (o Occurrence) HasAmount() bool {
	return o.AmountMg > 0
}

// NotificationKey joins a schedule id and a time-of-day slot.
func NotificationKey(scheduleID, timeOfDay string) string {
	return scheduleID + "-" + timeOfDay
}
