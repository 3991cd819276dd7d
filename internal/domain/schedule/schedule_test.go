package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9:30", 0, true},
		{"09-30", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidTimeOfDay))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDoseSchedule_Validate(t *testing.T) {
	valid := DoseSchedule{ProtocolID: "p1", TimeOfDay: "08:00", DaysOfWeek: []int{1, 3, 5}, AmountMg: 0.5}
	require.NoError(t, valid.Validate())

	noProtocol := valid
	noProtocol.ProtocolID = " "
	assert.ErrorIs(t, noProtocol.Validate(), ErrMissingProtocol)

	badTime := valid
	badTime.TimeOfDay = "8am"
	assert.ErrorIs(t, badTime.Validate(), ErrInvalidTimeOfDay)

	noDays := valid
	noDays.DaysOfWeek = nil
	assert.ErrorIs(t, noDays.Validate(), ErrInvalidDaysOfWeek)

	badDay := valid
	badDay.DaysOfWeek = []int{7}
	assert.ErrorIs(t, badDay.Validate(), ErrInvalidDaysOfWeek)

	negative := valid
	negative.AmountMg = -1
	assert.ErrorIs(t, negative.Validate(), ErrInvalidAmount)
}

func TestDoseSchedule_IsDue(t *testing.T) {
	// 2026-10-14 is a Wednesday.
	now := time.Date(2026, 10, 14, 8, 50, 0, 0, time.UTC)
	window := 15 * time.Minute

	base := DoseSchedule{ID: "s1", TimeOfDay: "09:00", DaysOfWeek: []int{3}, Enabled: true}

	assert.True(t, base.IsDue(now, window), "slot starts within the window")
	assert.True(t, base.IsDue(now.Add(10*time.Minute), window), "slot start itself is due")
	assert.False(t, base.IsDue(now.Add(11*time.Minute), window), "passed slots are not due")
	assert.False(t, base.IsDue(now.Add(-10*time.Minute), window), "slot beyond the window")

	disabled := base
	disabled.Enabled = false
	assert.False(t, disabled.IsDue(now, window))

	otherDay := base
	otherDay.DaysOfWeek = []int{0, 6}
	assert.False(t, otherDay.IsDue(now, window))

	broken := base
	broken.TimeOfDay = "nope"
	assert.False(t, broken.IsDue(now, window))
}

func TestFilterDue(t *testing.T) {
	now := time.Date(2026, 10, 14, 20, 55, 0, 0, time.UTC)
	schedules := []*DoseSchedule{
		{ID: "a", PeptideName: "BPC-157", TimeOfDay: "21:00", DaysOfWeek: []int{3}, Enabled: true, AmountMg: 0.25},
		{ID: "b", PeptideName: "TB-500", TimeOfDay: "09:00", DaysOfWeek: []int{3}, Enabled: true},
		{ID: "c", PeptideName: "CJC", TimeOfDay: "21:05", DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6}, Enabled: true},
	}

	due := FilterDue(schedules, now, 15*time.Minute)
	require.Len(t, due, 2)
	assert.Equal(t, "a", due[0].ScheduleID)
	assert.Equal(t, 0.25, due[0].AmountMg)
	assert.Equal(t, "c", due[1].ScheduleID)
	assert.NotNil(t, FilterDue(nil, now, time.Minute))
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", []int{0, 1, 2, 3, 4, 5, 6}, false},
		{"daily", []int{0, 1, 2, 3, 4, 5, 6}, false},
		{"weekdays", []int{1, 2, 3, 4, 5}, false},
		{"Weekends", []int{0, 6}, false},
		{"1,3,5", []int{1, 3, 5}, false},
		{"mon, Wed,fri", []int{1, 3, 5}, false},
		{"7", nil, true},
		{"funday", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDays(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidDaysOfWeek), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "daily", FormatDays([]int{0, 1, 2, 3, 4, 5, 6}))
	assert.Equal(t, "Mon, Wed, Fri", FormatDays([]int{1, 3, 5}))
	assert.Equal(t, "", FormatDays(nil))
}
