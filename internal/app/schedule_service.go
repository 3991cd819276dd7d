package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"peptrack_reminders/internal/domain/reminder"
	"peptrack_reminders/internal/domain/schedule"
	"peptrack_reminders/internal/infra/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultDueWindow is how far ahead of a slot a schedule counts as due.
const DefaultDueWindow = 15 * time.Minute

// NewSchedule is the input for ScheduleService.AddSchedule.
type NewSchedule struct {
	ProtocolID   string  `json:"protocolId"`
	ProtocolName string  `json:"protocolName"`
	PeptideName  string  `json:"peptideName"`
	AmountMg     float64 `json:"amountMg"`
	Site         string  `json:"site,omitempty"`
	TimeOfDay    string  `json:"timeOfDay"`
	DaysOfWeek   []int   `json:"daysOfWeek"`
	Notes        string  `json:"notes,omitempty"`
}

// SchedulePatch holds optional changes; nil fields are left untouched.
type SchedulePatch struct {
	AmountMg   *float64 `json:"amountMg,omitempty"`
	Site       *string  `json:"site,omitempty"`
	TimeOfDay  *string  `json:"timeOfDay,omitempty"`
	DaysOfWeek []int    `json:"daysOfWeek,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// ScheduleService manages dose schedules and answers which reminders are due.
// It is the local reminder.Gateway implementation.
type ScheduleService struct {
	repo     schedule.Repository
	clock    clock.Clock
	location *time.Location
	window   time.Duration
	logger   *logrus.Entry
}

func NewScheduleService(
	repo schedule.Repository,
	c clock.Clock,
	location *time.Location, // zone the "HH:MM" slots are expressed in
	window time.Duration,
	logger *logrus.Entry,
) *ScheduleService {
	if c == nil {
		c = clock.Real{}
	}
	if location == nil {
		location = time.Local
	}
	if window <= 0 {
		window = DefaultDueWindow
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ScheduleService{
		repo:     repo,
		clock:    c,
		location: location,
		window:   window,
		logger:   logger.WithField("component", "schedule_service"),
	}
}

var _ reminder.Gateway = (*ScheduleService)(nil)

// AddSchedule validates and stores a new enabled schedule.
func (s *ScheduleService) AddSchedule(ctx context.Context, in NewSchedule) (*schedule.DoseSchedule, error) {
	now := s.clock.Now()
	newSchedule := &schedule.DoseSchedule{
		ID:           uuid.NewString(),
		ProtocolID:   strings.TrimSpace(in.ProtocolID),
		ProtocolName: in.ProtocolName,
		PeptideName:  in.PeptideName,
		AmountMg:     in.AmountMg,
		Site:         in.Site,
		TimeOfDay:    in.TimeOfDay,
		DaysOfWeek:   normalizeDays(in.DaysOfWeek),
		Enabled:      true,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := newSchedule.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, newSchedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule in repository: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"schedule_id": newSchedule.ID,
		"protocol_id": newSchedule.ProtocolID,
		"time_of_day": newSchedule.TimeOfDay,
	}).Info("Dose schedule created")
	return newSchedule, nil
}

// UpdateSchedule applies a partial patch.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, id string, patch SchedulePatch) (*schedule.DoseSchedule, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapLookup(err, id)
	}

	if patch.AmountMg != nil {
		target.AmountMg = *patch.AmountMg
	}
	if patch.Site != nil {
		target.Site = *patch.Site
	}
	if patch.TimeOfDay != nil {
		target.TimeOfDay = *patch.TimeOfDay
	}
	if patch.DaysOfWeek != nil {
		target.DaysOfWeek = normalizeDays(patch.DaysOfWeek)
	}
	if patch.Enabled != nil {
		target.Enabled = *patch.Enabled
	}
	if patch.Notes != nil {
		target.Notes = *patch.Notes
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	target.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, target); err != nil {
		return nil, s.wrapLookup(err, id)
	}
	s.logger.WithField("schedule_id", id).Info("Dose schedule updated")
	return target, nil
}

// SetEnabled toggles a schedule on or off.
func (s *ScheduleService) SetEnabled(ctx context.Context, id string, enabled bool) (*schedule.DoseSchedule, error) {
	return s.UpdateSchedule(ctx, id, SchedulePatch{Enabled: &enabled})
}

// RemoveSchedule deletes a schedule.
func (s *ScheduleService) RemoveSchedule(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrapLookup(err, id)
	}
	s.logger.WithField("schedule_id", id).Info("Dose schedule removed")
	return nil
}

// GetSchedule returns one schedule.
func (s *ScheduleService) GetSchedule(ctx context.Context, id string) (*schedule.DoseSchedule, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrapLookup(err, id)
	}
	return found, nil
}

// ListSchedules returns every schedule ordered by time of day.
func (s *ScheduleService) ListSchedules(ctx context.Context) ([]*schedule.DoseSchedule, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return list, nil
}

// FetchDue returns the occurrences due now. Storage failures are reported as
// gateway errors so the scheduler treats a local store like any other source.
func (s *ScheduleService) FetchDue(ctx context.Context) ([]reminder.Occurrence, error) {
	enabled, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return nil, reminder.NewGatewayError("schedules.listEnabled", err)
	}
	now := s.clock.Now().In(s.location)
	due := schedule.FilterDue(enabled, now, s.window)
	s.logger.WithFields(logrus.Fields{
		"enabled_schedules": len(enabled),
		"due":               len(due),
	}).Debug("Computed due reminders")
	return due, nil
}

func (s *ScheduleService) wrapLookup(err error, id string) error {
	if errors.Is(err, schedule.ErrScheduleNotFound) {
		return fmt.Errorf("schedule %s: %w", id, schedule.ErrScheduleNotFound)
	}
	return fmt.Errorf("schedule %s: %w", id, err)
}

// normalizeDays sorts and removes duplicate weekdays.
func normalizeDays(days []int) []int {
	if days == nil {
		return nil
	}
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for d := 0; d <= 6; d++ {
		for _, v := range days {
			if v == d && !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	for _, v := range days {
		if v < 0 || v > 6 {
			out = append(out, v) // keep invalid values so validation reports them
		}
	}
	return out
}
