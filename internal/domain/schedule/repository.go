package schedule

import (
	"context"
	"errors"
)

var ErrScheduleNotFound = errors.New("dose schedule not found")

// Repository defines the operations for persisting and retrieving dose schedules.
type Repository interface {
	Create(ctx context.Context, s *DoseSchedule) error
	GetByID(ctx context.Context, id string) (*DoseSchedule, error)
	Update(ctx context.Context, s *DoseSchedule) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*DoseSchedule, error) // ordered by time of day
	ListEnabled(ctx context.Context) ([]*DoseSchedule, error)
}
