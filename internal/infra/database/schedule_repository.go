package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"peptrack_reminders/internal/domain/schedule"
)

var ErrDuplicateSchedule = errors.New("dose schedule with this id already exists")

const scheduleColumns = `id, protocol_id, protocol_name, peptide_name, amount_mg, site, time_of_day,
       days_of_week, enabled, notes, created_at, updated_at`

// ScheduleRepository stores dose schedules in postgres or sqlite.
type ScheduleRepository struct {
	db     *sql.DB
	driver string
}

// NewScheduleRepository creates the dose_schedules table if it does not exist.
func NewScheduleRepository(ctx context.Context, db *sql.DB, driver string) (*ScheduleRepository, error) {
	r := &ScheduleRepository{db: db, driver: driver}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

var _ schedule.Repository = (*ScheduleRepository)(nil)

func (r *ScheduleRepository) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS dose_schedules (
  id TEXT PRIMARY KEY,
  protocol_id TEXT NOT NULL,
  protocol_name TEXT NOT NULL DEFAULT '',
  peptide_name TEXT NOT NULL DEFAULT '',
  amount_mg DOUBLE PRECISION NOT NULL,
  site TEXT NOT NULL DEFAULT '',
  time_of_day TEXT NOT NULL,
  days_of_week TEXT NOT NULL,
  enabled BOOLEAN NOT NULL DEFAULT TRUE,
  notes TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create dose_schedules table: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) Create(ctx context.Context, s *schedule.DoseSchedule) error {
	days, err := json.Marshal(s.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("error encoding days of week: %w", err)
	}
	query := rebind(r.driver, `INSERT INTO dose_schedules (`+scheduleColumns+`)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.ProtocolID, s.ProtocolName, s.PeptideName, s.AmountMg, s.Site, s.TimeOfDay,
		string(days), s.Enabled, s.Notes, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSchedule
		}
		return fmt.Errorf("error creating dose schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.DoseSchedule, error) {
	query := rebind(r.driver, `SELECT `+scheduleColumns+` FROM dose_schedules WHERE id = ?`)
	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("error getting dose schedule by ID: %w", err)
	}
	return s, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, s *schedule.DoseSchedule) error {
	days, err := json.Marshal(s.DaysOfWeek)
	if err != nil {
		return fmt.Errorf("error encoding days of week: %w", err)
	}
	query := rebind(r.driver, `UPDATE dose_schedules
               SET amount_mg = ?, site = ?, time_of_day = ?, days_of_week = ?, enabled = ?, notes = ?, updated_at = ?
               WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		s.AmountMg, s.Site, s.TimeOfDay, string(days), s.Enabled, s.Notes, s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		return fmt.Errorf("error updating dose schedule: %w", err)
	}
	return requireAffected(res)
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	query := rebind(r.driver, `DELETE FROM dose_schedules WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error deleting dose schedule: %w", err)
	}
	return requireAffected(res)
}

func (r *ScheduleRepository) ListAll(ctx context.Context) ([]*schedule.DoseSchedule, error) {
	return r.list(ctx, `SELECT `+scheduleColumns+` FROM dose_schedules ORDER BY time_of_day ASC, id ASC`)
}

func (r *ScheduleRepository) ListEnabled(ctx context.Context) ([]*schedule.DoseSchedule, error) {
	return r.list(ctx, `SELECT `+scheduleColumns+` FROM dose_schedules WHERE enabled = TRUE ORDER BY time_of_day ASC, id ASC`)
}

func (r *ScheduleRepository) list(ctx context.Context, query string, args ...any) ([]*schedule.DoseSchedule, error) {
	rows, err := r.db.QueryContext(ctx, rebind(r.driver, query), args...)
	if err != nil {
		return nil, fmt.Errorf("error listing dose schedules: %w", err)
	}
	defer rows.Close()

	schedules := make([]*schedule.DoseSchedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning dose schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dose schedules: %w", err)
	}
	return schedules, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*schedule.DoseSchedule, error) {
	s := &schedule.DoseSchedule{}
	var days string
	err := row.Scan(&s.ID, &s.ProtocolID, &s.ProtocolName, &s.PeptideName, &s.AmountMg, &s.Site,
		&s.TimeOfDay, &days, &s.Enabled, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(days), &s.DaysOfWeek); err != nil {
		return nil, fmt.Errorf("error decoding days of week for %s: %w", s.ID, err)
	}
	return s, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return schedule.ErrScheduleNotFound
	}
	return nil
}

// isUniqueViolation matches both the postgres and the sqlite wording.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
