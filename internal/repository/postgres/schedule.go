package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medconnect/booking-api/internal/model"
)

func (r *scheduleRepository) GetWindow(ctx context.Context, doctorID int64, dayOfWeek int) (*model.ScheduleWindow, error) {
	query := `
		SELECT id, doctor_id, day_of_week,
			   to_char(start_time, 'HH24:MI:SS') AS start_time,
			   to_char(end_time, 'HH24:MI:SS') AS end_time,
			   slot_duration_mins,
			   to_char(break_start, 'HH24:MI:SS') AS break_start,
			   to_char(break_end, 'HH24:MI:SS') AS break_end,
			   is_active
		FROM doctor_schedules
		WHERE doctor_id = $1 AND day_of_week = $2 AND is_active = TRUE
	`
	var window model.ScheduleWindow
	err := r.db.GetContext(ctx, &window, query, doctorID, dayOfWeek)
	if errors.Is(err, sql.ErrNoRows) {
		// An unscheduled day has zero capacity; the caller treats nil as empty.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule window: %w", err)
	}
	return &window, nil
}

func (r *scheduleRepository) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.ScheduleWindow, error) {
	query := `
		SELECT id, doctor_id, day_of_week,
			   to_char(start_time, 'HH24:MI:SS') AS start_time,
			   to_char(end_time, 'HH24:MI:SS') AS end_time,
			   slot_duration_mins,
			   to_char(break_start, 'HH24:MI:SS') AS break_start,
			   to_char(break_end, 'HH24:MI:SS') AS break_end,
			   is_active
		FROM doctor_schedules
		WHERE doctor_id = $1 AND is_active = TRUE
		ORDER BY day_of_week ASC
	`
	var windows []*model.ScheduleWindow
	if err := r.db.SelectContext(ctx, &windows, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list schedule windows: %w", err)
	}
	return windows, nil
}

func (r *scheduleRepository) Replace(ctx context.Context, doctorID int64, windows []*model.ScheduleWindow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM doctor_schedules WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	insert := `
		INSERT INTO doctor_schedules
			(doctor_id, day_of_week, start_time, end_time, slot_duration_mins, break_start, break_end, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
	`
	for _, w := range windows {
		if _, err := tx.ExecContext(ctx, insert,
			doctorID,
			w.DayOfWeek,
			w.StartTime,
			w.EndTime,
			w.SlotDurationMins,
			w.BreakStart,
			w.BreakEnd,
		); err != nil {
			return fmt.Errorf("failed to insert schedule window: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}
	return nil
}
