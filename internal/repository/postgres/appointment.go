package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (patient_id, doctor_id, date_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.DateTime,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	).Scan(&appointment.ID)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, date_time, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.NewNotFound("appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, date_time = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.DoctorID,
		appointment.DateTime,
		appointment.Status,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.NewNotFound("appointment")
	}
	return nil
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID int64) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, date_time, status, created_at, updated_at
		FROM appointments
		WHERE patient_id = $1
		ORDER BY date_time DESC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListDetailedForPatient(ctx context.Context, patientID int64) ([]*model.AppointmentDetail, error) {
	query := `
		SELECT a.id, a.doctor_id, u.name AS doctor_name, u.email AS doctor_email,
			   a.date_time, a.status
		FROM appointments a
		JOIN users u ON u.id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.date_time DESC
	`
	var details []*model.AppointmentDetail
	if err := r.db.SelectContext(ctx, &details, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list detailed appointments: %w", err)
	}
	for _, d := range details {
		d.CanCancel = d.Status == model.AppointmentStatusPending
	}
	return details, nil
}

func (r *appointmentRepository) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, date_time, status, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY date_time ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) BookedTimes(ctx context.Context, doctorID int64, date time.Time, statuses []model.AppointmentStatus) ([]string, error) {
	query := `
		SELECT to_char(date_time, 'HH24:MI:SS')
		FROM appointments
		WHERE doctor_id = $1
		AND date_time::date = $2::date
		AND status = ANY($3)
		ORDER BY date_time ASC
	`
	raw := make([]string, 0, len(statuses))
	for _, s := range statuses {
		raw = append(raw, string(s))
	}

	var times []string
	if err := r.db.SelectContext(ctx, &times, query, doctorID, date, pq.Array(raw)); err != nil {
		return nil, fmt.Errorf("failed to get booked times: %w", err)
	}
	return times, nil
}
