package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/medconnect/booking-api/internal/model"
)

func (r *vitalRepository) Create(ctx context.Context, vital *model.Vital) error {
	query := `
		INSERT INTO vitals (patient_id, doctor_id, bp, heart_rate, temperature, notes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	vital.RecordedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		vital.PatientID,
		vital.DoctorID,
		vital.BP,
		vital.HeartRate,
		vital.Temperature,
		vital.Notes,
		vital.RecordedAt,
	).Scan(&vital.ID)
	if err != nil {
		return fmt.Errorf("failed to create vital: %w", err)
	}
	return nil
}

func (r *vitalRepository) ListForPatient(ctx context.Context, patientID int64) ([]*model.Vital, error) {
	query := `
		SELECT id, patient_id, doctor_id, bp, heart_rate, temperature, notes, recorded_at
		FROM vitals
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
	`
	var vitals []*model.Vital
	if err := r.db.SelectContext(ctx, &vitals, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list vitals: %w", err)
	}
	return vitals, nil
}
