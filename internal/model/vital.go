package model

import (
	"time"
)

type Vital struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   int64     `db:"patient_id" json:"patient_id"`
	DoctorID    int64     `db:"doctor_id" json:"doctor_id"`
	BP          string    `db:"bp" json:"bp"`
	HeartRate   *int      `db:"heart_rate" json:"heart_rate,omitempty"`
	Temperature *float64  `db:"temperature" json:"temperature,omitempty"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
}

type CreateVitalRequest struct {
	PatientEmail string   `json:"patient_email" binding:"required,email"`
	BP           string   `json:"bp" binding:"required"`
	HeartRate    *int     `json:"heart_rate,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}
