package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "pending"
	AppointmentStatusAccepted AppointmentStatus = "accepted"
	AppointmentStatusRejected AppointmentStatus = "rejected"
)

// Appointment is a durable, confirmed booking. It is only ever created
// through the booking finalizer or the privileged family flow.
type Appointment struct {
	ID        int64             `db:"id" json:"id"`
	PatientID int64             `db:"patient_id" json:"patient_id"`
	DoctorID  int64             `db:"doctor_id" json:"doctor_id"`
	DateTime  time.Time         `db:"date_time" json:"date_time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail is the patient-facing projection with doctor info joined in.
type AppointmentDetail struct {
	ID          int64             `db:"id" json:"id"`
	DoctorID    int64             `db:"doctor_id" json:"doctor_id"`
	DoctorName  string            `db:"doctor_name" json:"doctor_name"`
	DoctorEmail string            `db:"doctor_email" json:"doctor_email"`
	DateTime    time.Time         `db:"date_time" json:"date_time"`
	Status      AppointmentStatus `db:"status" json:"status"`
	CanCancel   bool              `db:"-" json:"can_cancel"`
}

type AppointmentResponseRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

type RescheduleRequest struct {
	DoctorID int64  `json:"doctor_id" binding:"required"`
	SlotTime string `json:"slot_time" binding:"required"`
}
