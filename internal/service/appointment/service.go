package appointment

import (
	"context"
	"fmt"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

// Service is the CRUD glue around confirmed appointments. Creation goes
// through the booking finalizer, never through here.
type Service struct {
	repo repository.AppointmentRepository
}

func NewService(repo repository.AppointmentRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListForPatient(ctx context.Context, patientID int64) ([]*model.AppointmentDetail, error) {
	details, err := s.repo.ListDetailedForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return details, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Respond lets the doctor accept or reject a pending appointment.
func (s *Service) Respond(ctx context.Context, doctorID, appointmentID int64, action string) (*model.Appointment, error) {
	appointment, err := s.get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.DoctorID != doctorID {
		return nil, apperrors.Forbidden("appointment belongs to another doctor")
	}

	switch action {
	case "accept":
		appointment.Status = model.AppointmentStatusAccepted
	case "reject":
		appointment.Status = model.AppointmentStatusRejected
	default:
		return nil, apperrors.BadRequest("action must be accept or reject", nil)
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return appointment, nil
}

// Cancel rejects the patient's own appointment while it is still pending.
func (s *Service) Cancel(ctx context.Context, patientID, appointmentID int64) (*model.Appointment, error) {
	appointment, err := s.get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.PatientID != patientID {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if appointment.Status != model.AppointmentStatusPending {
		return nil, apperrors.BadRequest("can only cancel pending appointments", nil)
	}

	appointment.Status = model.AppointmentStatusRejected
	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}
	return appointment, nil
}

// Reschedule moves a pending appointment to a new doctor/time.
func (s *Service) Reschedule(ctx context.Context, patientID, appointmentID int64, req *model.RescheduleRequest) (*model.Appointment, error) {
	appointment, err := s.get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.PatientID != patientID {
		return nil, apperrors.NotFound("appointment", nil)
	}
	if appointment.Status != model.AppointmentStatusPending {
		return nil, apperrors.BadRequest("can only reschedule pending appointments", nil)
	}

	slotTime, err := model.ParseSlotTime(req.SlotTime)
	if err != nil {
		return nil, apperrors.BadRequest("slot_time must be YYYY-MM-DDTHH:MM:SS", err)
	}

	appointment.DoctorID = req.DoctorID
	appointment.DateTime = slotTime
	appointment.Status = model.AppointmentStatusPending

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	return appointment, nil
}

func (s *Service) get(ctx context.Context, id int64) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appointment, nil
}
