package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	"github.com/medconnect/booking-api/internal/reservation"
	"github.com/medconnect/booking-api/internal/service/notification"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

// HoldStore is the slice of the reservation store the finalizer depends on.
type HoldStore interface {
	Acquire(ctx context.Context, doctorID int64, slotTime time.Time, holderID int64) (bool, error)
	PeekHolder(ctx context.Context, doctorID int64, slotTime time.Time) (int64, bool, error)
	VerifyAndRelease(ctx context.Context, doctorID int64, slotTime time.Time, holderID int64) (reservation.ReleaseStatus, error)
	TTL() time.Duration
}

// Publisher broadcasts slot state changes to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event model.SlotEvent) error
}

// Service implements the reservation protocol: time-boxed exclusive holds,
// crash-safe finalization (durable write strictly before release), and the
// matching live notifications.
type Service struct {
	store        HoldStore
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	publisher    Publisher
	notifier     notification.Service
	logger       zerolog.Logger
}

func NewService(
	store HoldStore,
	appointments repository.AppointmentRepository,
	users repository.UserRepository,
	publisher Publisher,
	notifier notification.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:        store,
		appointments: appointments,
		users:        users,
		publisher:    publisher,
		notifier:     notifier,
		logger:       logger.With().Str("component", "booking").Logger(),
	}
}

// Reserve claims the slot for userID for the hold TTL. Contention is an
// expected outcome and maps to a retryable conflict; the caller decides
// whether to offer alternate slots.
func (s *Service) Reserve(ctx context.Context, doctorID int64, slotTime time.Time, userID int64) (int, error) {
	ok, err := s.store.Acquire(ctx, doctorID, slotTime, userID)
	if err != nil {
		return 0, apperrors.Unavailable(err)
	}
	if !ok {
		return 0, apperrors.Conflict("slot already reserved by another user")
	}

	s.broadcast(ctx, doctorID, slotTime, model.SlotActionReserved)
	return int(s.store.TTL().Seconds()), nil
}

// Confirm converts a held slot into a durable appointment. The durable write
// happens strictly before the hold is released: a crash in between leaves a
// hold that lapses via TTL, never a lost appointment.
func (s *Service) Confirm(ctx context.Context, doctorID int64, slotTime time.Time, userID int64) (*model.Appointment, error) {
	holder, found, err := s.store.PeekHolder(ctx, doctorID, slotTime)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if !found {
		return nil, apperrors.Gone("reservation expired or not found")
	}
	if holder != userID {
		return nil, apperrors.Forbidden("you do not hold this reservation")
	}

	appointment := &model.Appointment{
		PatientID: userID,
		DoctorID:  doctorID,
		DateTime:  slotTime.Truncate(time.Second),
		Status:    model.AppointmentStatusPending,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	// Best-effort release. On failure the hold simply expires via TTL; the
	// slot stays falsely held for the remaining TTL but nothing double-books.
	if status, err := s.store.VerifyAndRelease(ctx, doctorID, slotTime, userID); err != nil {
		s.logger.Warn().Err(err).Int64("doctor_id", doctorID).Msg("post-confirm release failed, hold will expire")
	} else if status != reservation.Released {
		s.logger.Warn().Int("status", int(status)).Int64("doctor_id", doctorID).Msg("post-confirm release found unexpected hold state")
	}

	// The slot is consumed, not freed: no freed broadcast here.
	s.sendConfirmation(ctx, appointment)
	return appointment, nil
}

// Cancel releases a hold the caller owns and broadcasts the freed slot.
// Explicit cancellation and TTL expiry converge on the same freed event.
func (s *Service) Cancel(ctx context.Context, doctorID int64, slotTime time.Time, userID int64) error {
	status, err := s.store.VerifyAndRelease(ctx, doctorID, slotTime, userID)
	if err != nil {
		return apperrors.Unavailable(err)
	}

	switch status {
	case reservation.NotFound:
		return apperrors.NotFound("active reservation", nil)
	case reservation.WrongHolder:
		return apperrors.Forbidden("you do not hold this reservation")
	}

	s.broadcast(ctx, doctorID, slotTime, model.SlotActionFreed)
	return nil
}

// BookOnBehalf is the privileged flow: the actor holds the slot only for the
// duration of the call and the appointment is written for the patient.
// Callers are responsible for the permission check.
func (s *Service) BookOnBehalf(ctx context.Context, actorID, patientID, doctorID int64, slotTime time.Time) (*model.Appointment, error) {
	ok, err := s.store.Acquire(ctx, doctorID, slotTime, actorID)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}
	if !ok {
		return nil, apperrors.Conflict("slot already reserved by another user")
	}
	s.broadcast(ctx, doctorID, slotTime, model.SlotActionReserved)

	appointment := &model.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		DateTime:  slotTime.Truncate(time.Second),
		Status:    model.AppointmentStatusPending,
	}
	if err := s.appointments.Create(ctx, appointment); err != nil {
		// Undo the transient hold so the slot is not blocked for the TTL.
		if _, relErr := s.store.VerifyAndRelease(ctx, doctorID, slotTime, actorID); relErr == nil {
			s.broadcast(ctx, doctorID, slotTime, model.SlotActionFreed)
		}
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	if status, err := s.store.VerifyAndRelease(ctx, doctorID, slotTime, actorID); err != nil {
		s.logger.Warn().Err(err).Int64("doctor_id", doctorID).Msg("post-booking release failed, hold will expire")
	} else if status != reservation.Released {
		s.logger.Warn().Int("status", int(status)).Int64("doctor_id", doctorID).Msg("post-booking release found unexpected hold state")
	}

	s.sendConfirmation(ctx, appointment)
	return appointment, nil
}

func (s *Service) broadcast(ctx context.Context, doctorID int64, slotTime time.Time, action model.SlotAction) {
	event := model.SlotEvent{
		DoctorID: doctorID,
		SlotTime: model.FormatSlotTime(slotTime),
		Action:   action,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Side channel only: subscribers re-derive truth from availability.
		s.logger.Warn().Err(err).Int64("doctor_id", doctorID).Str("action", string(action)).Msg("failed to broadcast slot event")
	}
}

func (s *Service) sendConfirmation(ctx context.Context, appointment *model.Appointment) {
	patient, err := s.users.Get(ctx, appointment.PatientID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("patient_id", appointment.PatientID).Msg("skipping confirmation email")
		return
	}
	if err := s.notifier.SendBookingConfirmed(ctx, patient.Email, patient.Name, appointment.DateTime); err != nil {
		s.logger.Warn().Err(err).Str("email", patient.Email).Msg("failed to send confirmation email")
	}
}
