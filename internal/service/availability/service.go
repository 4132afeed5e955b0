package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
)

// HoldReader is the read-only view of the reservation store the calculator
// needs for its exclusion step.
type HoldReader interface {
	HeldSlots(ctx context.Context, doctorID int64, date time.Time) (map[string]struct{}, error)
}

// Service computes bookable slots. It never caches: every query recomputes
// from the durable store and the reservation store, so a result is never
// staler than the moment it was produced.
type Service struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	schedules    repository.ScheduleRepository
	holds        HoldReader
}

func NewService(
	users repository.UserRepository,
	appointments repository.AppointmentRepository,
	schedules repository.ScheduleRepository,
	holds HoldReader,
) *Service {
	return &Service{
		users:        users,
		appointments: appointments,
		schedules:    schedules,
		holds:        holds,
	}
}

var blockingStatuses = []model.AppointmentStatus{
	model.AppointmentStatusPending,
	model.AppointmentStatusAccepted,
}

// FreeSlots returns the bookable times of day for a doctor on a date, as
// zero-padded HH:MM:SS strings in ascending order. An unknown doctor is a
// not-found error; a doctor with no window that weekday is an empty result.
func (s *Service) FreeSlots(ctx context.Context, doctorID int64, date time.Time) ([]string, error) {
	doctor, err := s.users.Get(ctx, doctorID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to look up doctor: %w", err)
	}
	if doctor.Role != model.RoleDoctor {
		return nil, apperrors.NotFound("doctor", nil)
	}

	window, err := s.schedules.GetWindow(ctx, doctorID, int(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if window == nil {
		// Unscheduled day: zero capacity, not an error.
		return []string{}, nil
	}

	bookedTimes, err := s.appointments.BookedTimes(ctx, doctorID, date, blockingStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked times: %w", err)
	}
	booked := make(map[string]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = struct{}{}
	}

	// Hold-store errors fail the query. Treating them as "nothing held"
	// would open a double-booking window.
	held, err := s.holds.HeldSlots(ctx, doctorID, date)
	if err != nil {
		return nil, apperrors.Unavailable(err)
	}

	return enumerate(window, booked, held)
}

// enumerate walks the window with half-open semantics on both the window
// ([start, end)) and the break ([breakStart, breakEnd)).
func enumerate(window *model.ScheduleWindow, booked, held map[string]struct{}) ([]string, error) {
	start, err := model.ParseTimeOfDay(window.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid window start %q: %w", window.StartTime, err)
	}
	end, err := model.ParseTimeOfDay(window.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid window end %q: %w", window.EndTime, err)
	}

	var breakStart, breakEnd time.Time
	if window.HasBreak() {
		breakStart, err = model.ParseTimeOfDay(*window.BreakStart)
		if err != nil {
			return nil, fmt.Errorf("invalid break start %q: %w", *window.BreakStart, err)
		}
		breakEnd, err = model.ParseTimeOfDay(*window.BreakEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid break end %q: %w", *window.BreakEnd, err)
		}
	}

	step := time.Duration(window.SlotDurationMins) * time.Minute
	slots := []string{}

	for current := start; current.Before(end); current = current.Add(step) {
		candidate := current.Format("15:04:05")

		if window.HasBreak() && !current.Before(breakStart) && current.Before(breakEnd) {
			continue
		}
		if _, taken := booked[candidate]; taken {
			continue
		}
		if _, taken := held[candidate]; taken {
			continue
		}
		slots = append(slots, candidate)
	}
	return slots, nil
}
