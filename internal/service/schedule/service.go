package schedule

import (
	"context"
	"fmt"

	"github.com/medconnect/booking-api/internal/model"
	"github.com/medconnect/booking-api/internal/repository"
	apperrors "github.com/medconnect/booking-api/pkg/errors"
	"github.com/medconnect/booking-api/pkg/validator"
)

// Service manages a doctor's weekly recurring schedule. Updates replace the
// whole schedule wholesale; there is no partial merge.
type Service struct {
	repo      repository.ScheduleRepository
	validator *validator.Validator
}

func NewService(repo repository.ScheduleRepository, v *validator.Validator) *Service {
	return &Service{repo: repo, validator: v}
}

// SetWeeklySchedule validates and stores the doctor's full weekly schedule.
// At most one window per day of week is accepted.
func (s *Service) SetWeeklySchedule(ctx context.Context, doctorID int64, req *model.SetScheduleRequest) ([]*model.ScheduleWindow, error) {
	seen := make(map[int]bool, len(req.Windows))
	windows := make([]*model.ScheduleWindow, 0, len(req.Windows))

	for i := range req.Windows {
		w := &req.Windows[i]
		if err := s.validateWindow(w); err != nil {
			return nil, apperrors.BadRequest(fmt.Sprintf("invalid window for day %d", w.DayOfWeek), err)
		}
		if seen[w.DayOfWeek] {
			return nil, apperrors.BadRequest(fmt.Sprintf("duplicate window for day %d", w.DayOfWeek), nil)
		}
		seen[w.DayOfWeek] = true

		windows = append(windows, &model.ScheduleWindow{
			DoctorID:         doctorID,
			DayOfWeek:        w.DayOfWeek,
			StartTime:        w.StartTime,
			EndTime:          w.EndTime,
			SlotDurationMins: w.SlotDurationMins,
			BreakStart:       w.BreakStart,
			BreakEnd:         w.BreakEnd,
			IsActive:         true,
		})
	}

	if err := s.repo.Replace(ctx, doctorID, windows); err != nil {
		return nil, fmt.Errorf("failed to replace schedule: %w", err)
	}
	return windows, nil
}

// GetWeeklySchedule returns the doctor's active windows ordered by weekday.
func (s *Service) GetWeeklySchedule(ctx context.Context, doctorID int64) ([]*model.ScheduleWindow, error) {
	windows, err := s.repo.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	return windows, nil
}

// validateWindow enforces tag rules plus the cross-field ones: start before
// end, and the break interval, if present, inside [start, end).
func (s *Service) validateWindow(w *model.ScheduleWindowRequest) error {
	if err := s.validator.Validate(w); err != nil {
		return err
	}

	start, err := model.ParseTimeOfDay(w.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start_time: %w", err)
	}
	end, err := model.ParseTimeOfDay(w.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end_time: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("start_time must be before end_time")
	}

	if (w.BreakStart == nil) != (w.BreakEnd == nil) {
		return fmt.Errorf("break_start and break_end must be set together")
	}
	if w.BreakStart != nil {
		breakStart, err := model.ParseTimeOfDay(*w.BreakStart)
		if err != nil {
			return fmt.Errorf("invalid break_start: %w", err)
		}
		breakEnd, err := model.ParseTimeOfDay(*w.BreakEnd)
		if err != nil {
			return fmt.Errorf("invalid break_end: %w", err)
		}
		if !breakStart.Before(breakEnd) {
			return fmt.Errorf("break_start must be before break_end")
		}
		if breakStart.Before(start) || breakEnd.After(end) {
			return fmt.Errorf("break interval must lie within the window")
		}
	}
	return nil
}
