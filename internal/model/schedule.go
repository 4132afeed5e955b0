package model

import (
	"time"
)

// ScheduleWindow is one weekly recurring working window for a doctor.
// Day numbering follows time.Weekday: Sunday = 0 through Saturday = 6.
// Times of day are stored as zero-padded HH:MM:SS strings.
type ScheduleWindow struct {
	ID               int64   `db:"id" json:"id"`
	DoctorID         int64   `db:"doctor_id" json:"doctor_id"`
	DayOfWeek        int     `db:"day_of_week" json:"day_of_week"`
	StartTime        string  `db:"start_time" json:"start_time"`
	EndTime          string  `db:"end_time" json:"end_time"`
	SlotDurationMins int     `db:"slot_duration_mins" json:"slot_duration_mins"`
	BreakStart       *string `db:"break_start" json:"break_start,omitempty"`
	BreakEnd         *string `db:"break_end" json:"break_end,omitempty"`
	IsActive         bool    `db:"is_active" json:"is_active"`
}

// HasBreak reports whether the window carries a break interval.
func (w *ScheduleWindow) HasBreak() bool {
	return w.BreakStart != nil && w.BreakEnd != nil
}

type ScheduleWindowRequest struct {
	DayOfWeek        int     `json:"day_of_week" binding:"min=0,max=6" validate:"min=0,max=6"`
	StartTime        string  `json:"start_time" binding:"required" validate:"required,timeofday"`
	EndTime          string  `json:"end_time" binding:"required" validate:"required,timeofday"`
	SlotDurationMins int     `json:"slot_duration_mins" binding:"required,min=5,max=240" validate:"required,min=5,max=240"`
	BreakStart       *string `json:"break_start,omitempty" validate:"omitempty,timeofday"`
	BreakEnd         *string `json:"break_end,omitempty" validate:"omitempty,timeofday"`
}

type SetScheduleRequest struct {
	Windows []ScheduleWindowRequest `json:"windows" binding:"required"`
}

// ParseTimeOfDay parses a zero-padded HH:MM:SS string.
func ParseTimeOfDay(s string) (time.Time, error) {
	return time.Parse("15:04:05", s)
}
