package model

import (
	"time"
)

// SlotAction is the state transition carried by a live slot event.
type SlotAction string

const (
	SlotActionReserved SlotAction = "reserved"
	SlotActionFreed    SlotAction = "freed"
)

// SlotEvent is broadcast to live subscribers whenever a slot changes state.
// SlotTime uses second precision without a timezone, matching the hold key.
type SlotEvent struct {
	DoctorID int64      `json:"doctor_id"`
	SlotTime string     `json:"slot_time"`
	Action   SlotAction `json:"action"`
}

// SlotTimeLayout is the canonical wire format for slot instants: whole
// seconds, no timezone. Two requests for the same instant must collide on
// the same string.
const SlotTimeLayout = "2006-01-02T15:04:05"

// FormatSlotTime normalizes an instant to the canonical slot representation.
func FormatSlotTime(t time.Time) string {
	return t.Truncate(time.Second).Format(SlotTimeLayout)
}

// ParseSlotTime parses the canonical slot representation.
func ParseSlotTime(s string) (time.Time, error) {
	return time.Parse(SlotTimeLayout, s)
}

type ReserveSlotRequest struct {
	DoctorID int64  `json:"doctor_id" binding:"required"`
	SlotTime string `json:"slot_time" binding:"required"`
}

type ReserveSlotResponse struct {
	ExpiresIn int `json:"expires_in"`
}
