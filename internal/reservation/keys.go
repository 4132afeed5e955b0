package reservation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/medconnect/booking-api/internal/model"
)

const (
	keyPrefix   = "slot_hold"
	keySegment  = "doctor"
	keySections = 4
)

// HoldKey builds the reservation key for a (doctor, slot) pair. The slot
// instant is truncated to whole seconds and formatted without a timezone so
// that any two requests for the same instant collide on the same key.
func HoldKey(doctorID int64, slotTime time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, keySegment, doctorID, model.FormatSlotTime(slotTime))
}

// holdKeyDatePrefix matches every hold key for a doctor on a calendar date.
func holdKeyDatePrefix(doctorID int64, date time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%s*", keyPrefix, keySegment, doctorID, date.Format("2006-01-02"))
}

// ParseHoldKey extracts the doctor and slot time from an expired key. Keys
// not produced by HoldKey return ok=false and are ignored by callers.
func ParseHoldKey(key string) (doctorID int64, slotTime time.Time, ok bool) {
	parts := strings.SplitN(key, ":", keySections)
	if len(parts) != keySections || parts[0] != keyPrefix || parts[1] != keySegment {
		return 0, time.Time{}, false
	}

	doctorID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, time.Time{}, false
	}

	slotTime, err = model.ParseSlotTime(parts[3])
	if err != nil {
		return 0, time.Time{}, false
	}

	return doctorID, slotTime, true
}
