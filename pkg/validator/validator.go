package validator

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// TimeOfDayLayout is the wire format for times of day.
const TimeOfDayLayout = "15:04:05"

// Validator wraps go-playground struct validation with domain rules.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration errors only occur for blank tags or nil funcs.
	_ = v.RegisterValidation("timeofday", isTimeOfDay)
	return &Validator{v: v}
}

// Validate runs tag-based validation on a struct.
func (vl *Validator) Validate(obj interface{}) error {
	if err := vl.v.Struct(obj); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func isTimeOfDay(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(TimeOfDayLayout, s)
	return err == nil
}
