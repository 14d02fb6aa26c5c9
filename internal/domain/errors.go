package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("not found")

// ValidationError covers bad stay input: non-positive length, an unpriced
// date, a minimum-nights violation. Surfaced verbatim, never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AvailabilityConflict names the first conflicting reservation's range.
type AvailabilityConflict struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (e *AvailabilityConflict) Error() string {
	return fmt.Sprintf("dates are not available: conflicts with an existing stay %s to %s",
		e.CheckIn.Format("2006-01-02"), e.CheckOut.Format("2006-01-02"))
}

func IsAvailabilityConflict(err error) *AvailabilityConflict {
	var c *AvailabilityConflict
	if errors.As(err, &c) {
		return c
	}
	return nil
}

// IdentityConflict means guest matching named more than one person, or one
// person with incompatible contact data. The message is shown to
// unauthenticated callers, so it carries no record identifiers.
type IdentityConflict struct {
	Reason string
}

func (e *IdentityConflict) Error() string {
	return "we could not match your details to a single guest record (" + e.Reason +
		"); please contact the property directly to complete this booking"
}

func IsIdentityConflict(err error) bool {
	var c *IdentityConflict
	return errors.As(err, &c)
}
