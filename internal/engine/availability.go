package engine

import (
	"time"

	"rental_booking/internal/domain"
)

// AvailabilityQuery is a request to book (or re-book, when ExcludeID is set)
// the half-open range [CheckIn, CheckOut) on one property.
type AvailabilityQuery struct {
	PropertyID int64
	CheckIn    time.Time
	CheckOut   time.Time
	MinNights  int   // property-level floor
	ExcludeID  int64 // reservation being edited, 0 otherwise
}

// CheckAvailability returns nil when the range can be booked. It walks the
// supplied reservations in order and reports the first conflict only;
// cancelled reservations and the excluded reservation never conflict.
// Boundary-touching ranges are compatible, which is what allows same-day
// turnovers.
func CheckAvailability(q AvailabilityQuery, existing []domain.Reservation) error {
	nights := int(domain.DateOnly(q.CheckOut).Sub(domain.DateOnly(q.CheckIn)).Hours() / 24)
	if nights <= 0 {
		return domain.Validationf("check-out must be after check-in")
	}
	if q.MinNights > 0 && nights < q.MinNights {
		return domain.Validationf("this property requires a minimum stay of %d nights (%d requested)", q.MinNights, nights)
	}

	for _, r := range existing {
		if r.Status == domain.StatusCancelled {
			continue
		}
		if q.ExcludeID != 0 && r.ID == q.ExcludeID {
			continue
		}
		if r.Overlaps(q.CheckIn, q.CheckOut) {
			return &domain.AvailabilityConflict{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
		}
	}
	return nil
}
