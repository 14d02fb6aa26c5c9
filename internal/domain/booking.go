package domain

import "time"

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusPending   ReservationStatus = "pending"
	StatusCancelled ReservationStatus = "cancelled"
)

type Property struct {
	ID             int64
	TenantID       int64
	Name           string
	MinNights      int // property-level floor, independent of seasonal minimums
	GuestThreshold int
}

type Reservation struct {
	ID         int64
	PropertyID int64
	PersonID   string
	ChannelID  *int64
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	Status     ReservationStatus
	Settlement SettlementBreakdown
	CreatedAt  time.Time
}

// Overlaps is the half-open interval test: touching boundaries (one stay's
// checkout equals another's checkin) is not a conflict.
func (r Reservation) Overlaps(checkIn, checkOut time.Time) bool {
	return DateOnly(r.CheckIn).Before(DateOnly(checkOut)) &&
		DateOnly(r.CheckOut).After(DateOnly(checkIn))
}

// Channel is a sales channel's commission/tax configuration.
type Channel struct {
	ID            int64
	Name          string
	SalesPct      float64
	CollectionPct float64
	AppliesTax    bool
	TaxPct        float64
}

// SettlementBreakdown decomposes a booking total into commissions, tax and
// the net payable amount. Net always reconciles:
// net = total − salesCommission − collectionCommission − tax.
type SettlementBreakdown struct {
	Total                float64
	SalesCommission      float64
	CollectionCommission float64
	Tax                  float64
	Net                  float64
}

// PinnedFields marks deductions a human operator has overridden. A pinned
// field is held fixed across recomputation; only non-pinned fields and Net
// follow changes to the total or channel.
type PinnedFields struct {
	SalesCommission      bool
	CollectionCommission bool
	Tax                  bool
}
