package domain

import "time"

type PeriodKind string

const (
	PeriodBase     PeriodKind = "base"
	PeriodSeasonal PeriodKind = "seasonal"
)

// RatePeriod is either the single year-round base period of a property
// (no season bounds) or a named seasonal window with inclusive start/end
// calendar dates. Package rates of 0 mean "not offered".
type RatePeriod struct {
	ID          int64
	PropertyID  int64
	Kind        PeriodKind
	Name        string
	SeasonStart time.Time // inclusive; zero for base
	SeasonEnd   time.Time // inclusive; zero for base
	Nightly     float64
	Weekend     float64 // Fri/Sat override when > 0
	Weekly      float64
	Fortnightly float64
	Monthly     float64
	ExtraGuest  float64 // per extra guest per night
	MinNights   int
}

// Covers reports whether a seasonal period's window contains the given night.
// A base period covers every date.
func (p RatePeriod) Covers(night time.Time) bool {
	if p.Kind == PeriodBase {
		return true
	}
	d := DateOnly(night)
	return !d.Before(DateOnly(p.SeasonStart)) && !d.After(DateOnly(p.SeasonEnd))
}

// StayRequest describes the stay being priced. CheckOut is exclusive:
// a 2024-07-01 → 2024-07-04 stay has three nights.
type StayRequest struct {
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         int
	GuestThreshold int // extra-guest surcharge applies above this count
}

func (s StayRequest) Nights() int {
	return int(DateOnly(s.CheckOut).Sub(DateOnly(s.CheckIn)).Hours() / 24)
}

// NightPrice is one line of the nightly breakdown.
type NightPrice struct {
	Date       time.Time
	Rate       float64 // rounded to 2dp for display
	PeriodName string
	PeriodKind PeriodKind
	Weekend    bool
}

// PricingResult is rebuilt from inputs on every call; it is never cached
// or mutated after being returned.
type PricingResult struct {
	Nights          []NightPrice
	Total           float64
	AvgNightly      float64
	ExtraGuestTotal float64
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
