// Package engine holds the booking engine's core components: pricing,
// availability, settlement and guest identity resolution. Pricing,
// availability and settlement are pure functions over caller-supplied
// records; only identity resolution touches a repository.
package engine

import (
	"fmt"
	"math"
	"time"

	"rental_booking/internal/domain"
)

// Length-of-stay package thresholds, longest first. Fixed, not per-property.
const (
	monthlyNights   = 29
	fortnightNights = 14
	weeklyNights    = 7
)

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// ResolvePricing builds the authoritative nightly breakdown and total for a
// stay. Any failure returns an error and no partial breakdown.
//
// Per night: the first seasonal period covering the date wins, else the base
// period, else fallbackNightly when positive. A Friday or Saturday night uses
// the period's weekend rate when one is set. When the stay is long enough, a
// defined monthly/fortnightly/weekly package rate divided by its period
// length replaces the nightly rate for every night.
func ResolvePricing(stay domain.StayRequest, periods []domain.RatePeriod, fallbackNightly float64) (domain.PricingResult, error) {
	nights := stay.Nights()
	if nights <= 0 {
		return domain.PricingResult{}, domain.Validationf("check-out must be after check-in")
	}

	var res domain.PricingResult
	res.Nights = make([]domain.NightPrice, 0, nights)

	var running float64
	var extraTotal float64
	extraGuests := 0
	if stay.Guests > stay.GuestThreshold && stay.GuestThreshold > 0 {
		extraGuests = stay.Guests - stay.GuestThreshold
	}

	for i := 0; i < nights; i++ {
		night := domain.DateOnly(stay.CheckIn).AddDate(0, 0, i)

		period, ok := selectPeriod(periods, night, fallbackNightly)
		if !ok {
			return domain.PricingResult{}, domain.Validationf("no rate is defined for %s", night.Format("2006-01-02"))
		}

		// Minimum-nights is a stay-level rule, judged once against the
		// period covering the first night.
		if i == 0 && period.MinNights > 0 && nights < period.MinNights {
			return domain.PricingResult{}, domain.Validationf(
				"this stay requires a minimum of %d nights (%d requested)", period.MinNights, nights)
		}

		rate := period.Nightly
		weekend := false
		if wd := night.Weekday(); (wd == time.Friday || wd == time.Saturday) && period.Weekend > 0 {
			rate = period.Weekend
			weekend = true
		}

		// Package rates replace the nightly (and weekend) rate uniformly
		// once the stay crosses a threshold; longest package wins.
		switch {
		case nights >= monthlyNights && period.Monthly > 0:
			rate = period.Monthly / monthlyNights
			weekend = false
		case nights >= fortnightNights && period.Fortnightly > 0:
			rate = period.Fortnightly / fortnightNights
			weekend = false
		case nights >= weeklyNights && period.Weekly > 0:
			rate = period.Weekly / weeklyNights
			weekend = false
		}

		running += rate
		extraTotal += float64(extraGuests) * period.ExtraGuest

		res.Nights = append(res.Nights, domain.NightPrice{
			Date:       night,
			Rate:       round2(rate), // cosmetic; the total accumulates pre-rounding
			PeriodName: period.Name,
			PeriodKind: period.Kind,
			Weekend:    weekend,
		})
	}

	res.ExtraGuestTotal = round2(extraTotal)
	res.Total = round2(running + extraTotal)
	res.AvgNightly = round2(res.Total / float64(nights))
	return res, nil
}

// selectPeriod picks the period for one night: first matching seasonal, else
// base, else a synthetic fallback period when fallbackNightly is positive.
func selectPeriod(periods []domain.RatePeriod, night time.Time, fallbackNightly float64) (domain.RatePeriod, bool) {
	var base *domain.RatePeriod
	for i := range periods {
		p := &periods[i]
		if p.Kind == domain.PeriodBase {
			if base == nil {
				base = p
			}
			continue
		}
		if p.Covers(night) {
			return *p, true
		}
	}
	if base != nil {
		return *base, true
	}
	if fallbackNightly > 0 {
		return domain.RatePeriod{Kind: domain.PeriodBase, Name: "fallback", Nightly: fallbackNightly}, true
	}
	return domain.RatePeriod{}, false
}

// ValidateRatePlan reports data-quality problems in a property's rate table:
// a missing or duplicated base period and overlapping seasonal windows.
// Overlaps do not fail resolution (first match in list order wins), but the
// result under overlap is order-dependent and worth surfacing to operators.
func ValidateRatePlan(periods []domain.RatePeriod) []string {
	var warnings []string

	baseCount := 0
	var seasons []domain.RatePeriod
	for _, p := range periods {
		if p.Kind == domain.PeriodBase {
			baseCount++
			continue
		}
		if p.SeasonEnd.Before(p.SeasonStart) {
			warnings = append(warnings, fmt.Sprintf("season %q ends before it starts", p.Name))
			continue
		}
		seasons = append(seasons, p)
	}
	switch baseCount {
	case 0:
		warnings = append(warnings, "rate plan has no base period")
	case 1:
	default:
		warnings = append(warnings, fmt.Sprintf("rate plan has %d base periods; exactly one is expected", baseCount))
	}

	for i := 0; i < len(seasons); i++ {
		for j := i + 1; j < len(seasons); j++ {
			a, b := seasons[i], seasons[j]
			if !domain.DateOnly(a.SeasonStart).After(domain.DateOnly(b.SeasonEnd)) &&
				!domain.DateOnly(b.SeasonStart).After(domain.DateOnly(a.SeasonEnd)) {
				warnings = append(warnings, fmt.Sprintf("seasons %q and %q overlap; the one listed first wins", a.Name, b.Name))
			}
		}
	}
	return warnings
}
