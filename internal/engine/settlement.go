package engine

import "rental_booking/internal/domain"

// Settle computes a settlement breakdown for a total against a channel's
// commission/tax percentages. Commissions and tax are all percentages of the
// gross total, never of the post-commission amount.
//
// prev supplies the values of pinned fields: a deduction the operator has
// overridden by hand is carried over unchanged, and only Net follows the new
// total. A nil channel means no channel is selected: every non-pinned
// deduction is zero and net equals total minus whatever stays pinned.
// Switching channels resets pins, which the caller expresses by passing a
// zero PinnedFields.
func Settle(total float64, ch *domain.Channel, prev domain.SettlementBreakdown, pinned domain.PinnedFields) domain.SettlementBreakdown {
	b := domain.SettlementBreakdown{Total: round2(total)}

	if pinned.SalesCommission {
		b.SalesCommission = prev.SalesCommission
	} else if ch != nil {
		b.SalesCommission = round2(total * ch.SalesPct / 100)
	}

	if pinned.CollectionCommission {
		b.CollectionCommission = prev.CollectionCommission
	} else if ch != nil {
		b.CollectionCommission = round2(total * ch.CollectionPct / 100)
	}

	if pinned.Tax {
		b.Tax = prev.Tax
	} else if ch != nil && ch.AppliesTax {
		b.Tax = round2(total * ch.TaxPct / 100)
	}

	b.Net = round2(b.Total - b.SalesCommission - b.CollectionCommission - b.Tax)
	return b
}
