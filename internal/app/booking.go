package app

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"rental_booking/internal/adapters/observability"
	"rental_booking/internal/domain"
	"rental_booking/internal/engine"
)

// priceTolerance is how far a client-submitted total may drift from the
// server-recomputed one before the server value silently replaces it.
const priceTolerance = 0.10

type BookingService struct {
	props        domain.PropertyRepository
	rates        domain.RatePeriodRepository
	reservations domain.ReservationRepository
	channels     domain.ChannelRepository
	identity     *engine.IdentityResolver
	locks        *propertyLocks
}

func NewBookingService(
	props domain.PropertyRepository,
	rates domain.RatePeriodRepository,
	reservations domain.ReservationRepository,
	channels domain.ChannelRepository,
	identity *engine.IdentityResolver,
) *BookingService {
	return &BookingService{
		props:        props,
		rates:        rates,
		reservations: reservations,
		channels:     channels,
		identity:     identity,
		locks:        newPropertyLocks(),
	}
}

type CreateBookingInput struct {
	PropertyID int64
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	ChannelID  *int64
	Guest      domain.GuestCandidate

	// ClientTotal is the total the (untrusted) caller believes it is paying;
	// 0 means none was submitted.
	ClientTotal float64
}

type BookingConfirmation struct {
	ReservationID int64
	Guest         domain.Person
	Pricing       domain.PricingResult
	Settlement    domain.SettlementBreakdown
}

// CreateBooking runs the full flow: availability, authoritative pricing,
// guest identity, settlement, insert. The whole check-then-insert runs under
// the property's lock so two concurrent requests for overlapping dates
// cannot both pass the availability check.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (BookingConfirmation, error) {
	prop, err := s.props.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return BookingConfirmation{}, err
	}

	release := s.locks.acquire(prop.ID)
	defer release()

	var out BookingConfirmation
	err = s.reservations.WithPropertyLock(ctx, prop.ID, func(ctx context.Context) error {
		return s.createLocked(ctx, prop, in, &out)
	})
	if err != nil {
		observability.ObserveBooking(outcomeLabel(err))
		return BookingConfirmation{}, err
	}
	observability.ObserveBooking("confirmed")
	return out, nil
}

func (s *BookingService) createLocked(ctx context.Context, prop domain.Property, in CreateBookingInput, out *BookingConfirmation) error {
	// Rate periods, existing reservations and channel config are
	// independent reads.
	var (
		periods  []domain.RatePeriod
		existing []domain.Reservation
		channel  *domain.Channel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		periods, err = s.rates.ListRatePeriods(gctx, prop.ID)
		return err
	})
	g.Go(func() error {
		var err error
		existing, err = s.reservations.ListOverlapping(gctx, prop.ID, in.CheckIn, in.CheckOut, 0)
		return err
	})
	if in.ChannelID != nil {
		id := *in.ChannelID
		g.Go(func() error {
			ch, err := s.channels.GetChannel(gctx, id)
			if err != nil {
				return err
			}
			channel = &ch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := engine.CheckAvailability(engine.AvailabilityQuery{
		PropertyID: prop.ID,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		MinNights:  prop.MinNights,
	}, existing); err != nil {
		return err
	}

	pricing, err := engine.ResolvePricing(domain.StayRequest{
		CheckIn:        in.CheckIn,
		CheckOut:       in.CheckOut,
		Guests:         in.Guests,
		GuestThreshold: prop.GuestThreshold,
	}, periods, 0)
	if err != nil {
		return err
	}

	// The server's total is authoritative. A divergent client total is a
	// tampering signal, not a failure: log it, count it, move on.
	if in.ClientTotal > 0 && math.Abs(in.ClientTotal-pricing.Total) > priceTolerance {
		log.Warn().
			Int64("property_id", prop.ID).
			Float64("client_total", in.ClientTotal).
			Float64("server_total", pricing.Total).
			Msg("client-submitted total overridden")
		observability.ObservePriceOverride()
	}

	guest := in.Guest
	guest.TenantID = prop.TenantID
	person, err := s.identity.ResolveOrCreate(ctx, guest)
	if err != nil {
		return err
	}

	settlement := engine.Settle(pricing.Total, channel, domain.SettlementBreakdown{}, domain.PinnedFields{})

	id, err := s.reservations.InsertReservation(ctx, domain.Reservation{
		PropertyID: prop.ID,
		PersonID:   person.ID,
		ChannelID:  in.ChannelID,
		CheckIn:    domain.DateOnly(in.CheckIn),
		CheckOut:   domain.DateOnly(in.CheckOut),
		Guests:     in.Guests,
		Status:     domain.StatusConfirmed,
		Settlement: settlement,
	})
	if err != nil {
		return err
	}

	*out = BookingConfirmation{
		ReservationID: id,
		Guest:         person,
		Pricing:       pricing,
		Settlement:    settlement,
	}
	return nil
}

// CheckAvailability answers the public probe for a date range, including the
// property's minimum-stay floor.
func (s *BookingService) CheckAvailability(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, excludeID int64) error {
	prop, err := s.props.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	existing, err := s.reservations.ListOverlapping(ctx, propertyID, checkIn, checkOut, excludeID)
	if err != nil {
		return err
	}
	return engine.CheckAvailability(engine.AvailabilityQuery{
		PropertyID: propertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		MinNights:  prop.MinNights,
		ExcludeID:  excludeID,
	}, existing)
}

type RecalculateInput struct {
	ReservationID int64

	// NewTotal, when non-nil, replaces the stored total.
	NewTotal *float64

	// ChannelChanged signals a channel edit; NewChannelID may then be nil to
	// clear the channel entirely.
	ChannelChanged bool
	NewChannelID   *int64

	Pinned domain.PinnedFields
}

// RecalculateSettlement is the interactive-edit path: the breakdown re-runs
// whenever the total or channel changes, honoring pinned fields. A channel
// switch drops the pins, since overrides made under the old channel no
// longer apply.
func (s *BookingService) RecalculateSettlement(ctx context.Context, in RecalculateInput) (domain.SettlementBreakdown, error) {
	r, err := s.reservations.GetReservation(ctx, in.ReservationID)
	if err != nil {
		return domain.SettlementBreakdown{}, err
	}

	channelID := r.ChannelID
	pinned := in.Pinned
	if in.ChannelChanged {
		channelID = in.NewChannelID
		if !sameChannel(r.ChannelID, in.NewChannelID) {
			pinned = domain.PinnedFields{}
		}
	}

	var channel *domain.Channel
	if channelID != nil {
		ch, err := s.channels.GetChannel(ctx, *channelID)
		if err != nil {
			return domain.SettlementBreakdown{}, err
		}
		channel = &ch
	}

	total := r.Settlement.Total
	if in.NewTotal != nil {
		total = *in.NewTotal
	}

	b := engine.Settle(total, channel, r.Settlement, pinned)
	if err := s.reservations.UpdateSettlement(ctx, r.ID, channelID, b); err != nil {
		return domain.SettlementBreakdown{}, err
	}
	return b, nil
}

func sameChannel(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func outcomeLabel(err error) string {
	switch {
	case domain.IsAvailabilityConflict(err) != nil:
		return "conflict"
	case domain.IsIdentityConflict(err):
		return "identity_conflict"
	case domain.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
