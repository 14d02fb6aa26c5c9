package app

import (
	"context"
	"fmt"
	"time"

	"rental_booking/internal/domain"
	"rental_booking/internal/engine"
)

// QuoteService prices stays for the public quote endpoint. Property policy
// and channel config are read-mostly reference data and go through the cache;
// rate periods are fetched fresh on every call so a quote always reflects
// the current rate table, and the pricing result itself is never cached.
type QuoteService struct {
	props    domain.PropertyRepository
	rates    domain.RatePeriodRepository
	channels domain.ChannelRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQuoteService(props domain.PropertyRepository, rates domain.RatePeriodRepository, channels domain.ChannelRepository, c domain.Cache, ttl time.Duration) *QuoteService {
	return &QuoteService{props: props, rates: rates, channels: channels, cache: c, cacheTTL: ttl}
}

type Quote struct {
	Pricing  domain.PricingResult
	Warnings []string // rate-plan data-quality warnings, operator-facing
}

func (s *QuoteService) Quote(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, guests int) (Quote, error) {
	prop, err := s.property(ctx, propertyID)
	if err != nil {
		return Quote{}, err
	}
	periods, err := s.rates.ListRatePeriods(ctx, propertyID)
	if err != nil {
		return Quote{}, err
	}
	pricing, err := engine.ResolvePricing(domain.StayRequest{
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Guests:         guests,
		GuestThreshold: prop.GuestThreshold,
	}, periods, 0)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Pricing: pricing, Warnings: engine.ValidateRatePlan(periods)}, nil
}

func (s *QuoteService) property(ctx context.Context, id int64) (domain.Property, error) {
	key := fmt.Sprintf("property:%d", id)
	var p domain.Property
	if ok, _ := s.cache.Get(ctx, key, &p); ok {
		return p, nil
	}
	p, err := s.props.GetProperty(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	_ = s.cache.Set(ctx, key, p, int(s.cacheTTL.Seconds()))
	return p, nil
}

// GetChannel is a cache-aside view over the channel repository, so
// QuoteService can stand in as the ChannelRepository for the booking flow.
func (s *QuoteService) GetChannel(ctx context.Context, id int64) (domain.Channel, error) {
	key := fmt.Sprintf("channel:%d", id)
	var ch domain.Channel
	if ok, _ := s.cache.Get(ctx, key, &ch); ok {
		return ch, nil
	}
	ch, err := s.channels.GetChannel(ctx, id)
	if err != nil {
		return domain.Channel{}, err
	}
	_ = s.cache.Set(ctx, key, ch, int(s.cacheTTL.Seconds()))
	return ch, nil
}

// GetProperty satisfies domain.PropertyRepository with the cached read.
func (s *QuoteService) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	return s.property(ctx, id)
}
