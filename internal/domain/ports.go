package domain

import (
	"context"
	"time"
)

type PropertyRepository interface {
	GetProperty(ctx context.Context, id int64) (Property, error)
}

type RatePeriodRepository interface {
	// ListRatePeriods returns a property's periods in stored list order
	// (base first, then seasonal periods by position).
	ListRatePeriods(ctx context.Context, propertyID int64) ([]RatePeriod, error)
}

type ReservationRepository interface {
	// ListOverlapping returns non-cancelled reservations whose stored range
	// half-open-overlaps [checkIn, checkOut), excluding excludeID when > 0.
	ListOverlapping(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, excludeID int64) ([]Reservation, error)
	GetReservation(ctx context.Context, id int64) (Reservation, error)
	InsertReservation(ctx context.Context, r Reservation) (int64, error)
	UpdateSettlement(ctx context.Context, id int64, channelID *int64, b SettlementBreakdown) error

	// WithPropertyLock serializes check-then-insert across processes for a
	// single property; fn runs while the lock is held.
	WithPropertyLock(ctx context.Context, propertyID int64, fn func(ctx context.Context) error) error
}

type PersonRepository interface {
	// Search paths return person IDs only; matching rules live in the engine.
	FindIDsByEmail(ctx context.Context, tenantID int64, email string) ([]string, error)
	FindIDsByPhone(ctx context.Context, tenantID int64, phone string) ([]string, error)
	FindIDsByName(ctx context.Context, tenantID int64, first, last string) ([]string, error)

	GetPerson(ctx context.Context, id string) (Person, error)
	CreatePerson(ctx context.Context, p Person, contacts []Contact) error
}

type ChannelRepository interface {
	GetChannel(ctx context.Context, id int64) (Channel, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
