package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"rental_booking/internal/app"
	"rental_booking/internal/domain"
	"rental_booking/internal/engine"
)

// ---- fakes ----

type fakeProps struct{ p domain.Property }

func (f *fakeProps) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	if id != f.p.ID {
		return domain.Property{}, domain.ErrNotFound
	}
	return f.p, nil
}

type fakeRates struct{ periods []domain.RatePeriod }

func (f *fakeRates) ListRatePeriods(ctx context.Context, propertyID int64) ([]domain.RatePeriod, error) {
	return f.periods, nil
}

type fakeReservations struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.Reservation
}

func (f *fakeReservations) ListOverlapping(ctx context.Context, propertyID int64, in, out time.Time, excludeID int64) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var hits []domain.Reservation
	for _, r := range f.rows {
		if r.PropertyID != propertyID || r.Status == domain.StatusCancelled {
			continue
		}
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		if r.Overlaps(in, out) {
			hits = append(hits, r)
		}
	}
	return hits, nil
}

func (f *fakeReservations) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}

func (f *fakeReservations) InsertReservation(ctx context.Context, r domain.Reservation) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	f.rows = append(f.rows, r)
	return r.ID, nil
}

func (f *fakeReservations) UpdateSettlement(ctx context.Context, id int64, channelID *int64, b domain.SettlementBreakdown) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].ChannelID = channelID
			f.rows[i].Settlement = b
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeReservations) WithPropertyLock(ctx context.Context, propertyID int64, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeChannels struct{ chans map[int64]domain.Channel }

func (f *fakeChannels) GetChannel(ctx context.Context, id int64) (domain.Channel, error) {
	ch, ok := f.chans[id]
	if !ok {
		return domain.Channel{}, domain.ErrNotFound
	}
	return ch, nil
}

type fakePersons struct {
	mu      sync.Mutex
	people  map[string]domain.Person
	byEmail map[string][]string
	byName  map[string][]string
}

func newFakePersons() *fakePersons {
	return &fakePersons{people: map[string]domain.Person{}, byEmail: map[string][]string{}, byName: map[string][]string{}}
}

func (f *fakePersons) FindIDsByEmail(ctx context.Context, tenantID int64, email string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byEmail[email], nil
}
func (f *fakePersons) FindIDsByPhone(ctx context.Context, tenantID int64, phone string) ([]string, error) {
	return nil, nil
}
func (f *fakePersons) FindIDsByName(ctx context.Context, tenantID int64, first, last string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byName[first+"|"+last], nil
}
func (f *fakePersons) GetPerson(ctx context.Context, id string) (domain.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return domain.Person{}, domain.ErrNotFound
	}
	return p, nil
}
func (f *fakePersons) CreatePerson(ctx context.Context, p domain.Person, cs []domain.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.people[p.ID] = p
	if p.Email != "" {
		f.byEmail[p.Email] = append(f.byEmail[p.Email], p.ID)
	}
	f.byName[p.FirstName+"|"+p.LastName] = append(f.byName[p.FirstName+"|"+p.LastName], p.ID)
	return nil
}

// ---- helpers ----

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func newService(prop domain.Property, periods []domain.RatePeriod, chans map[int64]domain.Channel) (*app.BookingService, *fakeReservations) {
	res := &fakeReservations{}
	svc := app.NewBookingService(
		&fakeProps{p: prop},
		&fakeRates{periods: periods},
		res,
		&fakeChannels{chans: chans},
		engine.NewIdentityResolver(newFakePersons()),
	)
	return svc, res
}

var testProperty = domain.Property{ID: 1, TenantID: 9, Name: "Casa do Mar", MinNights: 1, GuestThreshold: 4}

func basePeriods(nightly float64) []domain.RatePeriod {
	return []domain.RatePeriod{{Kind: domain.PeriodBase, Name: "base", Nightly: nightly}}
}

func ch(id int64) *int64 { return &id }

// ---- tests ----

func TestCreateBooking_HappyPath(t *testing.T) {
	svc, res := newService(testProperty, basePeriods(100), map[int64]domain.Channel{
		2: {ID: 2, Name: "portal", SalesPct: 10, AppliesTax: true, TaxPct: 6},
	})

	out, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		PropertyID: 1,
		CheckIn:    day("2024-07-01"),
		CheckOut:   day("2024-07-04"),
		Guests:     2,
		ChannelID:  ch(2),
		Guest:      domain.GuestCandidate{FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if out.Pricing.Total != 300 {
		t.Fatalf("total: want 300 got %v", out.Pricing.Total)
	}
	if out.Settlement.SalesCommission != 30 || out.Settlement.Tax != 18 || out.Settlement.Net != 252 {
		t.Fatalf("settlement: %+v", out.Settlement)
	}
	if out.Guest.TenantID != 9 {
		t.Fatalf("guest must be scoped to the property's tenant: %+v", out.Guest)
	}
	if len(res.rows) != 1 || res.rows[0].Status != domain.StatusConfirmed {
		t.Fatalf("reservation not persisted: %+v", res.rows)
	}
}

func TestCreateBooking_ConflictRejected(t *testing.T) {
	svc, res := newService(testProperty, basePeriods(100), nil)
	res.rows = append(res.rows, domain.Reservation{
		ID: 1, PropertyID: 1, CheckIn: day("2024-07-02"), CheckOut: day("2024-07-06"), Status: domain.StatusConfirmed,
	})
	res.nextID = 1

	_, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		PropertyID: 1,
		CheckIn:    day("2024-07-01"),
		CheckOut:   day("2024-07-04"),
		Guests:     2,
		Guest:      domain.GuestCandidate{FirstName: "Ana", LastName: "Silva"},
	})
	if domain.IsAvailabilityConflict(err) == nil {
		t.Fatalf("want availability conflict, got %v", err)
	}
	if len(res.rows) != 1 {
		t.Fatalf("conflicting booking must not be inserted")
	}
}

func TestCreateBooking_ServerPriceWins(t *testing.T) {
	svc, res := newService(testProperty, basePeriods(100), nil)

	out, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		PropertyID:  1,
		CheckIn:     day("2024-07-01"),
		CheckOut:    day("2024-07-04"),
		Guests:      2,
		Guest:       domain.GuestCandidate{FirstName: "Ana", LastName: "Silva"},
		ClientTotal: 1, // tampered
	})
	if err != nil {
		t.Fatalf("divergent client total is not a failure: %v", err)
	}
	if out.Pricing.Total != 300 || res.rows[0].Settlement.Total != 300 {
		t.Fatalf("server total must win: %+v", out.Pricing)
	}
}

func TestCreateBooking_IdentityConflictAborts(t *testing.T) {
	persons := newFakePersons()
	_ = persons.CreatePerson(context.Background(), domain.Person{ID: "a", FirstName: "Ana", LastName: "Silva", Email: "ana@example.com"}, nil)
	_ = persons.CreatePerson(context.Background(), domain.Person{ID: "b", FirstName: "Rui", LastName: "Gomes", Email: "rui@example.com"}, nil)

	res := &fakeReservations{}
	svc := app.NewBookingService(
		&fakeProps{p: testProperty},
		&fakeRates{periods: basePeriods(100)},
		res,
		&fakeChannels{},
		engine.NewIdentityResolver(persons),
	)

	// Name matches one person, email matches another.
	_, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		PropertyID: 1,
		CheckIn:    day("2024-07-01"),
		CheckOut:   day("2024-07-04"),
		Guests:     2,
		Guest:      domain.GuestCandidate{FirstName: "Ana", LastName: "Silva", Email: "rui@example.com"},
	})
	if !domain.IsIdentityConflict(err) {
		t.Fatalf("want identity conflict, got %v", err)
	}
	if len(res.rows) != 0 {
		t.Fatalf("no reservation may be written on identity conflict")
	}
}

func TestCreateBooking_ConcurrentOverlapSerialized(t *testing.T) {
	svc, res := newService(testProperty, basePeriods(100), nil)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), app.CreateBookingInput{
				PropertyID: 1,
				CheckIn:    day("2024-08-01"),
				CheckOut:   day("2024-08-05"),
				Guests:     2,
				Guest:      domain.GuestCandidate{FirstName: "Ana", LastName: "Silva"},
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else if domain.IsAvailabilityConflict(err) == nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("exactly one concurrent booking may win, got %d", won)
	}
	if len(res.rows) != 1 {
		t.Fatalf("double-booking persisted: %d rows", len(res.rows))
	}
}

func TestRecalculateSettlement_PinnedTaxHolds(t *testing.T) {
	svc, res := newService(testProperty, basePeriods(100), map[int64]domain.Channel{
		2: {ID: 2, SalesPct: 10, AppliesTax: true, TaxPct: 8},
	})
	res.rows = append(res.rows, domain.Reservation{
		ID: 1, PropertyID: 1, ChannelID: ch(2), Status: domain.StatusConfirmed,
		Settlement: domain.SettlementBreakdown{Total: 1000, SalesCommission: 100, Tax: 42, Net: 858},
	})
	res.nextID = 1

	newTotal := 2000.0
	b, err := svc.RecalculateSettlement(context.Background(), app.RecalculateInput{
		ReservationID: 1,
		NewTotal:      &newTotal,
		Pinned:        domain.PinnedFields{Tax: true},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b.Tax != 42 {
		t.Fatalf("pinned tax must hold: %+v", b)
	}
	if b.SalesCommission != 200 || b.Net != 2000-200-42 {
		t.Fatalf("non-pinned fields must recompute: %+v", b)
	}
	if res.rows[0].Settlement.Tax != 42 {
		t.Fatalf("updated settlement not persisted: %+v", res.rows[0].Settlement)
	}
}

func TestRecalculateSettlement_ChannelSwitchDropsPins(t *testing.T) {
	svc, res := newService(testProperty, basePeriods(100), map[int64]domain.Channel{
		2: {ID: 2, SalesPct: 10, AppliesTax: true, TaxPct: 8},
		3: {ID: 3, SalesPct: 20},
	})
	res.rows = append(res.rows, domain.Reservation{
		ID: 1, PropertyID: 1, ChannelID: ch(2), Status: domain.StatusConfirmed,
		Settlement: domain.SettlementBreakdown{Total: 1000, SalesCommission: 100, Tax: 42, Net: 858},
	})
	res.nextID = 1

	b, err := svc.RecalculateSettlement(context.Background(), app.RecalculateInput{
		ReservationID:  1,
		ChannelChanged: true,
		NewChannelID:   ch(3),
		Pinned:         domain.PinnedFields{Tax: true}, // must be reset by the switch
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if b.Tax != 0 {
		t.Fatalf("pins must be dropped on channel switch: %+v", b)
	}
	if b.SalesCommission != 200 || b.Net != 800 {
		t.Fatalf("new channel's percentages must apply: %+v", b)
	}
	if res.rows[0].ChannelID == nil || *res.rows[0].ChannelID != 3 {
		t.Fatalf("channel change not persisted: %+v", res.rows[0])
	}
}
