package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rental_booking/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func (r *Repo) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	row := r.db.QueryRowContext(ctx, getPropertySQL, id)
	var p domain.Property
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.MinNights, &p.GuestThreshold); err != nil {
		if err == sql.ErrNoRows {
			return domain.Property{}, domain.ErrNotFound
		}
		return domain.Property{}, err
	}
	return p, nil
}

func (r *Repo) ListRatePeriods(ctx context.Context, propertyID int64) ([]domain.RatePeriod, error) {
	rows, err := r.db.QueryContext(ctx, listRatePeriodsSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RatePeriod
	for rows.Next() {
		var p domain.RatePeriod
		var kind string
		var start, end sql.NullTime
		if err := rows.Scan(
			&p.ID, &p.PropertyID, &kind, &p.Name, &start, &end,
			&p.Nightly, &p.Weekend, &p.Weekly, &p.Fortnightly, &p.Monthly,
			&p.ExtraGuest, &p.MinNights,
		); err != nil {
			return nil, err
		}
		p.Kind = domain.PeriodKind(kind)
		if start.Valid {
			p.SeasonStart = start.Time
		}
		if end.Valid {
			p.SeasonEnd = end.Time
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanReservation(scan func(dest ...any) error) (domain.Reservation, error) {
	var rv domain.Reservation
	var channelID sql.NullInt64
	var status string
	var createdAt sql.NullTime
	if err := scan(
		&rv.ID, &rv.PropertyID, &rv.PersonID, &channelID,
		&rv.CheckIn, &rv.CheckOut, &rv.Guests, &status,
		&rv.Settlement.Total, &rv.Settlement.SalesCommission,
		&rv.Settlement.CollectionCommission, &rv.Settlement.Tax, &rv.Settlement.Net,
		&createdAt,
	); err != nil {
		return domain.Reservation{}, err
	}
	rv.Status = domain.ReservationStatus(status)
	if channelID.Valid {
		id := channelID.Int64
		rv.ChannelID = &id
	}
	if createdAt.Valid {
		rv.CreatedAt = createdAt.Time
	}
	return rv, nil
}

func (r *Repo) ListOverlapping(ctx context.Context, propertyID int64, checkIn, checkOut time.Time, excludeID int64) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, listOverlappingSQL,
		propertyID, domain.DateOnly(checkOut), domain.DateOnly(checkIn), excludeID, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rv, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	rv, err := scanReservation(r.db.QueryRowContext(ctx, getReservationSQL, id).Scan)
	if err == sql.ErrNoRows {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return rv, err
}

func (r *Repo) InsertReservation(ctx context.Context, rv domain.Reservation) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertReservationSQL,
		rv.PropertyID,
		rv.PersonID,
		valInt64(rv.ChannelID),
		domain.DateOnly(rv.CheckIn),
		domain.DateOnly(rv.CheckOut),
		rv.Guests,
		string(rv.Status),
		rv.Settlement.Total,
		rv.Settlement.SalesCommission,
		rv.Settlement.CollectionCommission,
		rv.Settlement.Tax,
		rv.Settlement.Net,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateSettlement(ctx context.Context, id int64, channelID *int64, b domain.SettlementBreakdown) error {
	res, err := r.db.ExecContext(ctx, updateSettlementSQL,
		valInt64(channelID), b.Total, b.SalesCommission, b.CollectionCommission, b.Tax, b.Net, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// WithPropertyLock takes a named advisory lock on a dedicated connection so
// check-then-insert serializes across API instances; GET_LOCK is
// per-connection, hence the pinned conn.
func (r *Repo) WithPropertyLock(ctx context.Context, propertyID int64, fn func(ctx context.Context) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	name := fmt.Sprintf("booking:%d", propertyID)
	var got int
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 10)", name).Scan(&got); err != nil {
		return err
	}
	if got != 1 {
		return fmt.Errorf("mysql: could not acquire booking lock for property %d", propertyID)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, "DO RELEASE_LOCK(?)", name)
	}()

	return fn(ctx)
}

func (r *Repo) GetChannel(ctx context.Context, id int64) (domain.Channel, error) {
	row := r.db.QueryRowContext(ctx, getChannelSQL, id)
	var ch domain.Channel
	if err := row.Scan(&ch.ID, &ch.Name, &ch.SalesPct, &ch.CollectionPct, &ch.AppliesTax, &ch.TaxPct); err != nil {
		if err == sql.ErrNoRows {
			return domain.Channel{}, domain.ErrNotFound
		}
		return domain.Channel{}, err
	}
	return ch, nil
}

func (r *Repo) FindIDsByEmail(ctx context.Context, tenantID int64, email string) ([]string, error) {
	return r.findIDs(ctx, findIDsByContactSQL, tenantID, string(domain.ContactEmail), email)
}

func (r *Repo) FindIDsByPhone(ctx context.Context, tenantID int64, phone string) ([]string, error) {
	return r.findIDs(ctx, findIDsByContactSQL, tenantID, string(domain.ContactPhone), phone)
}

func (r *Repo) FindIDsByName(ctx context.Context, tenantID int64, first, last string) ([]string, error) {
	return r.findIDs(ctx, findIDsByNameSQL, tenantID, first, last)
}

func (r *Repo) findIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) GetPerson(ctx context.Context, id string) (domain.Person, error) {
	row := r.db.QueryRowContext(ctx, getPersonSQL, id)
	var p domain.Person
	if err := row.Scan(&p.ID, &p.TenantID, &p.FirstName, &p.LastName); err != nil {
		if err == sql.ErrNoRows {
			return domain.Person{}, domain.ErrNotFound
		}
		return domain.Person{}, err
	}

	rows, err := r.db.QueryContext(ctx, listContactsSQL, id)
	if err != nil {
		return domain.Person{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return domain.Person{}, err
		}
		// primary rows come first, so only the first value per kind sticks
		switch domain.ContactKind(kind) {
		case domain.ContactEmail:
			if p.Email == "" {
				p.Email = value
			}
		case domain.ContactPhone:
			if p.Phone == "" {
				p.Phone = value
			}
		}
	}
	return p, rows.Err()
}

func (r *Repo) CreatePerson(ctx context.Context, p domain.Person, contacts []domain.Contact) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertPersonSQL, p.ID, p.TenantID, p.FirstName, p.LastName); err != nil {
		return err
	}
	for _, c := range contacts {
		if _, err := tx.ExecContext(ctx, insertContactSQL, c.PersonID, string(c.Kind), c.Value, c.Primary); err != nil {
			return err
		}
	}
	return tx.Commit()
}
