package mysql

const getPropertySQL = `
SELECT id, tenant_id, name, min_nights, guest_threshold
FROM properties
WHERE id = ?
`

// Base first, then seasonal periods in their stored list order. First match
// wins during resolution, so the order here is load-bearing.
const listRatePeriodsSQL = `
SELECT id, property_id, kind, name, season_start, season_end,
       nightly, weekend, weekly, fortnightly, monthly, extra_guest, min_nights
FROM rate_periods
WHERE property_id = ?
ORDER BY (kind = 'base') DESC, position, id
`

// Half-open overlap pushed into SQL: stored check_in < requested check_out
// AND stored check_out > requested check_in. Touching boundaries fall out.
const listOverlappingSQL = `
SELECT id, property_id, person_id, channel_id, check_in, check_out, guests, status,
       total, sales_commission, collection_commission, tax, net, created_at
FROM reservations
WHERE property_id = ?
  AND status <> 'cancelled'
  AND check_in < ?
  AND check_out > ?
  AND (? = 0 OR id <> ?)
ORDER BY check_in, id
`

const getReservationSQL = `
SELECT id, property_id, person_id, channel_id, check_in, check_out, guests, status,
       total, sales_commission, collection_commission, tax, net, created_at
FROM reservations
WHERE id = ?
`

const insertReservationSQL = `
INSERT INTO reservations
  (property_id, person_id, channel_id, check_in, check_out, guests, status,
   total, sales_commission, collection_commission, tax, net)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateSettlementSQL = `
UPDATE reservations
SET channel_id           = ?,
    total                = ?,
    sales_commission     = ?,
    collection_commission = ?,
    tax                  = ?,
    net                  = ?,
    updated_at           = CURRENT_TIMESTAMP
WHERE id = ?
`

const getChannelSQL = `
SELECT id, name, sales_pct, collection_pct, applies_tax, tax_pct
FROM channels
WHERE id = ?
`

const findIDsByContactSQL = `
SELECT p.id
FROM persons p
JOIN person_contacts c ON c.person_id = p.id
WHERE p.tenant_id = ? AND c.kind = ? AND c.value = ?
`

const findIDsByNameSQL = `
SELECT id
FROM persons
WHERE tenant_id = ? AND first_name = ? AND last_name = ?
`

const getPersonSQL = `
SELECT id, tenant_id, first_name, last_name
FROM persons
WHERE id = ?
`

// Primary contacts first so GetPerson surfaces the canonical value per kind.
const listContactsSQL = `
SELECT kind, value
FROM person_contacts
WHERE person_id = ?
ORDER BY is_primary DESC, id
`

const insertPersonSQL = `
INSERT INTO persons (id, tenant_id, first_name, last_name)
VALUES (?, ?, ?, ?)
`

const insertContactSQL = `
INSERT INTO person_contacts (person_id, kind, value, is_primary)
VALUES (?, ?, ?, ?)
`
