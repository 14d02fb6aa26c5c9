package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"rental_booking/internal/domain"
)

// IdentityResolver finds or creates the canonical person record for a guest.
// It never guesses: ambiguous or contradictory matches fail with an
// IdentityConflict rather than silently merging unrelated people.
type IdentityResolver struct {
	persons domain.PersonRepository
}

func NewIdentityResolver(r domain.PersonRepository) *IdentityResolver {
	return &IdentityResolver{persons: r}
}

// ResolveOrCreate runs three independent searches (email, phone, exact name)
// inside the tenant scope. One distinct person found means the candidate must
// be fully compatible with it; more than one is a conflict; none means a new
// person is created with contact rows for any supplied email/phone.
func (ir *IdentityResolver) ResolveOrCreate(ctx context.Context, cand domain.GuestCandidate) (domain.Person, error) {
	cand.FirstName = strings.TrimSpace(cand.FirstName)
	cand.LastName = strings.TrimSpace(cand.LastName)
	cand.Email = strings.TrimSpace(cand.Email)
	cand.Phone = strings.TrimSpace(cand.Phone)
	if cand.FirstName == "" || cand.LastName == "" {
		return domain.Person{}, domain.Validationf("guest first and last name are required")
	}

	ids := map[string]struct{}{}
	if cand.Email != "" {
		found, err := ir.persons.FindIDsByEmail(ctx, cand.TenantID, cand.Email)
		if err != nil {
			return domain.Person{}, err
		}
		for _, id := range found {
			ids[id] = struct{}{}
		}
	}
	if cand.Phone != "" {
		found, err := ir.persons.FindIDsByPhone(ctx, cand.TenantID, cand.Phone)
		if err != nil {
			return domain.Person{}, err
		}
		for _, id := range found {
			ids[id] = struct{}{}
		}
	}
	found, err := ir.persons.FindIDsByName(ctx, cand.TenantID, cand.FirstName, cand.LastName)
	if err != nil {
		return domain.Person{}, err
	}
	for _, id := range found {
		ids[id] = struct{}{}
	}

	if len(ids) > 1 {
		return domain.Person{}, &domain.IdentityConflict{Reason: "the details match more than one existing guest"}
	}

	if len(ids) == 1 {
		var id string
		for k := range ids {
			id = k
		}
		p, err := ir.persons.GetPerson(ctx, id)
		if err != nil {
			return domain.Person{}, err
		}
		if err := checkCompatible(cand, p); err != nil {
			return domain.Person{}, err
		}
		return p, nil
	}

	return ir.create(ctx, cand)
}

// checkCompatible applies the strict merge rules: the name must match, and a
// contact value present on both sides must be equal. A value absent on either
// side is compatible.
func checkCompatible(cand domain.GuestCandidate, p domain.Person) error {
	if !strings.EqualFold(cand.FirstName, p.FirstName) || !strings.EqualFold(cand.LastName, p.LastName) {
		return &domain.IdentityConflict{Reason: "the name given differs from the guest on file"}
	}
	if cand.Email != "" && p.Email != "" && !strings.EqualFold(cand.Email, p.Email) {
		return &domain.IdentityConflict{Reason: "the email given differs from the guest on file"}
	}
	if cand.Phone != "" && p.Phone != "" && cand.Phone != p.Phone {
		return &domain.IdentityConflict{Reason: "the phone number given differs from the guest on file"}
	}
	return nil
}

func (ir *IdentityResolver) create(ctx context.Context, cand domain.GuestCandidate) (domain.Person, error) {
	p := domain.Person{
		ID:        uuid.NewString(),
		TenantID:  cand.TenantID,
		FirstName: cand.FirstName,
		LastName:  cand.LastName,
		Email:     cand.Email,
		Phone:     cand.Phone,
	}

	var contacts []domain.Contact
	if cand.Email != "" {
		contacts = append(contacts, domain.Contact{PersonID: p.ID, Kind: domain.ContactEmail, Value: cand.Email, Primary: true})
	}
	if cand.Phone != "" {
		contacts = append(contacts, domain.Contact{PersonID: p.ID, Kind: domain.ContactPhone, Value: cand.Phone, Primary: len(contacts) == 0})
	}

	if err := ir.persons.CreatePerson(ctx, p, contacts); err != nil {
		return domain.Person{}, err
	}
	return p, nil
}
