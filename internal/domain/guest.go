package domain

type ContactKind string

const (
	ContactEmail ContactKind = "email"
	ContactPhone ContactKind = "phone"
)

type Contact struct {
	PersonID string
	Kind     ContactKind
	Value    string
	Primary  bool
}

// Person is a canonical guest record with its full contact set loaded.
type Person struct {
	ID        string
	TenantID  int64
	FirstName string
	LastName  string
	Email     string // empty when no email contact exists
	Phone     string
}

// GuestCandidate is untrusted input from a booking submission.
type GuestCandidate struct {
	TenantID  int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
}
