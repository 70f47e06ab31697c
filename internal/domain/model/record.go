// Package model contains domain models passed between layers.
package model

// RawRecord is one CSV row keyed by header. A column that is absent from the
// map was not present in the row; an empty string is a present, empty cell.
type RawRecord map[string]string

// Get returns the value of column key and whether the column was present.
func (r RawRecord) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// Identifier is one hashed user identifier. Exactly one of the concrete
// variants below implements it.
type Identifier interface {
	// Kind names the variant for logs and metrics.
	Kind() string
	identifier()
}

// Identifier kinds.
const (
	KindEmail   = "email"
	KindPhone   = "phone"
	KindAddress = "address"
)

// HashedEmail is the hex SHA-256 of a normalized email address.
type HashedEmail struct {
	Hash string
}

// HashedPhone is the hex SHA-256 of a normalized phone number.
type HashedPhone struct {
	Hash string
}

// Address is a mailing address with hashed names. Country and postal code
// are sent in the clear.
type Address struct {
	HashedFirstName string
	HashedLastName  string
	CountryCode     string
	PostalCode      string
}

func (HashedEmail) Kind() string { return KindEmail }
func (HashedPhone) Kind() string { return KindPhone }
func (Address) Kind() string     { return KindAddress }

func (HashedEmail) identifier() {}
func (HashedPhone) identifier() {}
func (Address) identifier()     {}

// IdentityRecord holds every identifier derived from one row.
type IdentityRecord struct {
	Identifiers []Identifier
}

// Empty reports whether no identifier was derived.
func (r IdentityRecord) Empty() bool { return len(r.Identifiers) == 0 }
