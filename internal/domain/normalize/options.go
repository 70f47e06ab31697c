package normalize

import "github.com/okian/customermatch/pkg/logger"

// Columns names the CSV headers read by the Normalizer.
type Columns struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Country   string
	Zip       string
}

// DefaultColumns returns the headers of the standard contact export.
func DefaultColumns() Columns {
	return Columns{
		Email:     "Email",
		Phone:     "Phone",
		FirstName: "First name",
		LastName:  "Last name",
		Country:   "Country",
		Zip:       "Zip",
	}
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithColumns overrides the header names. Empty fields keep their default.
func WithColumns(c Columns) Option {
	return func(n *Normalizer) {
		set := func(dst *string, v string) {
			if v != "" {
				*dst = v
			}
		}
		set(&n.cols.Email, c.Email)
		set(&n.cols.Phone, c.Phone)
		set(&n.cols.FirstName, c.FirstName)
		set(&n.cols.LastName, c.LastName)
		set(&n.cols.Country, c.Country)
		set(&n.cols.Zip, c.Zip)
	}
}

// WithLogger sets the logger used to report skipped addresses.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}
