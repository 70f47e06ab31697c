package normalize

import (
	"context"

	"github.com/okian/customermatch/internal/domain/model"
	"github.com/okian/customermatch/pkg/logger"
	"github.com/okian/customermatch/pkg/metrics"
)

// Normalizer converts raw rows into identity records. It holds no per-row
// state and may be shared.
type Normalizer struct {
	cols Columns
	log  logger.Logger
}

// New creates a Normalizer reading the default columns.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		cols: DefaultColumns(),
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Record builds the identity record for one row. ok is false when the row
// carries no usable identifier; such rows are dropped, not reported.
func (n *Normalizer) Record(ctx context.Context, rec model.RawRecord) (model.IdentityRecord, bool) {
	var out model.IdentityRecord

	// Each identifier is appended on its own; email and phone are never
	// combined into one value.
	if v, ok := rec.Get(n.cols.Email); ok {
		out.Identifiers = append(out.Identifiers, model.HashedEmail{Hash: NormalizeAndHash(v, true)})
	}
	if v, ok := rec.Get(n.cols.Phone); ok {
		out.Identifiers = append(out.Identifiers, model.HashedPhone{Hash: NormalizeAndHash(v, true)})
	}
	if first, ok := rec.Get(n.cols.FirstName); ok {
		if addr, ok := n.address(ctx, rec, first); ok {
			out.Identifiers = append(out.Identifiers, addr)
		}
	}

	if out.Empty() {
		metrics.RecordRowDropped()
		return model.IdentityRecord{}, false
	}
	for _, id := range out.Identifiers {
		metrics.RecordIdentifier(id.Kind())
	}
	return out, true
}

func (n *Normalizer) address(ctx context.Context, rec model.RawRecord, first string) (model.Address, bool) {
	var missing []string
	for _, key := range []string{n.cols.LastName, n.cols.Country, n.cols.Zip} {
		if _, ok := rec[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		metrics.RecordAddressSkipped()
		n.log.Warn(ctx, "skipping mailing address: required keys are missing", logger.Strings("missing_keys", missing))
		return model.Address{}, false
	}
	return model.Address{
		HashedFirstName: NormalizeAndHash(first, false),
		HashedLastName:  NormalizeAndHash(rec[n.cols.LastName], false),
		CountryCode:     rec[n.cols.Country],
		PostalCode:      rec[n.cols.Zip],
	}, true
}

// Records converts rows in order, skipping rows without identifiers.
func (n *Normalizer) Records(ctx context.Context, recs []model.RawRecord) []model.IdentityRecord {
	out := make([]model.IdentityRecord, 0, len(recs))
	for _, rec := range recs {
		if ir, ok := n.Record(ctx, rec); ok {
			out = append(out, ir)
		}
	}
	return out
}
