package model

// Operation is one entry of an upload batch: RemoveAll or Create.
type Operation interface {
	operation()
}

// RemoveAll clears the current membership of the target user list.
type RemoveAll struct{}

// Create adds one identity record to the target user list.
type Create struct {
	Record IdentityRecord
}

func (RemoveAll) operation() {}
func (Create) operation()    {}

// Batch is an ordered list of operations sent to an upload job in one call.
type Batch []Operation

// BuildBatch places a single RemoveAll first when replace is set, followed
// by one Create per record in input order.
func BuildBatch(replace bool, records []IdentityRecord) Batch {
	n := len(records)
	if replace {
		n++
	}
	b := make(Batch, 0, n)
	if replace {
		b = append(b, RemoveAll{})
	}
	for _, r := range records {
		b = append(b, Create{Record: r})
	}
	return b
}

// Replaces reports whether the batch clears existing membership.
func (b Batch) Replaces() bool {
	if len(b) == 0 {
		return false
	}
	_, ok := b[0].(RemoveAll)
	return ok
}
