package googleads

import "fmt"

// PartialFailure describes the operations of an accepted call that the
// platform rejected individually.
type PartialFailure struct {
	Code     int
	Message  string
	Failures []Failure
}

// OperationError is one rejected operation.
type OperationError struct {
	// Index is the position in the submitted batch, or -1 when the platform
	// did not report one.
	Index   int
	Message string
	Code    string
	Path    string
}

func newPartialFailure(st *status) (PartialFailure, error) {
	if st == nil || st.Code == 0 {
		return PartialFailure{}, nil
	}
	fs, err := failures(st.Details)
	if err != nil {
		return PartialFailure{}, fmt.Errorf("%w: partial failure details: %w", ErrDecode, err)
	}
	return PartialFailure{Code: st.Code, Message: st.Message, Failures: fs}, nil
}

// Failed reports whether any operation was rejected.
func (p PartialFailure) Failed() bool { return p.Code != 0 }

// Errors flattens every failure detail into per-operation errors.
func (p PartialFailure) Errors() []OperationError {
	var out []OperationError
	for _, f := range p.Failures {
		for _, e := range f.Errors {
			idx := -1
			if e.Location != nil && len(e.Location.FieldPathElements) > 0 && e.Location.FieldPathElements[0].Index != nil {
				idx = *e.Location.FieldPathElements[0].Index
			}
			out = append(out, OperationError{
				Index:   idx,
				Message: e.Message,
				Code:    e.ErrorCode.String(),
				Path:    e.FieldPath(),
			})
		}
	}
	return out
}
