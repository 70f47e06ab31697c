package googleads

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel kinds for ads client errors.
var (
	ErrTransport   = errors.New("ads transport failed")
	ErrDecode      = errors.New("ads response decode failed")
	ErrCredentials = errors.New("ads credentials invalid")
	ErrEmptyResult = errors.New("ads response carried no result")
)

// APIError is a failed call as reported by the ads platform.
type APIError struct {
	// HTTPStatus is the transport status code.
	HTTPStatus int
	// Status is the canonical code name, e.g. INVALID_ARGUMENT.
	Status    string
	Message   string
	RequestID string
	Errors    []FailureError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request with ID %q failed with status %q: %s", e.RequestID, e.Status, e.Message)
}

// FailureError is one entry of a GoogleAdsFailure.
type FailureError struct {
	ErrorCode ErrorCode `json:"errorCode"`
	Message   string    `json:"message"`
	Location  *Location `json:"location,omitempty"`
}

// ErrorCode is a oneof of platform error enums, keyed by the enum family,
// e.g. {"fieldError": "REQUIRED"}.
type ErrorCode map[string]string

func (c ErrorCode) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+c[k])
	}
	return strings.Join(parts, ", ")
}

// Location points at the offending field of a request.
type Location struct {
	FieldPathElements []FieldPathElement `json:"fieldPathElements"`
}

// FieldPathElement is one hop of a field path. Index is set for repeated fields.
type FieldPathElement struct {
	FieldName string `json:"fieldName"`
	Index     *int   `json:"index,omitempty"`
}

// FieldPath renders the location as operations[1].create.
func (e FailureError) FieldPath() string {
	if e.Location == nil {
		return ""
	}
	var b strings.Builder
	for i, el := range e.Location.FieldPathElements {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(el.FieldName)
		if el.Index != nil {
			fmt.Fprintf(&b, "[%d]", *el.Index)
		}
	}
	return b.String()
}

// canonicalStatus maps an HTTP status onto a gRPC code name for responses
// whose body could not be decoded.
func canonicalStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "PERMISSION_DENIED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "ABORTED"
	case http.StatusTooManyRequests:
		return "RESOURCE_EXHAUSTED"
	case http.StatusNotImplemented:
		return "UNIMPLEMENTED"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	case http.StatusGatewayTimeout:
		return "DEADLINE_EXCEEDED"
	case http.StatusInternalServerError:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}
