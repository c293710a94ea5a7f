package httpclient

import (
	"errors"
	"fmt"
)

// FailureKind classifies request failures.
type FailureKind int

const (
	// KindConnection is a transport-level fault: DNS, refusal, TLS
	// handshake, or an interrupted body.
	KindConnection FailureKind = iota
	// KindUnauthorized is an HTTP 401 response.
	KindUnauthorized
	// KindForbidden is an HTTP 403 response.
	KindForbidden
	// KindInternalServer is an HTTP 500 response.
	KindInternalServer
	// KindDeserialization means a successful response body could not be
	// decoded into the expected type.
	KindDeserialization
	// KindRejected is any other non-2xx response. It is never returned by
	// Validate; callers build it on demand from a rejected outcome.
	KindRejected
)

// String returns the kind name.
func (k FailureKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInternalServer:
		return "internal_server"
	case KindDeserialization:
		return "deserialization"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Failure is a classified request failure. It is not modified after
// construction.
type Failure struct {
	// Kind classifies the failure.
	Kind FailureKind
	// URL is the requested URL.
	URL string
	// StatusCode is the HTTP status code (0 for connection failures).
	StatusCode int
	// Reason is the HTTP reason phrase, e.g. "Unauthorized".
	Reason string
	// Body is the response body, if any.
	Body []byte
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Failure) Error() string {
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("httpclient: %s (HTTP %d %s) %s: %v", e.Kind, e.StatusCode, e.Reason, e.URL, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("httpclient: %s (HTTP %d %s) %s", e.Kind, e.StatusCode, e.Reason, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("httpclient: %s %s: %v", e.Kind, e.URL, e.Err)
	default:
		return fmt.Sprintf("httpclient: %s %s", e.Kind, e.URL)
	}
}

// Unwrap returns the underlying error.
func (e *Failure) Unwrap() error {
	return e.Err
}

// NewConnectionFailure wraps a transport error.
func NewConnectionFailure(url string, err error) *Failure {
	return &Failure{Kind: KindConnection, URL: url, Err: err}
}

// NewStatusFailure builds a failure of the given kind from a response.
func NewStatusFailure(kind FailureKind, url string, resp *Response) *Failure {
	return &Failure{
		Kind:       kind,
		URL:        url,
		StatusCode: resp.StatusCode,
		Reason:     resp.Reason(),
		Body:       resp.Body,
	}
}

// NewDeserializationFailure wraps a decode error for a successful response.
func NewDeserializationFailure(url string, resp *Response, err error) *Failure {
	f := &Failure{Kind: KindDeserialization, URL: url, Err: err}
	if resp != nil {
		f.StatusCode = resp.StatusCode
		f.Reason = resp.Reason()
	}
	return f
}

// KindOf returns the kind of the first Failure in err's chain.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

func isKind(err error, kind FailureKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsConnection checks if an error is a connection failure.
func IsConnection(err error) bool { return isKind(err, KindConnection) }

// IsUnauthorized checks if an error is a 401 failure.
func IsUnauthorized(err error) bool { return isKind(err, KindUnauthorized) }

// IsForbidden checks if an error is a 403 failure.
func IsForbidden(err error) bool { return isKind(err, KindForbidden) }

// IsInternalServer checks if an error is a 500 failure.
func IsInternalServer(err error) bool { return isKind(err, KindInternalServer) }

// IsDeserialization checks if an error is a decode failure.
func IsDeserialization(err error) bool { return isKind(err, KindDeserialization) }

// IsRejected checks if an error is a rejected-status failure.
func IsRejected(err error) bool { return isKind(err, KindRejected) }
