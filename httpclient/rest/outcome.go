package rest

import "github.com/ISearcher/Rest4WebApi/httpclient"

// OutcomeKind tells apart the two non-failing results of a call.
type OutcomeKind int

const (
	// Success is a 2xx response.
	Success OutcomeKind = iota
	// Rejected is a non-2xx response outside the failure taxonomy.
	Rejected
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Outcome is the result of a verb that completed with a response.
type Outcome struct {
	Kind OutcomeKind
	// URL is the composed request URL.
	URL string
	// Response is the raw response, always set.
	Response *httpclient.Response
}

// OK reports whether the call succeeded.
func (o *Outcome) OK() bool {
	return o != nil && o.Kind == Success
}

// StatusCode returns the response status, or 0 for a nil outcome.
func (o *Outcome) StatusCode() int {
	if o == nil || o.Response == nil {
		return 0
	}
	return o.Response.StatusCode
}

// Err returns nil for a success and a KindRejected failure otherwise.
func (o *Outcome) Err() error {
	if o.OK() {
		return nil
	}
	if o == nil || o.Response == nil {
		return &httpclient.Failure{Kind: httpclient.KindRejected}
	}
	return httpclient.NewStatusFailure(httpclient.KindRejected, o.URL, o.Response)
}

// Result is an Outcome carrying a decoded value. Value is the zero value
// unless the outcome is a success with a non-empty body.
type Result[U any] struct {
	*Outcome
	Value U
}
