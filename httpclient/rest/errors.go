package rest

import "github.com/ISearcher/Rest4WebApi/httpclient"

// Failure predicates re-exported so resource clients need not import
// httpclient for error checks.

// IsConnection reports a transport-level failure.
func IsConnection(err error) bool { return httpclient.IsConnection(err) }

// IsUnauthorized reports an HTTP 401 failure.
func IsUnauthorized(err error) bool { return httpclient.IsUnauthorized(err) }

// IsForbidden reports an HTTP 403 failure.
func IsForbidden(err error) bool { return httpclient.IsForbidden(err) }

// IsInternalServer reports an HTTP 500 failure.
func IsInternalServer(err error) bool { return httpclient.IsInternalServer(err) }

// IsDeserialization reports an undecodable success body.
func IsDeserialization(err error) bool { return httpclient.IsDeserialization(err) }

// IsRejected reports an error built by Outcome.Err for a rejected status.
func IsRejected(err error) bool { return httpclient.IsRejected(err) }
