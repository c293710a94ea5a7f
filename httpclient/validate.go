package httpclient

import (
	"net/http"

	"github.com/ISearcher/Rest4WebApi/logger"
)

// ClassifyStatusCode maps a non-2xx status to the failure kind Validate
// raises for it. raised is false for statuses that are only rejected.
func ClassifyStatusCode(statusCode int) (kind FailureKind, raised bool) {
	switch statusCode {
	case http.StatusUnauthorized:
		return KindUnauthorized, true
	case http.StatusForbidden:
		return KindForbidden, true
	case http.StatusInternalServerError:
		return KindInternalServer, true
	}
	return KindRejected, false
}

// Validate reports whether resp is a 2xx response. 401, 403 and 500 are
// returned as failures carrying url, status and reason. Every other
// status yields (false, nil) and a warning.
func Validate(resp *Response, url string) (bool, error) {
	if resp.IsSuccess() {
		return true, nil
	}
	if kind, raised := ClassifyStatusCode(resp.StatusCode); raised {
		return false, NewStatusFailure(kind, url, resp)
	}
	logger.WithComponent("httpclient").Warn("request rejected", logger.Fields(
		logger.FieldURL, url,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldReason, resp.Reason(),
	))
	return false, nil
}
