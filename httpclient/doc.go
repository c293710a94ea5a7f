// Package httpclient executes requests against the WebApi backend and
// classifies their outcome.
//
// A Client owns one transport. For an https base address it presents the
// client certificate resolved from the machine store by serial number and
// bypasses any proxy; for http it follows the proxy environment.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://webapi.local/",
//	    TLS:     &security.TLSConfig{CertificateSerial: "4a2f"},
//	})
//
//	resp, err := client.Execute(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    URL:    "https://webapi.local/api/tasks",
//	})
//	ok, err := httpclient.Validate(resp, url)
//
// Execute blocks; Submit returns a Future for callers that must not.
//
// # Failures
//
// Transport faults are KindConnection. Validate raises KindUnauthorized,
// KindForbidden and KindInternalServer for 401, 403 and 500; any other
// non-2xx status is reported as (false, nil).
package httpclient
