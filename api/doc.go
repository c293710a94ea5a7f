// Package api holds the WebApi resource clients and their DTOs.
//
// Connect builds one client per resource, each with its own transport:
//
//	conn, err := api.Connect(httpclient.Config{
//	    BaseURL: "https://webapi.local/",
//	    TLS:     &security.TLSConfig{CertificateSerial: "4a2f"},
//	})
//	versions, err := conn.Versions.Clients(ctx)
//	pkg, err := conn.Updates.Get(ctx, "2.0.1")
//
// Every method returns an empty value together with the error when the
// call fails, so a caller that only looks at the value sees an empty list,
// nil bytes or false. Rejected statuses are reported through
// rest.IsRejected.
package api
