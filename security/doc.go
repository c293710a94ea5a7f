// Package security provides the transport security settings used by the
// webapi HTTP client.
//
// A secure endpoint presents a client certificate looked up by serial number
// in the machine certificate store (see package certstore):
//
//	cfg := security.TLSConfig{
//	    CertificateSerial: "4A:2F:09",
//	    CAFile:            "/etc/webapi/ca.pem",
//	}
//
//	tlsConfig, err := cfg.Build()
//
// Server certificate verification can be switched off with SkipVerify for
// servers with self-signed certificates. It is never disabled implicitly.
package security
