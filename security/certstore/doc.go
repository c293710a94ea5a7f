// Package certstore locates mutual-TLS client certificates by serial number
// in a machine-wide store.
//
// The store is a directory (DefaultMachineStore unless configured) of PEM
// and PKCS#12 files. Lookups open the store, search it, and close it again:
//
//	cert, err := certstore.Resolve(certstore.NewDirStore("", ""), "0a1b2c")
//	if err != nil { ... }
//	if cert == nil {
//	    // no certificate with that serial
//	}
//
// Absence is a normal outcome and is reported as a nil certificate.
package certstore
