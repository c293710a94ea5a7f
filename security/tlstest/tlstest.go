// Package tlstest generates certificates and certificate stores for tests.
// Everything is written to t.TempDir(). PEM entries use the crypto stdlib;
// PKCS#12 entries are encoded with go-pkcs12 in the modern PBES2/AES form.
//
//	func TestWithTLS(t *testing.T) {
//	    certs := tlstest.GenerateTLSCerts(t)
//	    store := tlstest.NewStore(t)
//	    client := store.AddClientCert(t, certs, 0x4a2f)
//	}
package tlstest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// TLSCerts holds a generated CA and a server certificate signed by it.
type TLSCerts struct {
	// CAFile is the path to the CA certificate PEM file.
	CAFile string
	// CertFile is the path to the server certificate PEM file.
	CertFile string
	// KeyFile is the path to the server private key PEM file.
	KeyFile string

	CACert *x509.Certificate
	CAKey  *ecdsa.PrivateKey
	// ServerTLS is the server certificate, valid for localhost and loopback IPs.
	ServerTLS tls.Certificate
	// CertPool contains the CA certificate.
	CertPool *x509.CertPool
}

// GenerateTLSCerts creates a self-signed CA and a server certificate.
func GenerateTLSCerts(t testing.TB) *TLSCerts {
	t.Helper()
	dir := t.TempDir()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: generate CA key: %v", err)
	}

	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"WebAPI Test CA"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("tlstest: create CA cert: %v", err)
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		t.Fatalf("tlstest: parse CA cert: %v", err)
	}

	caFile := filepath.Join(dir, "ca.pem")
	writePEM(t, caFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caDER}))

	serverTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{Organization: []string{"WebAPI Test"}, CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	certPEM, keyPEM := sign(t, serverTemplate, caCert, caKey)

	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	writePEM(t, certFile, certPEM)
	writePEM(t, keyFile, keyPEM)

	serverTLS, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("tlstest: load key pair: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(caCert)

	return &TLSCerts{
		CAFile:    caFile,
		CertFile:  certFile,
		KeyFile:   keyFile,
		CACert:    caCert,
		CAKey:     caKey,
		ServerTLS: serverTLS,
		CertPool:  pool,
	}
}

// Store is an on-disk certificate store directory.
type Store struct {
	Dir string
}

// NewStore creates an empty store directory.
func NewStore(t testing.TB) *Store {
	t.Helper()
	return &Store{Dir: t.TempDir()}
}

// AddClientCert issues a client certificate with the given serial number,
// signed by the CA in certs, and writes it to the store as a single PEM
// file holding certificate and key.
func (s *Store) AddClientCert(t testing.TB, certs *TLSCerts, serial int64) *x509.Certificate {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{Organization: []string{"WebAPI Test"}, CommonName: fmt.Sprintf("client-%x", serial)},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	certPEM, keyPEM := sign(t, template, certs.CACert, certs.CAKey)

	path := filepath.Join(s.Dir, fmt.Sprintf("client-%x.pem", serial))
	writePEM(t, path, append(certPEM, keyPEM...))

	block, _ := pem.Decode(certPEM)
	leaf, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("tlstest: parse client cert: %v", err)
	}
	return leaf
}

// AddSplitClientCert is like AddClientCert but writes the key to a sibling
// .key file next to a .crt file.
func (s *Store) AddSplitClientCert(t testing.TB, certs *TLSCerts, serial int64) {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: fmt.Sprintf("client-%x", serial)},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	certPEM, keyPEM := sign(t, template, certs.CACert, certs.CAKey)
	base := filepath.Join(s.Dir, fmt.Sprintf("split-%x", serial))
	writePEM(t, base+".crt", certPEM)
	writePEM(t, base+".key", keyPEM)
}

// AddPKCS12ClientCert issues a client certificate like AddClientCert and
// writes it with the CA certificate as a PKCS#12 bundle encrypted with
// password. With caFirst the CA certificate precedes the leaf in the
// bundle.
func (s *Store) AddPKCS12ClientCert(t testing.TB, certs *TLSCerts, serial int64, password string, caFirst bool) *x509.Certificate {
	t.Helper()
	template := &x509.Certificate{
		SerialNumber: big.NewInt(serial),
		Subject:      pkix.Name{CommonName: fmt.Sprintf("client-%x", serial)},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, key := issue(t, template, certs.CACert, certs.CAKey)
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("tlstest: parse client cert: %v", err)
	}

	first, rest := leaf, []*x509.Certificate{certs.CACert}
	if caFirst {
		first, rest = certs.CACert, []*x509.Certificate{leaf}
	}
	data, err := gopkcs12.Modern.Encode(key, first, rest, password)
	if err != nil {
		t.Fatalf("tlstest: encode pkcs12: %v", err)
	}
	writePEM(t, filepath.Join(s.Dir, fmt.Sprintf("client-%x.p12", serial)), data)
	return leaf
}

// AddGarbage writes a file with a recognized extension that does not parse.
func (s *Store) AddGarbage(t testing.TB, name string) {
	t.Helper()
	content := []byte("-----BEGIN CERTIFICATE-----\nnot-valid-base64-data\n-----END CERTIFICATE-----\n")
	writePEM(t, filepath.Join(s.Dir, name), content)
}

func issue(t testing.TB, template, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) ([]byte, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tlstest: generate key: %v", err)
	}
	der, err := x509.CreateCertificate(rand.Reader, template, parent, &key.PublicKey, parentKey)
	if err != nil {
		t.Fatalf("tlstest: create cert: %v", err)
	}
	return der, key
}

func sign(t testing.TB, template, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (certPEM, keyPEM []byte) {
	t.Helper()
	der, key := issue(t, template, parent, parentKey)
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("tlstest: marshal key: %v", err)
	}
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

func writePEM(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("tlstest: write %s: %v", path, err)
	}
}
