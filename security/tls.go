package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/ISearcher/Rest4WebApi/logger"
	"github.com/ISearcher/Rest4WebApi/security/certstore"
)

// TLSConfig holds the transport security settings of one endpoint.
type TLSConfig struct {
	// SkipVerify disables server certificate verification. Off by default;
	// enabling it is logged at warn level every time a config is built.
	SkipVerify bool `yaml:"skip_verify" mapstructure:"skip_verify"`

	// CAFile is the path to the CA certificate file for verifying the server.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`

	// CertificateSerial selects the client certificate from the store by
	// its hex serial number.
	CertificateSerial string `yaml:"certificate_serial" mapstructure:"certificate_serial"`

	// CertificateStore is the machine store directory. Defaults to
	// certstore.DefaultMachineStore.
	CertificateStore string `yaml:"certificate_store" mapstructure:"certificate_store"`

	// CertificatePassword decrypts PKCS#12 store entries.
	CertificatePassword string `yaml:"certificate_password" mapstructure:"certificate_password"`

	// CertFile and KeyFile load a client certificate directly, bypassing
	// the store.
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	// ServerName overrides the server name used for certificate verification.
	ServerName string `yaml:"server_name" mapstructure:"server_name"`

	// MinVersion is the minimum TLS version. Defaults to TLS 1.2.
	MinVersion uint16 `yaml:"min_version" mapstructure:"min_version"`

	// Store overrides the certificate store. Tests use it to inject fakes.
	Store certstore.Store `yaml:"-" mapstructure:"-"`
}

// Build creates a *tls.Config for a secure endpoint. A nil receiver yields
// a config with defaults only.
//
// When CertificateSerial is set and no certificate matches, the config is
// built without a client certificate and a warning is logged; the server
// decides whether to reject the handshake.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if c == nil {
		c = &TLSConfig{}
	}
	log := logger.WithComponent("security")

	minVersion := c.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // explicit opt-in
		ServerName:         c.ServerName,
		MinVersion:         minVersion,
	}
	if c.SkipVerify {
		log.Warn("server certificate verification is DISABLED", logger.Fields("server_name", c.ServerName))
	}

	if err := c.loadCA(cfg); err != nil {
		return nil, err
	}
	if err := c.loadClientCert(cfg); err != nil {
		return nil, err
	}

	if len(cfg.Certificates) == 0 && c.CertificateSerial != "" {
		cert, err := certstore.Resolve(c.store(), c.CertificateSerial)
		if err != nil {
			return nil, fmt.Errorf("security/tls: resolve client certificate: %w", err)
		}
		if cert == nil {
			log.Warn("client certificate not found", logger.Fields("serial", c.CertificateSerial))
		} else {
			log.Debug("client certificate found", logger.Fields("serial", c.CertificateSerial))
			cfg.Certificates = []tls.Certificate{*cert}
		}
	}

	return cfg, nil
}

// Validate checks that the TLS configuration is consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("security/tls: both cert_file and key_file must be provided together")
	}
	if c.CertificateSerial != "" {
		if _, err := certstore.ParseSerial(c.CertificateSerial); err != nil {
			return fmt.Errorf("security/tls: %w", err)
		}
	}
	return nil
}

func (c *TLSConfig) store() certstore.Store {
	if c.Store != nil {
		return c.Store
	}
	return certstore.NewDirStore(c.CertificateStore, c.CertificatePassword)
}

func (c *TLSConfig) loadCA(cfg *tls.Config) error {
	if c.CAFile == "" {
		return nil
	}
	ca, err := os.ReadFile(c.CAFile)
	if err != nil {
		return fmt.Errorf("security/tls: failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(ca) {
		return fmt.Errorf("security/tls: failed to parse CA certificate")
	}
	cfg.RootCAs = pool
	return nil
}

func (c *TLSConfig) loadClientCert(cfg *tls.Config) error {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return fmt.Errorf("security/tls: failed to load client certificate: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}
	return nil
}
