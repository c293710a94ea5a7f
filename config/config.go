package config

import (
	"fmt"
	"time"

	"github.com/ISearcher/Rest4WebApi/httpclient"
	"github.com/ISearcher/Rest4WebApi/logger"
	"github.com/ISearcher/Rest4WebApi/observability"
	"github.com/ISearcher/Rest4WebApi/security"
	"github.com/ISearcher/Rest4WebApi/validation"
)

// Config is the complete client configuration.
type Config struct {
	Base    BaseConfig    `yaml:"base" mapstructure:"base"`
	WebAPI  WebAPIConfig  `yaml:"webapi" mapstructure:"webapi"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// WebAPIConfig locates the backend and the client certificate.
type WebAPIConfig struct {
	// BaseAddress is the service root, e.g. "https://webapi.local/".
	BaseAddress string `yaml:"base_address" mapstructure:"base_address" validate:"required,url"`
	// CertificateSerial selects the client certificate from the store.
	CertificateSerial string `yaml:"certificate_serial" mapstructure:"certificate_serial"`
	// CertificateStore is the store directory. Defaults to /etc/webapi/certs.
	CertificateStore    string `yaml:"certificate_store" mapstructure:"certificate_store"`
	CertificatePassword string `yaml:"certificate_password" mapstructure:"certificate_password"`
	// CAFile replaces the system roots for server verification.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// SkipVerify disables server certificate verification.
	SkipVerify bool          `yaml:"skip_verify" mapstructure:"skip_verify"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
}

// TracingConfig enables OTLP export of spans and metrics.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// DefaultSampleRate is the tracing sample rate when none is configured.
const DefaultSampleRate = 1.0

// ApplyDefaults fills in zero-value fields. The tracing sample rate is
// defaulted by Load, since zero is a valid rate.
func (c *Config) ApplyDefaults(serviceName string) {
	c.Base.ApplyDefaults(serviceName)
	c.Logging.ApplyDefaults()
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Base.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.WebAPI.tls().Validate(); err != nil {
		return fmt.Errorf("webapi: %w", err)
	}
	return nil
}

func (c WebAPIConfig) tls() *security.TLSConfig {
	return &security.TLSConfig{
		SkipVerify:          c.SkipVerify,
		CAFile:              c.CAFile,
		CertificateSerial:   c.CertificateSerial,
		CertificateStore:    c.CertificateStore,
		CertificatePassword: c.CertificatePassword,
	}
}

// ClientConfig returns the HTTP client settings for the backend.
func (c WebAPIConfig) ClientConfig() httpclient.Config {
	return httpclient.Config{
		BaseURL: c.BaseAddress,
		Timeout: c.Timeout,
		TLS:     c.tls(),
	}
}

// TracerConfig returns the tracer settings for the program.
func (c *Config) TracerConfig() observability.TracerConfig {
	tc := observability.DefaultTracerConfig(c.Base.Name)
	tc.Environment = c.Base.Environment
	if c.Base.Version != "" {
		tc.ServiceVersion = c.Base.Version
	}
	if c.Tracing.Endpoint != "" {
		tc.Endpoint = c.Tracing.Endpoint
	}
	tc.Insecure = c.Tracing.Insecure
	tc.SampleRate = c.Tracing.SampleRate
	return tc
}

// MeterConfig returns the meter settings for the program.
func (c *Config) MeterConfig() observability.MeterConfig {
	mc := observability.DefaultMeterConfig(c.Base.Name)
	mc.Environment = c.Base.Environment
	if c.Base.Version != "" {
		mc.ServiceVersion = c.Base.Version
	}
	if c.Tracing.Endpoint != "" {
		mc.Endpoint = c.Tracing.Endpoint
	}
	mc.Insecure = c.Tracing.Insecure
	return mc
}
