package httpclient

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ISearcher/Rest4WebApi/codec"
	"github.com/ISearcher/Rest4WebApi/logger"
	"github.com/ISearcher/Rest4WebApi/observability"
	"github.com/ISearcher/Rest4WebApi/security"
)

const defaultName = "webapi"

// Config configures the HTTP client.
type Config struct {
	// Name labels logs, spans and metrics. Defaults to "webapi".
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is the service base address. Its scheme selects the
	// transport: https attaches the client certificate and disables
	// proxying, http follows the proxy environment.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a whole request. Zero means no limit beyond the
	// transport defaults.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS configures the secure transport. Nil uses verified defaults
	// without a client certificate.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth configures default authentication. Nil sends no credentials.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Codec encodes request bodies. Defaults to codec.Default().
	Codec *codec.Codec `yaml:"-" mapstructure:"-"`

	// Logger defaults to the global logger.
	Logger *logger.Logger `yaml:"-" mapstructure:"-"`

	// Metrics defaults to instruments on the global meter provider.
	Metrics *observability.Metrics `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Codec == nil {
		c.Codec = codec.Default()
	}
	if c.Logger == nil {
		c.Logger = logger.GetGlobalLogger()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("httpclient: base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("httpclient: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("httpclient: base URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("httpclient: base URL has no host")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("httpclient: timeout must not be negative")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// secure reports whether the base address uses TLS.
func (c *Config) secure() bool {
	u, err := url.Parse(c.BaseURL)
	return err == nil && u.Scheme == "https"
}
