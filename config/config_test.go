package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBaseConfigApplyDefaults(t *testing.T) {
	t.Run("empty fields take service name and development", func(t *testing.T) {
		cfg := BaseConfig{}
		cfg.ApplyDefaults("webapictl")
		if cfg.Name != "webapictl" {
			t.Errorf("expected 'webapictl', got %q", cfg.Name)
		}
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := BaseConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults("other")
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Name != "svc" {
			t.Errorf("expected name to be kept, got %q", cfg.Name)
		}
	})
}

func TestBaseConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     BaseConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", BaseConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", BaseConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", BaseConfig{Environment: "production"}, true, "base.name is required"},
		{"invalid environment", BaseConfig{Name: "svc", Environment: "invalid"}, true, "base.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
base:
  name: webapictl
  environment: staging
webapi:
  base_address: https://webapi.local/
  certificate_serial: "4a:2f"
  certificate_store: /var/lib/webapi/certs
  timeout: 30s
logging:
  level: debug
  format: json
`)

	cfg, err := Load("webapictl", WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Base.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Base.Environment)
	}
	if cfg.WebAPI.BaseAddress != "https://webapi.local/" {
		t.Errorf("unexpected base address %q", cfg.WebAPI.BaseAddress)
	}
	if cfg.WebAPI.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.WebAPI.Timeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}

	cc := cfg.WebAPI.ClientConfig()
	if cc.BaseURL != "https://webapi.local/" || cc.TLS.CertificateSerial != "4a:2f" {
		t.Errorf("unexpected client config %+v", cc)
	}
	if cc.TLS.CertificateStore != "/var/lib/webapi/certs" {
		t.Errorf("expected store to be passed through, got %q", cc.TLS.CertificateStore)
	}
	if cc.TLS.SkipVerify {
		t.Error("expected verification to stay enabled")
	}
}

func TestLoadSampleRate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want float64
	}{
		{"default", "", DefaultSampleRate},
		{"explicit zero", "tracing:\n  sample_rate: 0\n", 0},
		{"explicit rate", "tracing:\n  sample_rate: 0.5\n", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "config.yml", "webapi:\n  base_address: https://webapi.local/\n"+tt.yaml)

			cfg, err := Load("webapictl", WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none")))
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Tracing.SampleRate != tt.want {
				t.Errorf("expected sample rate %v, got %v", tt.want, cfg.Tracing.SampleRate)
			}
			if got := cfg.TracerConfig().SampleRate; got != tt.want {
				t.Errorf("expected tracer sample rate %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("env zero", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "config.yml", "webapi:\n  base_address: https://webapi.local/\n")
		t.Setenv("TRACING_SAMPLE_RATE", "0")

		cfg, err := Load("webapictl", WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none")))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Tracing.SampleRate != 0 {
			t.Errorf("expected sample rate 0 from env, got %v", cfg.Tracing.SampleRate)
		}
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
webapi:
  base_address: https://from-file/
`)

	t.Setenv("WEBAPI_BASE_ADDRESS", "https://from-env/")
	t.Setenv("WEBAPI_SKIP_VERIFY", "true")
	t.Setenv("LOGGING_LEVEL", "warn")

	cfg, err := Load("webapictl", WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.WebAPI.BaseAddress != "https://from-env/" {
		t.Errorf("expected env to override file, got %q", cfg.WebAPI.BaseAddress)
	}
	if !cfg.WebAPI.SkipVerify {
		t.Error("expected skip_verify from env")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %q", cfg.Logging.Level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "WEBAPI_BASE_ADDRESS=http://from-dotenv:8080/\nWEBAPI_TIMEOUT=5s\n")

	// Registered so the variables set by godotenv are removed afterwards.
	t.Setenv("WEBAPI_BASE_ADDRESS", "")
	os.Unsetenv("WEBAPI_BASE_ADDRESS")
	t.Setenv("WEBAPI_TIMEOUT", "")
	os.Unsetenv("WEBAPI_TIMEOUT")

	cfg, err := Load("webapictl", WithFileSystem(fakeFS{envPath: true}), WithEnvFile(envPath), WithHomeDir(""))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.WebAPI.BaseAddress != "http://from-dotenv:8080/" {
		t.Errorf("unexpected base address %q", cfg.WebAPI.BaseAddress)
	}
	if cfg.WebAPI.Timeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.WebAPI.Timeout)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{"missing base address", "webapi: {}\n", "webapi.base_address: is required"},
		{"bad base address", "webapi: {base_address: not a url}\n", "webapi.base_address: must be a valid URL"},
		{"bad serial", "webapi: {base_address: 'https://h/', certificate_serial: zz}\n", "serial"},
		{"tracing without endpoint", "webapi: {base_address: 'https://h/'}\ntracing: {enabled: true}\n", "tracing.endpoint"},
		{"bad log level", "webapi: {base_address: 'https://h/'}\nlogging: {level: loud}\n", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, "config.yml", tt.yaml)
			_, err := Load("webapictl", WithConfigFile(path), WithEnvFile(filepath.Join(dir, "none")))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load("webapictl", WithConfigFile("/nonexistent/config.yml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestResolverSearchOrder(t *testing.T) {
	fs := fakeFS{
		"./config/config.yml":        true,
		"/home/u/.webapi/config.yml": true,
		"/etc/webapi/config.yml":     true,
		".env":                       true,
	}
	r := &Resolver{FileSystem: fs, HomeDir: "/home/u"}
	files := r.ResolveFiles("webapictl", LoaderConfig{})
	if files.ConfigFile != "./config/config.yml" {
		t.Errorf("expected ./config/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}

	delete(fs, "./config/config.yml")
	if got := r.ResolveFiles("webapictl", LoaderConfig{}).ConfigFile; got != "/home/u/.webapi/config.yml" {
		t.Errorf("expected home config, got %q", got)
	}

	explicit := r.ResolveFiles("webapictl", LoaderConfig{ConfigFile: "x.yml", EnvFile: "y.env"})
	if explicit.ConfigFile != "x.yml" || explicit.EnvFile != "y.env" {
		t.Errorf("expected explicit paths, got %+v", explicit)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"WEBAPI_BASE_ADDRESS", "webapi.base_address", true},
		{"LOGGING_NO_COLOR", "logging.no_color", true},
		{"TRACING_SAMPLE_RATE", "tracing.sample_rate", true},
		{"BASE_NAME", "base.name", true},
		{"PATH", "", false},
		{"HOME_DIR", "", false},
		{"WEBAPI_", "", false},
	}
	for _, tt := range tests {
		got, ok := envKey(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("envKey(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTracerConfig(t *testing.T) {
	cfg := Config{
		Base:    BaseConfig{Name: "webapictl", Environment: "production", Version: "2.1.0"},
		Tracing: TracingConfig{Enabled: true, Endpoint: "otel:4318", SampleRate: 0.25},
	}
	tc := cfg.TracerConfig()
	if tc.ServiceName != "webapictl" || tc.ServiceVersion != "2.1.0" || tc.Environment != "production" {
		t.Errorf("unexpected tracer identity %+v", tc)
	}
	if tc.Endpoint != "otel:4318" || tc.SampleRate != 0.25 || tc.Insecure {
		t.Errorf("unexpected tracer export settings %+v", tc)
	}
	if mc := cfg.MeterConfig(); mc.Endpoint != "otel:4318" || mc.ServiceVersion != "2.1.0" {
		t.Errorf("unexpected meter config %+v", mc)
	}
}

type fakeFS map[string]bool

func (f fakeFS) Exists(path string) bool { return f[path] }

func (f fakeFS) LoadEnv(path string) error { return RealFileSystem{}.LoadEnv(path) }
