package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// InstrumentationName names the tracer and meter used by this module.
const InstrumentationName = "github.com/ISearcher/Rest4WebApi"

const (
	defaultCollector = "localhost:4318"
	defaultVersion   = "1.0.0"
	defaultEnv       = "development"
)

// Identity describes the program that emits telemetry.
type Identity struct {
	ServiceName    string
	ServiceVersion string
	// Environment is reported as the "environment" resource attribute.
	Environment string
}

func identityFor(service string) Identity {
	return Identity{ServiceName: service, ServiceVersion: defaultVersion, Environment: defaultEnv}
}

// Resource merges the identity into the SDK default resource. The identity
// attributes are schemaless so the merge never fails on a schema mismatch.
func (id Identity) Resource() (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(id.ServiceName),
		semconv.ServiceVersion(id.ServiceVersion),
		attribute.String("environment", id.Environment),
	))
}

// Export is where the OTLP/HTTP exporters send data.
type Export struct {
	// Endpoint is the collector host:port.
	Endpoint string
	// Insecure sends plain HTTP.
	Insecure bool
}

func localExport() Export {
	return Export{Endpoint: defaultCollector, Insecure: true}
}
