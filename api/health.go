package api

import (
	"context"
	"time"

	"github.com/ISearcher/Rest4WebApi/httpclient/rest"
	"github.com/ISearcher/Rest4WebApi/observability"
)

// probe sends a bare GET to the endpoint of core. A transport fault is
// down; a status outside 2xx is degraded.
func probe(ctx context.Context, name string, core *rest.Core) observability.Health {
	start := time.Now()
	out, err := core.SendRawRequest(ctx, "")
	h := observability.Health{
		Name:    name,
		Status:  observability.HealthStatusUp,
		Latency: time.Since(start),
		Details: map[string]string{"url": core.Endpoint().URL()},
	}
	switch {
	case rest.IsConnection(err):
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	case err != nil:
		h.Status = observability.HealthStatusDegraded
		h.Message = err.Error()
	case !out.OK():
		h.Status = observability.HealthStatusDegraded
		h.Message = out.Response.Status
	}
	return h
}

// CheckHealth probes the version catalog.
func (c *VersionClient) CheckHealth(ctx context.Context) observability.Health {
	return probe(ctx, VersionRoute, c.res.Core)
}

// CheckHealth probes the task list.
func (c *TaskClient) CheckHealth(ctx context.Context) observability.Health {
	return probe(ctx, TaskRoute, c.res.Core)
}

// CheckHealth probes the update packages endpoint.
func (c *UpdateClient) CheckHealth(ctx context.Context) observability.Health {
	return probe(ctx, UpdateRoute, c.core)
}
