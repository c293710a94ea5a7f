package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/ISearcher/Rest4WebApi/httpclient"
	"github.com/ISearcher/Rest4WebApi/logger"
	"github.com/ISearcher/Rest4WebApi/observability"
)

// State is the reachability of the backend as last observed by Health.
type State int

const (
	StateUnknown State = iota
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Connection holds the resource clients of one backend. It is built once
// and passed to whatever needs the clients.
type Connection struct {
	Versions *VersionClient
	Tasks    *TaskClient
	Updates  *UpdateClient

	base    string
	clients []*httpclient.Client
	log     *logger.Logger

	mu        sync.Mutex
	state     State
	listeners []func(State)
}

var (
	_ observability.HealthChecker = (*VersionClient)(nil)
	_ observability.HealthChecker = (*TaskClient)(nil)
	_ observability.HealthChecker = (*UpdateClient)(nil)
)

// Connect builds the resource clients for cfg. Each gets its own
// transport; on https each resolves the client certificate once.
func Connect(cfg httpclient.Config) (*Connection, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.GetGlobalLogger()
	}
	conn := &Connection{
		base: cfg.BaseURL,
		log:  cfg.Logger.WithComponent("api"),
	}

	newClient := func(route string) (*httpclient.Client, error) {
		rc := cfg
		rc.Name = "webapi-" + route
		c, err := httpclient.New(rc)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("api: connect %s: %w", route, err)
		}
		conn.clients = append(conn.clients, c)
		return c, nil
	}

	vc, err := newClient(VersionRoute)
	if err != nil {
		return nil, err
	}
	tc, err := newClient(TaskRoute)
	if err != nil {
		return nil, err
	}
	uc, err := newClient(UpdateRoute)
	if err != nil {
		return nil, err
	}

	conn.Versions = NewVersionClient(vc)
	conn.Tasks = NewTaskClient(tc)
	conn.Updates = NewUpdateClient(uc)

	conn.log.Info("webapi connection ready", logger.Fields(logger.FieldURL, conn.base))
	return conn, nil
}

// BaseAddress returns the backend address.
func (c *Connection) BaseAddress() string { return c.base }

// State returns the state observed by the last Health call.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers fn to be called whenever Health observes a
// different state than before. fn runs on the caller of Health.
func (c *Connection) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Health probes all resource endpoints. The backend counts as
// disconnected when any endpoint is down.
func (c *Connection) Health(ctx context.Context, version string) *observability.ServiceHealth {
	sh := observability.CheckAll(ctx, "webapi", version, c.Versions, c.Tasks, c.Updates)

	next := StateConnected
	if sh.Status == observability.HealthStatusDown {
		next = StateDisconnected
	}

	c.mu.Lock()
	changed := next != c.state
	c.state = next
	listeners := append(([]func(State))(nil), c.listeners...)
	c.mu.Unlock()

	if changed {
		c.log.Info("webapi connection state changed", logger.Fields("state", next.String(), logger.FieldURL, c.base))
		for _, fn := range listeners {
			fn(next)
		}
	}
	return sh
}

// Close releases idle connections of every client.
func (c *Connection) Close() {
	for _, hc := range c.clients {
		hc.Close()
	}
}
