package api

import (
	"context"

	"github.com/ISearcher/Rest4WebApi/httpclient"
	"github.com/ISearcher/Rest4WebApi/httpclient/rest"
)

// UpdateRoute is the resource route of update packages.
const UpdateRoute = "updates"

// UpdateClient downloads update packages.
type UpdateClient struct {
	core *rest.Core
}

// NewUpdateClient binds update packages on client.
func NewUpdateClient(client *httpclient.Client) *UpdateClient {
	return &UpdateClient{core: rest.NewCore(client, UpdateRoute)}
}

// Core exposes the underlying verbs.
func (c *UpdateClient) Core() *rest.Core { return c.core }

// Get fetches the package for version.
func (c *UpdateClient) Get(ctx context.Context, version string) ([]byte, error) {
	res, err := c.core.GetRawBytes(ctx, version, "")
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Value, nil
}
