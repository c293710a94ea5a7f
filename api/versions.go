package api

import (
	"context"

	"github.com/ISearcher/Rest4WebApi/httpclient"
	"github.com/ISearcher/Rest4WebApi/httpclient/rest"
	"github.com/ISearcher/Rest4WebApi/validation"
)

// VersionRoute is the resource route of the version catalog.
const VersionRoute = "version"

// VersionClient manages client builds.
type VersionClient struct {
	res *rest.Resource[ClientVersion]
}

// NewVersionClient binds the version catalog on client.
func NewVersionClient(client *httpclient.Client) *VersionClient {
	return &VersionClient{res: rest.NewResource[ClientVersion](client, VersionRoute)}
}

// Resource exposes the underlying verbs.
func (c *VersionClient) Resource() *rest.Resource[ClientVersion] { return c.res }

// Clients lists the released versions. The list is never nil.
func (c *VersionClient) Clients(ctx context.Context) ([]ClientVersion, error) {
	res, err := rest.GetAs[[]ClientVersion](ctx, c.res.Core, "clients")
	return listOf(res, err)
}

// Download fetches the installer for version.
func (c *VersionClient) Download(ctx context.Context, version string) ([]byte, error) {
	res, err := c.res.GetRawBytes(ctx, version, "")
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Value, nil
}

// Create uploads the installer at filePath described by info.
func (c *VersionClient) Create(ctx context.Context, info ClientVersion, filePath string) (bool, error) {
	if err := validation.Validate(info); err != nil {
		return false, err
	}
	out, err := c.res.SendFile(ctx, info, filePath, "")
	return succeeded(out, err)
}

// Delete removes the version called name.
func (c *VersionClient) Delete(ctx context.Context, name string) error {
	if err := validation.New().Required("name", name).Err(); err != nil {
		return err
	}
	out, err := c.res.DeleteByParam(ctx, name, "")
	_, err = succeeded(out, err)
	return err
}
