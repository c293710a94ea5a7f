package rest

import (
	"context"
	"net/http"

	"github.com/ISearcher/Rest4WebApi/httpclient"
)

// Resource is the verb surface of an endpoint whose nominal type is T.
// Verbs with an independent payload type are the package-level *As
// functions, called with r.Core.
type Resource[T any] struct {
	*Core
}

// NewResource binds route under the client's base address.
func NewResource[T any](client *httpclient.Client, route string) *Resource[T] {
	return &Resource[T]{Core: NewCore(client, route)}
}

// Create posts entity to compose(method).
func (r *Resource[T]) Create(ctx context.Context, entity T, method string) (*Outcome, error) {
	return CreateAs(ctx, r.Core, entity, method)
}

// Get fetches compose(method) as a T.
func (r *Resource[T]) Get(ctx context.Context, method string) (*Result[T], error) {
	return GetAs[T](ctx, r.Core, method)
}

// GetByParam fetches compose(method, param) as a T.
func (r *Resource[T]) GetByParam(ctx context.Context, param, method string) (*Result[T], error) {
	return GetByParamAs[T](ctx, r.Core, param, method)
}

// Update puts entity to compose(method). The response body is not decoded.
func (r *Resource[T]) Update(ctx context.Context, entity T, method string) (*Outcome, error) {
	return send(ctx, r.Core, http.MethodPut, r.URL(method, ""), entity)
}

// UpdateByParam puts entity to compose(method, param).
func (r *Resource[T]) UpdateByParam(ctx context.Context, entity T, param, method string) (*Outcome, error) {
	return send(ctx, r.Core, http.MethodPut, r.URL(method, param), entity)
}

// DeleteEntity sends DELETE to compose(method) with entity as the body.
func (r *Resource[T]) DeleteEntity(ctx context.Context, entity T, method string) (*Outcome, error) {
	return DeleteAs(ctx, r.Core, entity, method)
}

// SendFile uploads the file at filePath with entity as its metadata.
func (r *Resource[T]) SendFile(ctx context.Context, entity T, filePath, method string) (*Outcome, error) {
	return SendFileAs(ctx, r.Core, entity, filePath, method)
}

// CreateAs posts entity to compose(method).
func CreateAs[U any](ctx context.Context, c *Core, entity U, method string) (*Outcome, error) {
	return send(ctx, c, http.MethodPost, c.URL(method, ""), entity)
}

// GetAs fetches compose(method) and decodes a successful body into U.
func GetAs[U any](ctx context.Context, c *Core, method string) (*Result[U], error) {
	return GetByParamAs[U](ctx, c, "", method)
}

// GetByParamAs fetches compose(method, param) and decodes a successful
// body into U.
func GetByParamAs[U any](ctx context.Context, c *Core, param, method string) (*Result[U], error) {
	target := c.URL(method, param)
	out, err := c.Execute(ctx, Operation{Verb: http.MethodGet, URL: target})
	if err != nil {
		return nil, err
	}
	return decode[U](c, out)
}

// UpdateAs puts entity to compose(method) and decodes a successful body
// into U.
func UpdateAs[U any](ctx context.Context, c *Core, entity U, method string) (*Result[U], error) {
	out, err := send(ctx, c, http.MethodPut, c.URL(method, ""), entity)
	if err != nil {
		return nil, err
	}
	return decode[U](c, out)
}

// DeleteAs sends DELETE to compose(method) with entity as the body.
func DeleteAs[U any](ctx context.Context, c *Core, entity U, method string) (*Outcome, error) {
	return send(ctx, c, http.MethodDelete, c.URL(method, ""), entity)
}
