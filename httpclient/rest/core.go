package rest

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ISearcher/Rest4WebApi/codec"
	"github.com/ISearcher/Rest4WebApi/httpclient"
	"github.com/ISearcher/Rest4WebApi/logger"
)

// Operation is one call on an endpoint, built per call.
type Operation struct {
	// Verb is the HTTP method.
	Verb string
	// URL is the composed target.
	URL string
	// Body is an encoded payload, if any.
	Body []byte
	// File is a multipart payload, if any. It takes precedence over Body.
	File *httpclient.MultipartBody
}

func (op Operation) request() httpclient.Request {
	req := httpclient.Request{Method: op.Verb, URL: op.URL}
	switch {
	case op.File != nil:
		req.Body = op.File
	case op.Body != nil:
		req.Body = op.Body
		req.Headers = map[string]string{"Content-Type": codec.ContentType}
	}
	return req
}

// Core holds the untyped verbs of one endpoint.
type Core struct {
	client   *httpclient.Client
	endpoint Endpoint
	codec    *codec.Codec
	log      *logger.Logger
}

// NewCore binds route under the client's base address.
func NewCore(client *httpclient.Client, route string) *Core {
	ep := NewEndpoint(client.BaseURL(), route)
	return &Core{
		client:   client,
		endpoint: ep,
		codec:    client.Codec(),
		log:      logger.WithComponent("rest").WithFields(logger.Fields("route", ep.Route())),
	}
}

// Endpoint returns the bound endpoint.
func (c *Core) Endpoint() Endpoint { return c.endpoint }

// Client returns the underlying HTTP client.
func (c *Core) Client() *httpclient.Client { return c.client }

// Codec returns the codec used for bodies.
func (c *Core) Codec() *codec.Codec { return c.codec }

// URL composes the target for method and param on this endpoint.
func (c *Core) URL(method, param string) string {
	return Compose(c.endpoint.URL(), method, param)
}

// Execute sends op and validates the status. Failures of the taxonomy
// are returned as errors; any other non-2xx status is a Rejected outcome.
func (c *Core) Execute(ctx context.Context, op Operation) (*Outcome, error) {
	resp, err := c.client.Execute(ctx, op.request())
	if err != nil {
		return nil, err
	}
	ok, err := httpclient.Validate(resp, op.URL)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Kind: Rejected, URL: op.URL, Response: resp}
	if ok {
		out.Kind = Success
	}
	return out, nil
}

// Delete sends DELETE with no body to compose(method).
func (c *Core) Delete(ctx context.Context, method string) (*Outcome, error) {
	return c.Execute(ctx, Operation{Verb: http.MethodDelete, URL: c.URL(method, "")})
}

// DeleteByParam sends DELETE with no body to compose(method, param).
func (c *Core) DeleteByParam(ctx context.Context, param, method string) (*Outcome, error) {
	return c.Execute(ctx, Operation{Verb: http.MethodDelete, URL: c.URL(method, param)})
}

// GetRawBytes fetches compose(method, param) and returns the body as is.
// Value is nil unless the outcome is a success.
func (c *Core) GetRawBytes(ctx context.Context, param, method string) (*Result[[]byte], error) {
	out, err := c.Execute(ctx, Operation{Verb: http.MethodGet, URL: c.URL(method, param)})
	if err != nil {
		return nil, err
	}
	res := &Result[[]byte]{Outcome: out}
	if out.OK() {
		res.Value = out.Response.Body
		if res.Value == nil {
			res.Value = []byte{}
		}
	}
	return res, nil
}

// SendRawRequest sends GET with no body to compose(method).
func (c *Core) SendRawRequest(ctx context.Context, method string) (*Outcome, error) {
	return c.Execute(ctx, Operation{Verb: http.MethodGet, URL: c.URL(method, "")})
}

// SendFileAs posts a multipart body to compose(method): the file at
// filePath as part "entity" and the encoded dto as part "dto". The file
// is opened before anything is sent.
func SendFileAs[U any](ctx context.Context, c *Core, dto U, filePath, method string) (*Outcome, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("rest: open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	body, err := codec.Encode(c.codec, dto)
	if err != nil {
		return nil, fmt.Errorf("rest: encode dto: %w", err)
	}

	return c.Execute(ctx, Operation{
		Verb: http.MethodPost,
		URL:  c.URL(method, ""),
		File: &httpclient.MultipartBody{
			Files: []httpclient.FileField{{
				FieldName: "entity",
				FileName:  filepath.Base(filePath),
				Reader:    f,
			}},
			Fields: []httpclient.FormField{{
				Name:        "dto",
				ContentType: codec.ContentType,
				Value:       body,
			}},
		},
	})
}

// send encodes entity and executes verb against target.
func send[U any](ctx context.Context, c *Core, verb, target string, entity U) (*Outcome, error) {
	body, err := codec.Encode(c.codec, entity)
	if err != nil {
		return nil, fmt.Errorf("rest: encode body: %w", err)
	}
	return c.Execute(ctx, Operation{Verb: verb, URL: target, Body: body})
}

// decode fills res.Value from a successful outcome. An empty body leaves
// the zero value.
func decode[U any](c *Core, out *Outcome) (*Result[U], error) {
	res := &Result[U]{Outcome: out}
	if !out.OK() || len(out.Response.Body) == 0 {
		return res, nil
	}
	v, err := codec.Decode[U](c.codec, out.Response.Body)
	if err != nil {
		c.log.WithError(err).Warn("undecodable response", logger.Fields(logger.FieldURL, out.URL))
		return nil, httpclient.NewDeserializationFailure(out.URL, out.Response, err)
	}
	res.Value = v
	return res, nil
}
