package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/http/httpproxy"

	"github.com/ISearcher/Rest4WebApi/codec"
	"github.com/ISearcher/Rest4WebApi/logger"
	"github.com/ISearcher/Rest4WebApi/observability"
)

const component = "httpclient"

// Client executes requests against one WebApi base address. It owns its
// transport and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
	metrics    *observability.Metrics
}

// New creates a client. For an https base address the client certificate
// is resolved once here and kept by the transport.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.secure() {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsCfg
		transport.Proxy = nil
	} else {
		transport.Proxy = proxyFromEnvironment()
	}

	metrics := cfg.Metrics
	if metrics == nil {
		var err error
		metrics, err = observability.NewMetrics(observability.Meter(observability.InstrumentationName))
		if err != nil {
			return nil, fmt.Errorf("httpclient: %w", err)
		}
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config:  cfg,
		log:     cfg.Logger.WithComponent(component),
		metrics: metrics,
	}, nil
}

// proxyFromEnvironment reads HTTP_PROXY, HTTPS_PROXY and NO_PROXY once.
func proxyFromEnvironment() func(*http.Request) (*url.URL, error) {
	proxy := httpproxy.FromEnvironment().ProxyFunc()
	return func(r *http.Request) (*url.URL, error) {
		return proxy(r.URL)
	}
}

// Execute sends req and blocks until the whole response has been read.
// It does not interpret the status code; see Validate.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	return c.Submit(ctx, req).Await(ctx)
}

// Submit starts req on its own goroutine and returns immediately.
func (c *Client) Submit(ctx context.Context, req Request) *Future {
	f := newFuture()
	go func() {
		f.complete(c.do(ctx, req))
	}()
	return f
}

func (c *Client) do(ctx context.Context, req Request) (*Response, error) {
	target := c.resolveURL(req.URL)
	ctx, op := observability.StartOperation(ctx, observability.SpanHTTPRequest, c.config.Name, req.Method, c.metrics,
		attribute.String(observability.AttrHTTPMethod, req.Method),
		attribute.String(observability.AttrURL, target),
	)

	httpReq, err := c.buildRequest(ctx, req, target)
	if err != nil {
		op.End(ctx, "error", err)
		return nil, err
	}

	c.log.Debug("sending request", logger.RequestFields(req.Method, target))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportFailure(ctx, op, req.Method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportFailure(ctx, op, req.Method, target, fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}

	op.Span().SetAttributes(attribute.Int(observability.AttrHTTPStatus, resp.StatusCode))
	c.log.Debug("response received", logger.ResponseFields(req.Method, target, resp.StatusCode, op.Duration()))
	op.End(ctx, strconv.Itoa(resp.StatusCode), nil)
	return result, nil
}

// transportFailure classifies a transport error. A done context wins
// over the transport error and is returned unchanged.
func (c *Client) transportFailure(ctx context.Context, op *observability.Operation, method, target string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		op.End(ctx, "canceled", ctxErr)
		return ctxErr
	}
	f := NewConnectionFailure(target, err)
	c.log.WithError(err).Error("request failed", logger.RequestFields(method, target))
	c.metrics.RecordError(ctx, KindConnection.String(), component)
	op.End(ctx, "error", f)
	return f
}

// resolveURL joins a relative URL with the base address.
func (c *Client) resolveURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(u, "/")
}

// buildRequest constructs an *http.Request from the client config and request.
func (c *Client) buildRequest(ctx context.Context, req Request, target string) (*http.Request, error) {
	body, contentType, err := c.encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: encode body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			_ = rc.Close()
		}
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	auth := c.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func (c *Client) encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case *MultipartBody:
		rc, ct, err := v.encode()
		return rc, ct, err
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := c.config.Codec.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), codec.ContentType, nil
	}
}

// Codec returns the codec used for request bodies.
func (c *Client) Codec() *codec.Codec {
	return c.config.Codec
}

// BaseURL returns the configured base address.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
