package testutil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Reply is a scripted response.
type Reply struct {
	Status      int
	ContentType string
	Body        []byte
}

// Request is a recorded request.
type Request struct {
	Method string
	// Path is the URL path as sent, trailing slash included.
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// ContentType returns the request Content-Type header.
func (r Request) ContentType() string {
	return r.Header.Get("Content-Type")
}

type routeKey struct {
	method string
	path   string
}

// FakeServer is a scripted WebApi backend.
type FakeServer struct {
	mu       sync.Mutex
	engine   *gin.Engine
	ts       *httptest.Server
	tls      *tls.Config
	replies  map[routeKey]Reply
	requests []Request
}

var _ TestComponent = (*FakeServer)(nil)

// NewFakeServer creates a plain-http fake backend. Unscripted requests
// get 404.
func NewFakeServer() *FakeServer {
	s := &FakeServer{replies: make(map[routeKey]Reply)}
	s.engine = gin.New()
	s.engine.RedirectTrailingSlash = false
	s.engine.RedirectFixedPath = false
	s.engine.Use(gin.Recovery(), s.record)
	s.engine.NoRoute(s.reply)
	return s
}

// NewTLSFakeServer creates a fake backend served over TLS with cfg. Set
// cfg.ClientAuth to require client certificates.
func NewTLSFakeServer(cfg *tls.Config) *FakeServer {
	s := NewFakeServer()
	s.tls = cfg
	return s
}

// Engine returns the gin engine for registering extra routes before Start.
func (s *FakeServer) Engine() *gin.Engine {
	return s.engine
}

// BaseURL returns the slash-terminated server address, or "" before Start.
func (s *FakeServer) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		return ""
	}
	return s.ts.URL + "/"
}

// On scripts the reply for method and path.
func (s *FakeServer) On(method, path string, reply Reply) {
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[routeKey{method, path}] = reply
}

// OnJSON scripts a JSON reply.
func (s *FakeServer) OnJSON(method, path string, status int, body string) {
	s.On(method, path, Reply{Status: status, ContentType: "application/json; charset=utf-8", Body: []byte(body)})
}

// OnStatus scripts an empty reply with status.
func (s *FakeServer) OnStatus(method, path string, status int) {
	s.On(method, path, Reply{Status: status})
}

// Requests returns a copy of the recorded requests in arrival order.
func (s *FakeServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Last returns the most recent request.
func (s *FakeServer) Last() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *FakeServer) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.RawQuery,
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()
	c.Next()
}

func (s *FakeServer) reply(c *gin.Context) {
	s.mu.Lock()
	r, ok := s.replies[routeKey{c.Request.Method, c.Request.URL.Path}]
	s.mu.Unlock()
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	if len(r.Body) == 0 {
		c.Status(r.Status)
		return
	}
	ct := r.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Data(r.Status, ct, r.Body)
}

// --- TestComponent ---

func (s *FakeServer) Name() string { return "webapi-fake" }

func (s *FakeServer) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts != nil {
		return fmt.Errorf("testutil: %s already started", s.Name())
	}
	ts := httptest.NewUnstartedServer(s.engine)
	if s.tls != nil {
		ts.TLS = s.tls
		ts.StartTLS()
	} else {
		ts.Start()
	}
	s.ts = ts
	return nil
}

func (s *FakeServer) Stop(_ context.Context) error {
	s.mu.Lock()
	ts := s.ts
	s.ts = nil
	s.mu.Unlock()
	if ts != nil {
		ts.Close()
	}
	return nil
}

// Reset drops scripted replies and recorded requests.
func (s *FakeServer) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = make(map[routeKey]Reply)
	s.requests = nil
	return nil
}
