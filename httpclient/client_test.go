package httpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ISearcher/Rest4WebApi/logger"
	"github.com/ISearcher/Rest4WebApi/security"
	"github.com/ISearcher/Rest4WebApi/security/tlstest"
)

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/version/" {
			t.Errorf("expected /api/version/, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected Accept application/json, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		w.Header().Set("X-Server", "webapi")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"version":"1.0"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL + "/"})
	resp, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/api/version/"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"version":"1.0"}` {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if resp.Headers["X-Server"] != "webapi" {
		t.Errorf("expected X-Server header, got %v", resp.Headers)
	}
}

type payload struct {
	Name string `json:"name"`
}

func TestClient_PostEncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("expected JSON content type, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"$id":"1","name":"a"}` {
			t.Errorf("unexpected body %s", body)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	resp, err := c.Execute(context.Background(), Request{
		Method: http.MethodPost,
		URL:    "api/tasks",
		Body:   &payload{Name: "a"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected 201, got %d", resp.StatusCode)
	}
}

func TestClient_BodyKinds(t *testing.T) {
	tests := []struct {
		name        string
		body        any
		headers     map[string]string
		wantType    string
		wantPayload string
	}{
		{"bytes with header", []byte(`{"a":1}`), map[string]string{"Content-Type": "application/json"}, "application/json", `{"a":1}`},
		{"string", "hello", nil, "text/plain", "hello"},
		{"struct value", payload{Name: "v"}, nil, "application/json; charset=utf-8", `{"name":"v"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Content-Type"); got != tt.wantType {
					t.Errorf("expected content type %q, got %q", tt.wantType, got)
				}
				body, _ := io.ReadAll(r.Body)
				if string(body) != tt.wantPayload {
					t.Errorf("expected body %q, got %q", tt.wantPayload, body)
				}
			}))
			defer srv.Close()

			c := newTestClient(t, Config{BaseURL: srv.URL})
			_, err := c.Execute(context.Background(), Request{Method: http.MethodPut, URL: "/x", Body: tt.body, Headers: tt.headers})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
		})
	}
}

func TestClient_HeadersQueryAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Client"); got != "override" {
			t.Errorf("expected request header to win, got %q", got)
		}
		if got := r.Header.Get("X-Default"); got != "yes" {
			t.Errorf("expected default header, got %q", got)
		}
		if got := r.URL.Query().Get("guid"); got != "abc" {
			t.Errorf("expected query guid=abc, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer req-token" {
			t.Errorf("expected request auth, got %q", got)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, Config{
		BaseURL: srv.URL,
		Headers: map[string]string{"X-Client": "default", "X-Default": "yes"},
		Auth:    BearerAuth("client-token"),
	})
	_, err := c.Execute(context.Background(), Request{
		Method:  http.MethodGet,
		URL:     "/api/tasks",
		Headers: map[string]string{"X-Client": "override"},
		Query:   map[string]string{"guid": "abc"},
		Auth:    BearerAuth("req-token"),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestClient_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	resp, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: "/"})
	if err != nil {
		t.Fatalf("expected transport success, got %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestClient_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := newTestClient(t, Config{BaseURL: base})
	target := base + "/api/tasks/"
	_, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: target})
	if !IsConnection(err) {
		t.Fatalf("expected connection failure, got %v", err)
	}
	var f *Failure
	errors.As(err, &f)
	if f.URL != target {
		t.Errorf("expected URL %q, got %q", target, f.URL)
	}
	if f.StatusCode != 0 {
		t.Errorf("expected no status code, got %d", f.StatusCode)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: "/"})
	if !IsConnection(err) {
		t.Fatalf("expected connection failure on timeout, got %v", err)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Execute(ctx, Request{Method: http.MethodGet, URL: "/"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if IsConnection(err) {
		t.Error("expected cancellation not to be reported as a connection failure")
	}
}

func TestClient_Submit(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, Config{BaseURL: srv.URL})
	f := c.Submit(context.Background(), Request{Method: http.MethodDelete, URL: "/api/tasks/1"})

	select {
	case <-f.Done():
		t.Fatal("expected request to be pending")
	default:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded from Await, got %v", err)
	}

	close(release)
	resp, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

func TestClient_MutualTLS(t *testing.T) {
	certs := tlstest.GenerateTLSCerts(t)
	store := tlstest.NewStore(t)
	clientCert := store.AddClientCert(t, certs, 0x4a2f)

	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.TLS.PeerCertificates) == 0 {
			t.Error("expected a client certificate")
			return
		}
		if got := r.TLS.PeerCertificates[0].SerialNumber; got.Cmp(clientCert.SerialNumber) != 0 {
			t.Errorf("expected serial %x, got %x", clientCert.SerialNumber, got)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{certs.ServerTLS},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    certs.CertPool,
	}
	srv.StartTLS()
	defer srv.Close()

	c := newTestClient(t, Config{
		BaseURL: srv.URL + "/",
		TLS: &security.TLSConfig{
			CAFile:            certs.CAFile,
			CertificateSerial: "4a2f",
			CertificateStore:  store.Dir,
		},
	})

	transport := c.Unwrap().Transport.(*http.Transport)
	if transport.Proxy != nil {
		t.Error("expected https transport to bypass proxies")
	}

	resp, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/api/version/"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("expected 'ok', got %q", resp.Body)
	}
}

func TestNew_MissingCertificate(t *testing.T) {
	store := tlstest.NewStore(t)
	c := newTestClient(t, Config{
		BaseURL: "https://webapi.local/",
		TLS:     &security.TLSConfig{CertificateSerial: "beef", CertificateStore: store.Dir},
	})
	transport := c.Unwrap().Transport.(*http.Transport)
	if n := len(transport.TLSClientConfig.Certificates); n != 0 {
		t.Errorf("expected no client certificate, got %d", n)
	}
}

func TestClient_HTTPFollowsProxy(t *testing.T) {
	var proxiedHost string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxiedHost = r.Host
		_, _ = w.Write([]byte("via proxy"))
	}))
	defer proxy.Close()

	t.Setenv("HTTP_PROXY", proxy.URL)
	t.Setenv("http_proxy", proxy.URL)
	t.Setenv("NO_PROXY", "")
	t.Setenv("no_proxy", "")

	c := newTestClient(t, Config{BaseURL: "http://webapi.example/"})
	resp, err := c.Execute(context.Background(), Request{Method: http.MethodGet, URL: "http://webapi.example/api/version/"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(resp.Body) != "via proxy" {
		t.Errorf("expected response from proxy, got %q", resp.Body)
	}
	if proxiedHost != "webapi.example" {
		t.Errorf("expected proxied host webapi.example, got %q", proxiedHost)
	}
}

func TestClient_ResolveURL(t *testing.T) {
	c := newTestClient(t, Config{BaseURL: "http://h:1/base/"})
	tests := []struct {
		in, want string
	}{
		{"api/tasks", "http://h:1/base/api/tasks"},
		{"/api/tasks", "http://h:1/base/api/tasks"},
		{"https://other/api", "https://other/api"},
	}
	for _, tt := range tests {
		if got := c.resolveURL(tt.in); got != tt.want {
			t.Errorf("resolveURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
