package api

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ISearcher/Rest4WebApi/httpclient/rest"
	"github.com/ISearcher/Rest4WebApi/testutil"
	"github.com/ISearcher/Rest4WebApi/validation"
)

func TestVersionClient_Clients(t *testing.T) {
	srv, conn := newConnection(t)
	srv.OnJSON(http.MethodGet, "/api/version/clients/", http.StatusOK,
		`[{"$id":"1","Version":1.10,"Name":"desk","Description":"stable","StableDeviceList":["d1"],"CurrentDeviceList":[]},{"$id":"2","Version":"2","Name":"kiosk"}]`)

	list, err := conn.Versions.Clients(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(list))
	}
	if list[0].Version != "1.10" {
		t.Errorf("expected literal version 1.10, got %q", list[0].Version)
	}
	if list[1].Version != "2" || list[1].Name != "kiosk" {
		t.Errorf("unexpected second version %+v", list[1])
	}
	if len(list[0].StableDeviceList) != 1 || list[0].StableDeviceList[0] != "d1" {
		t.Errorf("unexpected stable devices %v", list[0].StableDeviceList)
	}

	req := lastRequest(t, srv)
	if req.Method != http.MethodGet || req.Path != "/api/version/clients/" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
}

func TestVersionClient_ClientsFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, rest.IsUnauthorized},
		{"forbidden", http.StatusForbidden, rest.IsForbidden},
		{"server error", http.StatusInternalServerError, rest.IsInternalServer},
		{"not found", http.StatusNotFound, rest.IsRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, conn := newConnection(t)
			srv.OnStatus(http.MethodGet, "/api/version/clients/", tt.status)

			list, err := conn.Versions.Clients(ctx)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
			if list == nil || len(list) != 0 {
				t.Errorf("expected empty non-nil list, got %#v", list)
			}
		})
	}
}

func TestVersionClient_ClientsNull(t *testing.T) {
	srv, conn := newConnection(t)
	srv.OnJSON(http.MethodGet, "/api/version/clients/", http.StatusOK, `null`)

	list, err := conn.Versions.Clients(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", list)
	}
}

func TestVersionClient_ClientsUndecodable(t *testing.T) {
	srv, conn := newConnection(t)
	srv.OnJSON(http.MethodGet, "/api/version/clients/", http.StatusOK, `{"Name":"not a list"}`)

	list, err := conn.Versions.Clients(ctx)
	if !rest.IsDeserialization(err) {
		t.Errorf("expected deserialization error, got %v", err)
	}
	if list == nil {
		t.Error("expected non-nil list")
	}
}

func TestVersionClient_Download(t *testing.T) {
	srv, conn := newConnection(t)
	srv.On(http.MethodGet, "/api/version/1.2", testutil.Reply{Body: []byte("MZ\x90\x00")})

	data, err := conn.Versions.Download(ctx, "1.2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "MZ\x90\x00" {
		t.Errorf("unexpected payload %q", data)
	}

	_, err = conn.Versions.Download(ctx, "9.9")
	if !rest.IsRejected(err) {
		t.Errorf("expected rejected outcome for unknown version, got %v", err)
	}
}

func TestVersionClient_Create(t *testing.T) {
	srv, conn := newConnection(t)
	srv.OnStatus(http.MethodPost, "/api/version", http.StatusCreated)

	path := filepath.Join(t.TempDir(), "setup.msi")
	if err := os.WriteFile(path, []byte("installer"), 0o600); err != nil {
		t.Fatal(err)
	}

	ok, err := conn.Versions.Create(ctx, ClientVersion{Version: "1.5", Name: "desk"}, path)
	if err != nil || !ok {
		t.Fatalf("expected success, got %v, %v", ok, err)
	}

	req := lastRequest(t, srv)
	if req.Method != http.MethodPost || req.Path != "/api/version" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	mediaType, params, err := mime.ParseMediaType(req.ContentType())
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart body, got %q", req.ContentType())
	}

	parts := map[string]string{}
	filenames := map[string]string{}
	mr := multipart.NewReader(strings.NewReader(string(req.Body)), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		data, _ := io.ReadAll(p)
		parts[p.FormName()] = string(data)
		filenames[p.FormName()] = p.FileName()
	}

	if parts["entity"] != "installer" || filenames["entity"] != "setup.msi" {
		t.Errorf("unexpected entity part %q (%q)", parts["entity"], filenames["entity"])
	}
	dto := parts["dto"]
	if !strings.Contains(dto, `"Name":"desk"`) || !strings.Contains(dto, `"Version":1.5`) {
		t.Errorf("unexpected dto part %s", dto)
	}
}

func TestVersionClient_CreateInvalid(t *testing.T) {
	srv, conn := newConnection(t)

	ok, err := conn.Versions.Create(ctx, ClientVersion{Version: "1"}, "missing.msi")
	if ok || !validation.IsValidation(err) {
		t.Errorf("expected validation error, got %v, %v", ok, err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("expected no request, got %d", n)
	}
}

func TestVersionClient_Delete(t *testing.T) {
	srv, conn := newConnection(t)
	srv.OnStatus(http.MethodDelete, "/api/version/desk", http.StatusNoContent)

	if err := conn.Versions.Delete(ctx, "desk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := lastRequest(t, srv)
	if req.Method != http.MethodDelete || len(req.Body) != 0 {
		t.Errorf("unexpected request %s with %d body bytes", req.Method, len(req.Body))
	}

	if err := conn.Versions.Delete(ctx, "gone"); !rest.IsRejected(err) {
		t.Errorf("expected rejected outcome, got %v", err)
	}
	if err := conn.Versions.Delete(ctx, ""); !validation.IsValidation(err) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
}
