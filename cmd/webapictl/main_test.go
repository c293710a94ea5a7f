package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ISearcher/Rest4WebApi/httpclient/rest"
	"github.com/ISearcher/Rest4WebApi/testutil"
)

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "webapi:\n  base_address: " + baseURL + "\nlogging:\n  level: disabled\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", configPath))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionsList(t *testing.T) {
	srv := testutil.NewFakeServer()
	testutil.T(t).Setup(srv)
	srv.OnJSON(http.MethodGet, "/api/version/clients/", http.StatusOK, `[{"Version":1.2,"Name":"desk"}]`)

	out, err := execute(t, writeConfig(t, srv.BaseURL()), "versions", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"Name": "desk"`) || !strings.Contains(out, `"Version": 1.2`) {
		t.Errorf("unexpected output %s", out)
	}
}

func TestVersionsDelete_Unauthorized(t *testing.T) {
	srv := testutil.NewFakeServer()
	testutil.T(t).Setup(srv)
	srv.OnStatus(http.MethodDelete, "/api/version/desk", http.StatusUnauthorized)

	_, err := execute(t, writeConfig(t, srv.BaseURL()), "versions", "delete", "desk")
	if !rest.IsUnauthorized(err) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}

func TestUpdatesGet_ToFile(t *testing.T) {
	srv := testutil.NewFakeServer()
	testutil.T(t).Setup(srv)
	srv.On(http.MethodGet, "/api/updates/2.0", testutil.Reply{Body: []byte("pkg")})

	target := filepath.Join(t.TempDir(), "update.bin")
	out, err := execute(t, writeConfig(t, srv.BaseURL()), "updates", "get", "2.0", "-o", target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil || string(data) != "pkg" {
		t.Errorf("unexpected file content %q, %v", data, err)
	}
	if !strings.Contains(out, "wrote 3 bytes") {
		t.Errorf("unexpected output %s", out)
	}
}

func TestTasksCreate_FromFile(t *testing.T) {
	srv := testutil.NewFakeServer()
	testutil.T(t).Setup(srv)
	srv.OnStatus(http.MethodPost, "/api/tasks", http.StatusOK)

	file := filepath.Join(t.TempDir(), "task.json")
	if err := os.WriteFile(file, []byte(`{"Name":"reboot","AssignedDevices":[5]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, writeConfig(t, srv.BaseURL()), "tasks", "create", "-f", file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "task reboot created") {
		t.Errorf("unexpected output %s", out)
	}
	req, ok := srv.Last()
	if !ok || !strings.Contains(string(req.Body), `"AssignedDevices":[5]`) {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestPing(t *testing.T) {
	srv := testutil.NewFakeServer()
	testutil.T(t).Setup(srv)
	for _, route := range []string{"/api/version", "/api/tasks", "/api/updates"} {
		srv.OnStatus(http.MethodGet, route, http.StatusOK)
	}

	out, err := execute(t, writeConfig(t, srv.BaseURL()), "ping")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"status": "up"`) {
		t.Errorf("unexpected output %s", out)
	}

	cfg := writeConfig(t, srv.BaseURL())
	if err := srv.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, cfg, "ping"); err != errUnhealthy {
		t.Errorf("expected %v, got %v", errUnhealthy, err)
	}
}

func TestMissingConfigFile(t *testing.T) {
	if _, err := execute(t, filepath.Join(t.TempDir(), "absent.yml"), "versions", "list"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestUserAgent(t *testing.T) {
	srv := testutil.NewFakeServer()
	testutil.T(t).Setup(srv)
	srv.OnJSON(http.MethodGet, "/api/tasks", http.StatusOK, `[]`)

	out, err := execute(t, writeConfig(t, srv.BaseURL()), "tasks", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("unexpected output %q", out)
	}
	req, _ := srv.Last()
	if ua := req.Header.Get("User-Agent"); !strings.HasPrefix(ua, serviceName+"/") {
		t.Errorf("unexpected user agent %q", ua)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), serviceName+" ") {
		t.Errorf("unexpected output %q", out.String())
	}
}
