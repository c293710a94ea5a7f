package api

import (
	"context"
	"testing"

	"github.com/ISearcher/Rest4WebApi/httpclient"
	"github.com/ISearcher/Rest4WebApi/logger"
	"github.com/ISearcher/Rest4WebApi/testutil"
)

// newConnection starts a fake backend and connects to it.
func newConnection(t *testing.T) (*testutil.FakeServer, *Connection) {
	t.Helper()
	srv := testutil.NewFakeServer()
	testutil.T(t).Setup(srv)

	conn, err := Connect(httpclient.Config{BaseURL: srv.BaseURL(), Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(conn.Close)
	return srv, conn
}

func lastRequest(t *testing.T, srv *testutil.FakeServer) testutil.Request {
	t.Helper()
	req, ok := srv.Last()
	if !ok {
		t.Fatal("expected a request to be recorded")
	}
	return req
}

var ctx = context.Background()
