// Package testutil provides a scripted fake WebApi backend for tests.
//
// FakeServer is a gin engine behind httptest. Replies are registered per
// method and path and every request is recorded:
//
//	func TestTasks(t *testing.T) {
//	    srv := testutil.NewFakeServer()
//	    testutil.T(t).Setup(srv)
//	    srv.OnJSON(http.MethodGet, "/api/tasks", http.StatusOK, `[]`)
//
//	    client, _ := httpclient.New(httpclient.Config{BaseURL: srv.BaseURL()})
//	    ...
//	    req, _ := srv.Last()
//	}
//
// FakeServer implements TestComponent, so Reset clears replies and
// recorded requests between cases.
package testutil
