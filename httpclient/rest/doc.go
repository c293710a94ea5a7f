// Package rest provides the typed verbs resource clients are built from.
//
// A Resource is bound to one Endpoint, the base address plus "api/" and a
// resource route. Every verb composes its target the same way:
//
//	{base}api/{route}[/{method}/][{param}]
//
// and funnels through the same steps: encode the body with the client's
// codec, execute, validate the status, decode the typed result.
//
//	client, _ := httpclient.New(httpclient.Config{BaseURL: "https://webapi.local/"})
//	tasks := rest.NewResource[api.Task](client, "tasks")
//
//	out, err := tasks.Create(ctx, task, "")
//	res, err := rest.GetByParamAs[[]api.Task](ctx, tasks.Core, deviceID, "")
//
// Verbs return a Result or Outcome whose Kind tells a success apart from a
// rejected status. 401, 403 and 500 responses and transport faults are
// returned as *httpclient.Failure errors instead.
package rest
