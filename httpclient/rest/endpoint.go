package rest

import "strings"

// apiPrefix is inserted between the base address and the resource route.
const apiPrefix = "api/"

// Endpoint is a base address bound to one resource route.
type Endpoint struct {
	base  string
	route string
}

// NewEndpoint returns the endpoint for route under base. A missing trailing
// slash on base is added.
func NewEndpoint(base, route string) Endpoint {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return Endpoint{base: base, route: strings.Trim(route, "/")}
}

// Base returns the slash-terminated base address.
func (e Endpoint) Base() string { return e.base }

// Route returns the resource route.
func (e Endpoint) Route() string { return e.route }

// URL returns the canonical endpoint URL, {base}api/{route}.
func (e Endpoint) URL() string {
	return e.base + apiPrefix + e.route
}

// Compose builds the target of an operation on endpoint. An empty method
// is skipped; otherwise method is appended and terminated with "/" unless
// it already ends with one. param, if set, follows.
//
//	Compose(u, "", "")      == u
//	Compose(u, "", "v1.2")  == u + "/v1.2"
//	Compose(u, "m", "")     == u + "/m/"
//	Compose(u, "m/", "7")   == u + "/m/7"
func Compose(endpoint, method, param string) string {
	if method == "" {
		if param == "" {
			return endpoint
		}
		return endpoint + "/" + param
	}
	if !strings.HasSuffix(method, "/") {
		method += "/"
	}
	return endpoint + "/" + method + param
}
