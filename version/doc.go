// Package version reports the build identity of the client.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/ISearcher/Rest4WebApi/version.Version=1.0.0"
//
// Missing values are taken from the VCS stamp embedded by the Go toolchain.
package version
