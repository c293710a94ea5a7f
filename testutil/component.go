package testutil

import "context"

// TestComponent is a test dependency with a start/stop lifecycle.
type TestComponent interface {
	// Name identifies the component in failure messages.
	Name() string

	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// Reset restores the component to its initial state.
	// This is typically used between test cases to ensure test isolation.
	Reset(ctx context.Context) error
}
