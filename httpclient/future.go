package httpclient

import "context"

// Future is the pending result of a submitted request.
type Future struct {
	done chan struct{}
	resp *Response
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(resp *Response, err error) {
	f.resp, f.err = resp, err
	close(f.done)
}

// Done is closed when the request has completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the request completes or ctx is done. In the latter
// case ctx's error is returned and the request keeps running until its
// own context ends.
func (f *Future) Await(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
