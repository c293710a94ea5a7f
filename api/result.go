package api

import "github.com/ISearcher/Rest4WebApi/httpclient/rest"

// listOf unwraps a list result, substituting an empty list for nil.
func listOf[U any](res *rest.Result[[]U], err error) ([]U, error) {
	if err != nil {
		return []U{}, err
	}
	if err := res.Err(); err != nil {
		return []U{}, err
	}
	if res.Value == nil {
		return []U{}, nil
	}
	return res.Value, nil
}

// succeeded reports whether a verb without payload succeeded.
func succeeded(out *rest.Outcome, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	if err := out.Err(); err != nil {
		return false, err
	}
	return true, nil
}
