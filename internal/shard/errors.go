package shard

import "fmt"

// FetchError reports that the status feed could not be retrieved:
// DNS, connection, timeout or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
