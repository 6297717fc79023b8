package etim

import "fmt"

// ValidationError reports a malformed query descriptor. It is raised before
// key derivation and never reaches the network.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + e.Reason
}

// UpstreamError reports a non-2xx, non-401 response or a malformed body from
// the API. It is fatal for the call and not retried.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed (status %d): %s", e.Status, e.Body)
}

// TransportError reports a connection or timeout failure. It is fatal for
// the call; timeouts are not a retry trigger.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport failure: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
