package transport

import "fmt"

// RequestError is the single outward-facing failure type for anything that
// goes wrong between issuing a request and decoding its response: transport
// faults, protocol errors and signature rejections all surface as one of
// these, carrying enough context to diagnose without a packet capture.
type RequestError struct {
	Method string
	URL    string
	// Status is the HTTP status code, or 0 for transport-level failures.
	Status int
	// Message is the server's structured error message when one was present,
	// otherwise a description of the failure.
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Method, e.URL, e.Message)
}

func (e *RequestError) Unwrap() error { return e.Err }
