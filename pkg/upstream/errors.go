package upstream

import (
	"fmt"
	"unicode/utf8"
)

// maxBodySnippet caps how much of an error response body is kept on a StatusError.
const maxBodySnippet = 200

// StatusError is returned when an upstream API answers with a non-2xx status
// other than 429. Body holds at most the first 200 characters of the response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream: HTTP %d", e.Status)
	}
	return fmt.Sprintf("upstream: HTTP %d: %s", e.Status, e.Body)
}

// ConnError wraps a socket or connection-level failure.
type ConnError struct {
	Err error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("upstream: connection failed: %v", e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// TimeoutError wraps a request that exceeded its deadline.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream: request timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body is not valid JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("upstream: decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func truncateBody(b []byte) string {
	if len(b) <= maxBodySnippet {
		return string(b)
	}

	// Cut on a rune boundary so multi-byte text is never split mid-rune.
	cut := maxBodySnippet
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut])
}
