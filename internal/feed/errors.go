package feed

import (
	"errors"
	"fmt"
)

// NetworkError reports a transport failure: connection, timeout or a non-2xx response
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calendar request to %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("calendar request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FormatError reports a document that cannot be read as a calendar
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid calendar document: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err wraps a NetworkError
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsFormatError reports whether err wraps a FormatError
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}
