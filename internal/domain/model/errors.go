package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned before any request is attempted when no base URL is set.
var ErrNotConfigured = errors.New("base URL not set: configure the device address first")

var (
	ErrSectionNotFound    = errors.New("section not found")
	ErrSectionType        = errors.New("section has a different type")
	ErrUnknownSectionType = errors.New("unknown section type")
	ErrSlotOutOfRange     = errors.New("slot index out of range")
)

// StatusError reports a non-2xx answer from the device.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %d", e.Op, e.Code)
}

// IsNotFound reports whether err carries an HTTP 404 from the device.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
