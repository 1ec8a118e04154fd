package services

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned for malformed input that never reached payment validation
var ErrInvalidRequest = errors.New("invalid request")

// ErrArchiveDisabled is returned by archive operations when no archive storage is configured
var ErrArchiveDisabled = errors.New("report archive is not configured")

func invalidRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
