package scan

import "errors"

var (
	// ErrInvalidRange indicates a nonce range ending before it starts.
	ErrInvalidRange = errors.New("invalid nonce range")

	// ErrTimeout indicates a scan that ran past its own TimeoutMs limit.
	ErrTimeout = errors.New("scan timed out")
)
