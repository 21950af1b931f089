package attribution

import "errors"

var (
	// ErrSinkUnavailable indicates no usable sink capability was detected.
	ErrSinkUnavailable = errors.New("attribution sink unavailable")
	// ErrStateCorrupt indicates persisted install state could not be decoded.
	ErrStateCorrupt = errors.New("attribution state corrupt")
)
