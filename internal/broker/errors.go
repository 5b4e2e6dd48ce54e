package broker

import "errors"

var (
	// ErrMalformedMessage is returned when a queued payload cannot be decoded.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrTimeout is returned when a send or receive exceeds its configured timeout.
	ErrTimeout = errors.New("queue operation timed out")
)
