package pipeline

import "errors"

var (
	// ErrPrecondition reports that a draw could not be encoded because a
	// resource, frame or command stream was not usable. It is fatal.
	ErrPrecondition = errors.New("pipeline: precondition failed")

	// ErrClosed is returned by operations on a closed pipeline.
	ErrClosed = errors.New("pipeline: closed")
)
