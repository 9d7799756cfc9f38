package gpu

import "errors"

// Device errors. Implementations wrap these with context so callers can
// test with errors.Is.
var (
	// ErrDeviceUnavailable is returned when no usable device can be opened.
	ErrDeviceUnavailable = errors.New("gpu: device unavailable")

	// ErrKernelBuild is returned when a compute or render program fails to
	// compile or is unknown to the device.
	ErrKernelBuild = errors.New("gpu: kernel build failed")

	// ErrResourceAllocation is returned when a texture or buffer cannot be
	// allocated.
	ErrResourceAllocation = errors.New("gpu: resource allocation failed")

	// ErrStreamCommitted is returned when a command stream is used after
	// Commit.
	ErrStreamCommitted = errors.New("gpu: command stream already committed")

	// ErrPassOpen is returned when a command is encoded while a render pass
	// is still open.
	ErrPassOpen = errors.New("gpu: render pass still open")

	// ErrOutOfBounds is returned when a region or offset lies outside the
	// resource.
	ErrOutOfBounds = errors.New("gpu: region out of bounds")
)
