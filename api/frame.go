package emucore

// Frame is an immutable snapshot of the emulator's display output in
// RGBA8 byte order. Pixels must not be modified after the frame has been
// handed out.
type Frame struct {
	Pixels []byte
	Width  int
	Height int
	Stride int // bytes per row
}

// Valid reports whether the frame describes a usable pixel buffer.
func (f Frame) Valid() bool {
	if f.Width <= 0 || f.Height <= 0 || f.Stride < f.Width*4 {
		return false
	}
	return len(f.Pixels) >= f.Stride*(f.Height-1)+f.Width*4
}

// FrameSource is implemented by the emulator side of the presentation
// pipeline. Both methods are called from the draw goroutine once per frame.
type FrameSource interface {
	// Snapshot returns the most recent complete frame.
	Snapshot() Frame

	// IsHalted reports whether emulation is currently halted. A halted
	// machine is drawn semi-transparent.
	IsHalted() bool
}
