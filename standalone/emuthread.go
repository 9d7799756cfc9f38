package standalone

import (
	"sync"

	emucore "github.com/user-none/framepipe/api"
)

// SharedFramebuffer holds pixel data written by the emulation goroutine
// and read by the draw goroutine. Uses separate write and read buffers
// so the emu goroutine can write new data while the pipeline uploads the
// read copy.
type SharedFramebuffer struct {
	mu          sync.Mutex
	writePixels []byte // Written by emu goroutine under lock
	readPixels  []byte // Snapshot copied on Snapshot for safe external use
	width       int
	height      int
	stride      int
}

// NewSharedFramebuffer creates a pre-allocated framebuffer sized for the
// given screen dimensions (width and height in pixels, 4 bytes per pixel).
func NewSharedFramebuffer(width, height int) *SharedFramebuffer {
	size := width * height * 4
	return &SharedFramebuffer{
		writePixels: make([]byte, size),
		readPixels:  make([]byte, size),
	}
}

// Update copies framebuffer data from the emulation goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte, width, height, stride int) {
	sf.mu.Lock()
	n := stride * height
	if n > len(sf.writePixels) {
		n = len(sf.writePixels)
	}
	if n > len(pixels) {
		n = len(pixels)
	}
	copy(sf.writePixels[:n], pixels[:n])
	sf.width = width
	sf.height = height
	sf.stride = stride
	sf.mu.Unlock()
}

// Snapshot returns the most recent frame. The write buffer is copied into
// the read buffer under the lock; the returned pixels stay unchanged until
// the next call to Snapshot.
func (sf *SharedFramebuffer) Snapshot() emucore.Frame {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	n := sf.stride * sf.height
	if n > len(sf.writePixels) {
		n = len(sf.writePixels)
	}
	if n > 0 {
		copy(sf.readPixels[:n], sf.writePixels[:n])
	}
	return emucore.Frame{
		Pixels: sf.readPixels[:n],
		Width:  sf.width,
		Height: sf.height,
		Stride: sf.stride,
	}
}

// HaltControl lets the draw goroutine halt, resume and stop the frame
// producer. The producer calls Wait between frames and parks there while
// halted.
type HaltControl struct {
	mu      sync.Mutex
	haltReq bool
	halted  bool
	stopped bool
	wake    chan struct{} // closed to release a parked producer
	parked  chan struct{} // producer reports that it parked
	done    chan struct{} // closed by Stop
}

// NewHaltControl returns a control for a running producer.
func NewHaltControl() *HaltControl {
	return &HaltControl{
		parked: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Halt parks the producer at its next Wait and blocks until it has
// parked. It returns at once when already halted or stopped.
func (c *HaltControl) Halt() {
	c.mu.Lock()
	if c.haltReq || c.stopped {
		c.mu.Unlock()
		return
	}
	c.haltReq = true
	c.wake = make(chan struct{})
	c.mu.Unlock()

	select {
	case <-c.parked:
	case <-c.done:
	}
}

// Resume releases a halted producer.
func (c *HaltControl) Resume() {
	c.mu.Lock()
	c.release()
	c.mu.Unlock()
}

// release must be called with mu held.
func (c *HaltControl) release() {
	if c.haltReq {
		c.haltReq = false
		close(c.wake)
	}
	c.halted = false
}

// Wait is called by the producer between frames. It parks while a halt
// is pending and reports whether the producer should keep running.
func (c *HaltControl) Wait() bool {
	c.mu.Lock()
	for c.haltReq && !c.stopped {
		c.halted = true
		wake := c.wake
		c.mu.Unlock()

		select {
		case c.parked <- struct{}{}:
		default:
		}
		<-wake

		c.mu.Lock()
	}
	ok := !c.stopped
	c.mu.Unlock()
	return ok
}

// Stop makes every current and future Wait return false.
func (c *HaltControl) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.release()
	close(c.done)
}

// Running reports whether Stop has not been called.
func (c *HaltControl) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.stopped
}

// Halted reports whether the producer is parked.
func (c *HaltControl) Halted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// Source combines a shared framebuffer and its control into the frame
// source the presentation pipeline reads from.
type Source struct {
	fb  *SharedFramebuffer
	ctl *HaltControl
}

// NewSource returns a frame source backed by fb and ctl.
func NewSource(fb *SharedFramebuffer, ctl *HaltControl) *Source {
	return &Source{fb: fb, ctl: ctl}
}

// Snapshot implements emucore.FrameSource.
func (s *Source) Snapshot() emucore.Frame { return s.fb.Snapshot() }

// IsHalted implements emucore.FrameSource.
func (s *Source) IsHalted() bool { return s.ctl.Halted() }
