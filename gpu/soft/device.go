// Package soft implements gpu.Device on the CPU.
//
// Committed command streams execute in order on a dedicated timeline
// goroutine, so completion handlers run asynchronously with respect to
// the committing goroutine just as they would on real hardware. Compute
// dispatches are spread across worker goroutines by threadgroup row.
package soft

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/user-none/framepipe/gpu"
)

const defaultMaxTextureSize = 16384

// Option configures a Device.
type Option func(*Device)

// WithExecutionGate makes the timeline wait for a value on gate before
// executing each committed stream. Tests use it to hold GPU work in
// flight.
func WithExecutionGate(gate <-chan struct{}) Option {
	return func(d *Device) { d.gate = gate }
}

// WithFailingPrograms makes NewProgram fail for the named programs as if
// they did not compile.
func WithFailingPrograms(names ...string) Option {
	return func(d *Device) {
		for _, n := range names {
			d.failing[n] = true
		}
	}
}

// WithMaxTextureSize limits the width and height of textures the device
// will allocate.
func WithMaxTextureSize(n int) Option {
	return func(d *Device) { d.maxTextureSize = n }
}

// WithWorkers sets the number of goroutines used by compute dispatches.
func WithWorkers(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.workers = n
		}
	}
}

// Device is a software gpu.Device.
type Device struct {
	gate           <-chan struct{}
	failing        map[string]bool
	maxTextureSize int
	workers        int

	mu     sync.RWMutex
	closed bool
	queue  chan *stream
	done   chan struct{}
}

// New creates a device and starts its timeline goroutine. Call Close to
// stop it.
func New(opts ...Option) *Device {
	d := &Device{
		failing:        make(map[string]bool),
		maxTextureSize: defaultMaxTextureSize,
		workers:        runtime.GOMAXPROCS(0),
		queue:          make(chan *stream, 8),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	gpu.Logger().Info("soft device started", "workers", d.workers)
	return d
}

// Name returns the device name.
func (d *Device) Name() string { return "soft" }

// Close waits for every committed stream to finish and stops the
// timeline goroutine. Streams committed afterwards fail.
func (d *Device) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Device) run() {
	defer close(d.done)
	for s := range d.queue {
		if d.gate != nil {
			<-d.gate
		}
		s.execute()
	}
}

func (d *Device) submit(s *stream) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("commit on closed device: %w", gpu.ErrDeviceUnavailable)
	}
	d.queue <- s
	return nil
}

// NewTexture allocates a texture.
func (d *Device) NewTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("texture %q: invalid size %dx%d: %w",
			desc.Label, desc.Width, desc.Height, gpu.ErrResourceAllocation)
	}
	if desc.Width > d.maxTextureSize || desc.Height > d.maxTextureSize {
		return nil, fmt.Errorf("texture %q: %dx%d exceeds limit %d: %w",
			desc.Label, desc.Width, desc.Height, d.maxTextureSize, gpu.ErrResourceAllocation)
	}
	gpu.Logger().Debug("soft: new texture", "label", desc.Label,
		"format", desc.Format, "width", desc.Width, "height", desc.Height)
	return newTexture(desc), nil
}

// NewBuffer allocates a zeroed float buffer of the given length.
func (d *Device) NewBuffer(length int) (gpu.Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("buffer length %d: %w", length, gpu.ErrResourceAllocation)
	}
	return &buffer{data: make([]float32, length)}, nil
}

// NewVertexBuffer copies vertices into a new vertex buffer.
func (d *Device) NewVertexBuffer(vertices []gpu.Vertex) (gpu.VertexBuffer, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("empty vertex buffer: %w", gpu.ErrResourceAllocation)
	}
	vb := &vertexBuffer{vertices: make([]gpu.Vertex, len(vertices))}
	copy(vb.vertices, vertices)
	return vb, nil
}

// NewProgram looks up the CPU implementation registered under name.
func (d *Device) NewProgram(name string) (gpu.Program, error) {
	if d.failing[name] {
		return nil, fmt.Errorf("program %q: %w", name, gpu.ErrKernelBuild)
	}
	run, ok := programs[name]
	if !ok {
		return nil, fmt.Errorf("program %q not found: %w", name, gpu.ErrKernelBuild)
	}
	return &program{name: name, run: run}, nil
}

// NewCommandStream returns an empty command stream.
func (d *Device) NewCommandStream() (gpu.CommandStream, error) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("command stream on closed device: %w", gpu.ErrDeviceUnavailable)
	}
	return &stream{dev: d}, nil
}

type buffer struct {
	mu   sync.Mutex
	data []float32
}

func (b *buffer) Len() int { return len(b.data) }

func (b *buffer) Floats() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float32, len(b.data))
	copy(out, b.data)
	return out
}

func (b *buffer) Write(offset int, values []float32) error {
	if offset < 0 || offset+len(values) > len(b.data) {
		return fmt.Errorf("write %d floats at %d into buffer of %d: %w",
			len(values), offset, len(b.data), gpu.ErrOutOfBounds)
	}
	b.mu.Lock()
	copy(b.data[offset:], values)
	b.mu.Unlock()
	return nil
}

func (b *buffer) Release() {}

type vertexBuffer struct {
	vertices []gpu.Vertex
}

func (vb *vertexBuffer) Len() int { return len(vb.vertices) }
func (vb *vertexBuffer) Release() {}

type program struct {
	name string
	run  kernelFunc
}

func (p *program) Name() string { return p.name }
