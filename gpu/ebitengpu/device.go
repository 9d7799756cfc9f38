// Package ebitengpu implements the gpu device on top of ebiten. Compute
// programs are Kage fragment shaders drawn over the whole target, and
// render passes project triangles on the CPU and draw them back to front
// with DrawTriangles.
//
// All methods must be called from ebiten's Update or Draw. Committed work
// is handed to ebiten immediately, so completion handlers run inside
// Commit.
package ebitengpu

import (
	"fmt"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/framepipe/gpu"
)

// Device is an ebiten-backed gpu.Device.
type Device struct {
	mu      sync.Mutex
	shaders map[string]*ebiten.Shader
}

// New returns a device. Shaders are compiled on first use.
func New() *Device {
	gpu.Logger().Info("ebiten device created")
	return &Device{shaders: make(map[string]*ebiten.Shader)}
}

// Name returns the device name.
func (d *Device) Name() string { return "ebiten" }

// NewTexture allocates a texture. Depth textures carry no image.
func (d *Device) NewTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("texture %q: invalid size %dx%d: %w",
			desc.Label, desc.Width, desc.Height, gpu.ErrResourceAllocation)
	}
	t := &texture{desc: desc}
	if !desc.Format.IsDepth() {
		t.img = ebiten.NewImage(desc.Width, desc.Height)
	}
	gpu.Logger().Debug("ebiten: new texture", "label", desc.Label,
		"format", desc.Format, "width", desc.Width, "height", desc.Height)
	return t, nil
}

// NewBuffer allocates a zeroed float buffer. Buffers live in CPU memory
// and are passed to shaders as uniforms.
func (d *Device) NewBuffer(length int) (gpu.Buffer, error) {
	if length <= 0 {
		return nil, fmt.Errorf("buffer length %d: %w", length, gpu.ErrResourceAllocation)
	}
	return &buffer{data: make([]float32, length)}, nil
}

// NewVertexBuffer copies vertices.
func (d *Device) NewVertexBuffer(vertices []gpu.Vertex) (gpu.VertexBuffer, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("empty vertex buffer: %w", gpu.ErrResourceAllocation)
	}
	vs := make([]gpu.Vertex, len(vertices))
	copy(vs, vertices)
	return &vertexBuffer{vertices: vs}, nil
}

// NewProgram compiles the shader behind the named program.
func (d *Device) NewProgram(name string) (gpu.Program, error) {
	spec, ok := programSpecs[name]
	if !ok {
		return nil, fmt.Errorf("program %q: unknown: %w", name, gpu.ErrKernelBuild)
	}
	s, err := d.shader(spec.shader)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w: %w", name, gpu.ErrKernelBuild, err)
	}
	p := &program{name: name, spec: spec, shader: s}
	if spec.cascade {
		if p.fallback, err = d.shader("copy"); err != nil {
			return nil, fmt.Errorf("program %q: %w: %w", name, gpu.ErrKernelBuild, err)
		}
	}
	return p, nil
}

func (d *Device) shader(name string) (*ebiten.Shader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.shaders[name]; ok {
		return s, nil
	}
	s, err := ebiten.NewShader(shaderSources[name])
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader %s: %w", name, err)
	}
	d.shaders[name] = s
	return s, nil
}

// NewCommandStream returns an empty stream.
func (d *Device) NewCommandStream() (gpu.CommandStream, error) {
	return &stream{}, nil
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
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset < 0 || offset+len(values) > len(b.data) {
		return fmt.Errorf("write [%d,+%d) into buffer of %d: %w",
			offset, len(values), len(b.data), gpu.ErrOutOfBounds)
	}
	copy(b.data[offset:], values)
	return nil
}

func (b *buffer) Release() {}

type vertexBuffer struct {
	vertices []gpu.Vertex
}

func (vb *vertexBuffer) Len() int { return len(vb.vertices) }
func (vb *vertexBuffer) Release() {}
