package gpu

import "image"

// TextureDescriptor describes a texture to allocate.
type TextureDescriptor struct {
	Label  string
	Format PixelFormat
	Width  int
	Height int
	Usage  Usage
}

// Texture is a two-dimensional image resident on the device.
type Texture interface {
	Label() string
	Width() int
	Height() int
	Format() PixelFormat
	Usage() Usage

	// Replace copies RGBA8 pixels into region. bytesPerRow is the stride
	// of pixels. The copy is visible to commands committed afterwards.
	Replace(region image.Rectangle, pixels []byte, bytesPerRow int) error

	// ReadPixels returns the RGBA8 contents of region, tightly packed.
	// Callers must make sure no committed work still writes the texture.
	ReadPixels(region image.Rectangle) ([]byte, error)

	// Release frees the texture. Using it afterwards is undefined.
	Release()
}

// Buffer is a device buffer of 32-bit floats passed to compute programs.
type Buffer interface {
	Len() int
	Floats() []float32
	Write(offset int, values []float32) error
	Release()
}

// Program is a compiled compute program.
type Program interface {
	Name() string
}

// Size is a three-dimensional extent in threads or threadgroups.
type Size struct {
	Width, Height, Depth int
}

// ThreadgroupSize is the number of threads per threadgroup used for all
// image kernels.
var ThreadgroupSize = Size{Width: 16, Height: 16, Depth: 1}

// ThreadgroupsFor returns the number of threadgroups needed to cover a
// width x height grid with one thread per pixel.
func ThreadgroupsFor(width, height int) Size {
	return Size{
		Width:  (width + ThreadgroupSize.Width - 1) / ThreadgroupSize.Width,
		Height: (height + ThreadgroupSize.Height - 1) / ThreadgroupSize.Height,
		Depth:  1,
	}
}

// Dispatch is one compute kernel invocation: every target pixel is
// computed from Source by Program, sampling with Sampler. Buffers are the
// program's auxiliary parameters in binding order.
type Dispatch struct {
	Program      Program
	Sampler      SamplerMode
	Source       Texture
	Target       Texture
	Buffers      []Buffer
	Threadgroups Size
	Threads      Size
}

// Vertex is the layout of every vertex drawn by render passes.
type Vertex struct {
	Position [4]float32
	TexCoord [2]float32
}

// VertexBuffer is an immutable array of vertices resident on the device.
type VertexBuffer interface {
	Len() int
	Release()
}

// Uniforms are the per-draw values consumed by the vertex and fragment
// stages. MVP is row-major and transforms column vectors.
type Uniforms struct {
	MVP   [16]float32
	Alpha float32
}

// RenderPassDescriptor describes the attachments of a render pass. Both
// attachments are cleared when the pass begins.
type RenderPassDescriptor struct {
	Color      Texture
	ClearColor [4]float32
	Depth      Texture
	ClearDepth float32
}

// RenderEncoder records draw calls for one render pass. Depth testing uses
// the less-than comparison with depth writes enabled; fragments are
// blended with source alpha over the attachment.
type RenderEncoder interface {
	SetVertexBuffer(vb VertexBuffer)
	SetUniforms(u Uniforms)
	SetTexture(t Texture)
	SetSampler(m SamplerMode)

	// Draw records count vertices starting at first as a triangle list.
	Draw(first, count int)

	End()
}

// CommandStream records work for the device. Nothing executes until
// Commit. A stream is used by a single goroutine and committed once.
type CommandStream interface {
	Dispatch(d Dispatch)
	BeginRenderPass(desc RenderPassDescriptor) (RenderEncoder, error)

	// OnCompleted registers fn to run once the device has finished every
	// command of the stream. Handlers run on the device's timeline, not on
	// the committing goroutine.
	OnCompleted(fn func())

	// Present schedules d to be shown after the stream's work completes.
	Present(d Drawable)

	Commit() error
}

// Drawable is a presentable render target obtained from a surface.
type Drawable interface {
	Texture() Texture
}

// Surface hands out drawables. NextDrawable returns false when none is
// available, in which case the frame is dropped.
type Surface interface {
	NextDrawable() (Drawable, bool)
}

// Device creates resources and command streams.
type Device interface {
	Name() string
	NewTexture(desc TextureDescriptor) (Texture, error)
	NewBuffer(length int) (Buffer, error)
	NewVertexBuffer(vertices []Vertex) (VertexBuffer, error)

	// NewProgram builds the compute program registered under name. It
	// returns an error wrapping ErrKernelBuild if the program is unknown
	// or fails to compile.
	NewProgram(name string) (Program, error)

	NewCommandStream() (CommandStream, error)
}
