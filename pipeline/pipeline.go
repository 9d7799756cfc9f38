// Package pipeline turns emulator frames into displayed images: it
// uploads each frame, runs the selected upscaler and filter, and draws the
// result either as a flat quad or as the face of an animated cube.
package pipeline

import (
	"fmt"
	"image"
	"sync"

	emucore "github.com/user-none/framepipe/api"
	"github.com/user-none/framepipe/camera"
	"github.com/user-none/framepipe/gpu"
	"github.com/user-none/framepipe/kernel"
	"github.com/user-none/framepipe/projection"
)

// RenderMode selects how the filtered texture is drawn.
type RenderMode int

const (
	// FlatPresentation fills the viewport with the emulator image.
	FlatPresentation RenderMode = iota
	// AnimatedCubePresentation shows the image on the front face of a
	// cube in front of a background.
	AnimatedCubePresentation
)

func (m RenderMode) String() string {
	switch m {
	case FlatPresentation:
		return "flat"
	case AnimatedCubePresentation:
		return "cube"
	default:
		return "unknown"
	}
}

// Config holds the settings a pipeline is created with. Zero sizes are
// replaced by their defaults.
type Config struct {
	SourceWidth   int
	SourceHeight  int
	UpscaleFactor int
	MinDepthSize  int

	Upscaler int
	Filter   int
	Shader   kernel.Options

	Fullscreen      bool
	KeepAspectRatio bool
	DrawEmulator    bool

	Region     emucore.Region
	Background image.Image // nil selects a gray fill
}

// Defaults.
const (
	DefaultSourceSize    = 512
	DefaultUpscaleFactor = 4
	DefaultMinDepthSize  = 2048
)

// DefaultConfig returns the settings of a freshly started emulator window.
func DefaultConfig() Config {
	return Config{
		SourceWidth:   DefaultSourceSize,
		SourceHeight:  DefaultSourceSize,
		UpscaleFactor: DefaultUpscaleFactor,
		MinDepthSize:  DefaultMinDepthSize,
		Shader:        kernel.TFTOptions(),
		DrawEmulator:  true,
		Region:        emucore.RegionPAL,
	}
}

// Stats counts pipeline events.
type Stats struct {
	Frames   int // frames committed
	Dropped  int // frames skipped for lack of a drawable
	Reshapes int // viewport rebuilds of depth and matrices
}

// Pipeline draws emulator frames. Draw, Camera and the setters belong to
// the draw goroutine; Capture and Stats may be called from anywhere.
type Pipeline struct {
	dev gpu.Device
	src emucore.FrameSource

	textures  *TextureSet
	upscalers *kernel.Gallery
	filters   *kernel.Gallery
	vertices  gpu.VertexBuffer
	proj      *projection.Builder
	anim      *camera.Animator
	slot      *FrameSlot

	sourceWidth, sourceHeight int

	mu sync.Mutex
	// Guarded by mu.
	width, height int
	dirty         bool
	builtW        int
	builtH        int
	upscaler      int
	filter        int
	shader        kernel.Options
	fullscreen    bool
	keepAspect    bool
	drawEmulator  bool
	region        emucore.Region
	stats         Stats
	closed        bool
	dropWarned    bool
}

// New creates a pipeline drawing frames from src on dev. Any error is
// fatal: the device cannot run the pipeline.
func New(dev gpu.Device, src emucore.FrameSource, cfg Config) (*Pipeline, error) {
	def := DefaultConfig()
	if cfg.SourceWidth <= 0 || cfg.SourceHeight <= 0 {
		cfg.SourceWidth, cfg.SourceHeight = def.SourceWidth, def.SourceHeight
	}
	if cfg.UpscaleFactor <= 0 {
		cfg.UpscaleFactor = def.UpscaleFactor
	}
	if cfg.MinDepthSize <= 0 {
		cfg.MinDepthSize = def.MinDepthSize
	}

	p := &Pipeline{
		dev:          dev,
		src:          src,
		proj:         projection.NewBuilder(),
		anim:         camera.New(),
		slot:         NewFrameSlot(),
		sourceWidth:  cfg.SourceWidth,
		sourceHeight: cfg.SourceHeight,
		upscaler:     cfg.Upscaler,
		filter:       cfg.Filter,
		shader:       cfg.Shader,
		fullscreen:   cfg.Fullscreen,
		keepAspect:   cfg.KeepAspectRatio,
		drawEmulator: cfg.DrawEmulator,
		region:       cfg.Region,
	}

	var err error
	p.textures, err = NewTextureSet(dev, cfg.SourceWidth, cfg.SourceHeight,
		cfg.UpscaleFactor, cfg.MinDepthSize, backgroundPixels(cfg.Background))
	if err != nil {
		return nil, fmt.Errorf("textures: %w", err)
	}

	p.upscalers, err = kernel.NewUpscalerGallery(dev, cfg.UpscaleFactor)
	if err != nil {
		p.release()
		return nil, err
	}
	p.filters, err = kernel.NewFilterGallery(dev, cfg.UpscaleFactor, cfg.Shader)
	if err != nil {
		p.release()
		return nil, err
	}

	p.vertices, err = dev.NewVertexBuffer(buildVertices(p.textureRect(cfg.Region)))
	if err != nil {
		p.release()
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}

	logger().Info("pipeline created", "device", dev.Name(),
		"source", fmt.Sprintf("%dx%d", cfg.SourceWidth, cfg.SourceHeight),
		"factor", cfg.UpscaleFactor)
	return p, nil
}

func (p *Pipeline) textureRect(r emucore.Region) emucore.TextureRect {
	return r.TextureRect(p.sourceWidth, p.sourceHeight)
}

// Resize records a new viewport size. Depth and matrices are rebuilt on
// the next draw, and only if the size differs from the one they were
// built for.
func (p *Pipeline) Resize(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if width == p.width && height == p.height {
		return
	}
	p.width, p.height = width, height
	p.dirty = true
}

// SetUpscaler selects the upscaler by index. Unavailable indices draw with
// the bypass upscaler.
func (p *Pipeline) SetUpscaler(i int) {
	p.mu.Lock()
	p.upscaler = i
	p.mu.Unlock()
}

// SetFilter selects the filter by index. Unavailable indices draw with
// the bypass filter.
func (p *Pipeline) SetFilter(i int) {
	p.mu.Lock()
	p.filter = i
	p.mu.Unlock()
}

// SetShaderOptions reconfigures the filters. It waits for the frame in
// flight so that no running kernel sees its parameters change.
func (p *Pipeline) SetShaderOptions(opts kernel.Options) error {
	t := p.slot.Acquire()
	defer t.Release()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if opts == p.shader {
		return nil
	}
	p.shader = opts
	return p.filters.Configure(opts)
}

// SetFullscreen sets whether the window covers the screen.
func (p *Pipeline) SetFullscreen(v bool) {
	p.mu.Lock()
	p.fullscreen = v
	p.mu.Unlock()
}

// SetKeepAspectRatio sets whether a fullscreen image keeps its aspect
// ratio. Only a fullscreen image that may stretch is drawn flat.
func (p *Pipeline) SetKeepAspectRatio(v bool) {
	p.mu.Lock()
	p.keepAspect = v
	p.mu.Unlock()
}

// SetDrawEmulator sets whether the emulator image is drawn at all.
func (p *Pipeline) SetDrawEmulator(v bool) {
	p.mu.Lock()
	p.drawEmulator = v
	p.mu.Unlock()
}

// SetRegion switches the visible area to the region's border geometry.
func (p *Pipeline) SetRegion(r emucore.Region) error {
	t := p.slot.Acquire()
	defer t.Release()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if r == p.region {
		return nil
	}
	vb, err := p.dev.NewVertexBuffer(buildVertices(p.textureRect(r)))
	if err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}
	p.vertices.Release()
	p.vertices = vb
	p.region = r
	return nil
}

// Camera returns the camera animator for starting presets.
func (p *Pipeline) Camera() *camera.Animator {
	return p.anim
}

// Mode returns the render mode the next frame is drawn in.
func (p *Pipeline) Mode() RenderMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode()
}

func (p *Pipeline) mode() RenderMode {
	if p.fullscreen && !p.keepAspect {
		return FlatPresentation
	}
	return AnimatedCubePresentation
}

// Stats returns a copy of the event counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// frameState is the part of the settings one frame is drawn with.
type frameState struct {
	mode         RenderMode
	fullscreen   bool
	drawEmulator bool
	upscaler     int
	filter       int
	reshape      bool
	width        int
	height       int
}

func (p *Pipeline) snapshot() frameState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := frameState{
		mode:         p.mode(),
		fullscreen:   p.fullscreen,
		drawEmulator: p.drawEmulator,
		upscaler:     p.upscaler,
		filter:       p.filter,
		width:        p.width,
		height:       p.height,
	}
	if p.dirty {
		p.dirty = false
		s.reshape = p.width != p.builtW || p.height != p.builtH
	}
	return s
}

// Draw encodes and commits one frame on a drawable from surface. It blocks
// while the previous frame is still executing. A missing drawable drops
// the frame and reports false with a nil error. Any error is fatal.
func (p *Pipeline) Draw(surface gpu.Surface) (bool, error) {
	ticket := p.slot.Acquire()
	committed := false
	defer func() {
		if !committed {
			ticket.Release()
		}
	}()

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return false, ErrClosed
	}

	fs := p.snapshot()
	if fs.reshape {
		if err := p.reshape(fs.width, fs.height); err != nil {
			return false, err
		}
	}

	drawable, ok := surface.NextDrawable()
	if !ok {
		p.mu.Lock()
		p.stats.Dropped++
		warn := !p.dropWarned
		p.dropWarned = true
		p.mu.Unlock()
		if warn {
			logger().Warn("no drawable available, dropping frames")
		}
		return false, nil
	}
	p.mu.Lock()
	p.dropWarned = false
	p.mu.Unlock()

	// A drawable that disagrees with the last Resize defines the viewport.
	color := drawable.Texture()
	if dw, dh := color.Width(), color.Height(); !p.builtFor(dw, dh) {
		if err := p.reshape(dw, dh); err != nil {
			return false, err
		}
	}

	if err := p.upload(); err != nil {
		return false, err
	}

	cs, err := p.dev.NewCommandStream()
	if err != nil {
		return false, fmt.Errorf("%w: command stream: %w", ErrPrecondition, err)
	}

	p.upscalers.Current(fs.upscaler).Apply(cs, p.textures.Source, p.textures.Upscaled)
	filter := p.filters.Current(fs.filter)
	filter.Apply(cs, p.textures.Upscaled, p.textures.Filtered)

	enc, err := cs.BeginRenderPass(gpu.RenderPassDescriptor{
		Color:      color,
		ClearColor: [4]float32{0, 0, 0, 1},
		Depth:      p.textures.Depth,
		ClearDepth: 1,
	})
	if err != nil {
		return false, fmt.Errorf("%w: render pass: %w", ErrPrecondition, err)
	}
	enc.SetVertexBuffer(p.vertices)

	if fs.mode == FlatPresentation {
		enc.SetUniforms(gpu.Uniforms{MVP: p.proj.Flat(), Alpha: 1})
		enc.SetTexture(p.textures.Filtered)
		enc.SetSampler(filter.Sampler())
		enc.Draw(flatFirst, flatCount)
	} else {
		p.drawCube(enc, fs, filter)
	}
	enc.End()

	cs.OnCompleted(ticket.Release)
	cs.Present(drawable)
	if err := cs.Commit(); err != nil {
		return false, fmt.Errorf("%w: commit: %w", ErrPrecondition, err)
	}
	committed = true

	p.mu.Lock()
	p.stats.Frames++
	p.mu.Unlock()
	return true, nil
}

func (p *Pipeline) drawCube(enc gpu.RenderEncoder, fs frameState, filter *kernel.ComputeKernel) {
	animating := p.anim.Animating()
	if animating {
		p.anim.Tick()
		p.proj.UpdateCube(p.anim.Current(), p.anim.Animating())
	}

	if !fs.fullscreen && (animating || !fs.drawEmulator) {
		enc.SetUniforms(gpu.Uniforms{MVP: p.proj.Background(), Alpha: 1})
		enc.SetTexture(p.textures.Background)
		enc.SetSampler(gpu.SamplerLinear)
		enc.Draw(backgroundFirst, backgroundCount)
	}

	if fs.drawEmulator {
		alpha := p.anim.Current().Alpha
		if p.src.IsHalted() {
			alpha = 0.5
		}
		count := cubeFrontCount
		if animating {
			count = cubeSideCount
		}
		enc.SetUniforms(gpu.Uniforms{MVP: p.proj.Cube(), Alpha: alpha})
		enc.SetTexture(p.textures.Filtered)
		enc.SetSampler(filter.Sampler())
		enc.Draw(cubeFirst, count)
	}
}

func (p *Pipeline) builtFor(width, height int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.builtW == width && p.builtH == height
}

func (p *Pipeline) reshape(width, height int) error {
	if _, err := p.textures.EnsureDepth(width, height); err != nil {
		return fmt.Errorf("%w: depth: %w", ErrPrecondition, err)
	}
	p.proj.Reshape(width, height, p.anim.Current(), p.anim.Animating())

	p.mu.Lock()
	p.builtW, p.builtH = width, height
	p.stats.Reshapes++
	p.mu.Unlock()
	logger().Debug("viewport rebuilt", "width", width, "height", height)
	return nil
}

// upload copies the current frame into the source texture, clipped to
// the texture size.
func (p *Pipeline) upload() error {
	f := p.src.Snapshot()
	if !f.Valid() {
		return fmt.Errorf("%w: invalid frame %dx%d stride %d (%d bytes)",
			ErrPrecondition, f.Width, f.Height, f.Stride, len(f.Pixels))
	}
	region := image.Rect(0, 0, min(f.Width, p.sourceWidth), min(f.Height, p.sourceHeight))
	if err := p.textures.Source.Replace(region, f.Pixels, f.Stride); err != nil {
		return fmt.Errorf("%w: upload: %w", ErrPrecondition, err)
	}
	return nil
}

// Close waits for the frame in flight and frees every resource. Further
// calls return ErrClosed.
func (p *Pipeline) Close() error {
	t := p.slot.Acquire()
	defer t.Release()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	p.release()
	return nil
}

func (p *Pipeline) release() {
	if p.vertices != nil {
		p.vertices.Release()
		p.vertices = nil
	}
	if p.filters != nil {
		p.filters.Release()
	}
	if p.upscalers != nil {
		p.upscalers.Release()
	}
	if p.textures != nil {
		p.textures.Release()
	}
}
