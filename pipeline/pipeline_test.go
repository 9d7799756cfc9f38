package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	emucore "github.com/user-none/framepipe/api"
	"github.com/user-none/framepipe/camera"
	"github.com/user-none/framepipe/gpu"
	"github.com/user-none/framepipe/gpu/soft"
	"github.com/user-none/framepipe/kernel"
)

var frameColor = [4]uint8{200, 40, 40, 255}

type testSource struct {
	mu     sync.Mutex
	frame  emucore.Frame
	halted bool
}

func newTestSource(c [4]uint8) *testSource {
	w, h := emucore.NTSCPixels, emucore.PALRasterlines
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:i+4], c[:])
	}
	return &testSource{frame: emucore.Frame{Pixels: pix, Width: w, Height: h, Stride: w * 4}}
}

func (s *testSource) Snapshot() emucore.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *testSource) IsHalted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

func (s *testSource) setHalted(v bool) {
	s.mu.Lock()
	s.halted = v
	s.mu.Unlock()
}

// smallConfig keeps the soft device fast.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.SourceWidth, cfg.SourceHeight = 32, 32
	cfg.UpscaleFactor = 2
	cfg.MinDepthSize = 64
	return cfg
}

func newTestPipeline(t *testing.T, dev *soft.Device, src emucore.FrameSource, cfg Config) *Pipeline {
	t.Helper()
	p, err := New(dev, src, cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() {
		p.Close()
		dev.Close()
	})
	return p
}

func drawFrame(t *testing.T, p *Pipeline, s gpu.Surface) {
	t.Helper()
	ok, err := p.Draw(s)
	if err != nil {
		t.Fatalf("Draw() error: %v", err)
	}
	if !ok {
		t.Fatal("Draw() dropped the frame")
	}
}

// wait blocks until the frame in flight has completed.
func wait(p *Pipeline) {
	p.slot.Acquire().Release()
}

func presentedAt(t *testing.T, p *Pipeline, s *soft.Surface, x, y int) [4]uint8 {
	t.Helper()
	wait(p)
	img, n := s.Presented()
	if n == 0 || img == nil {
		t.Fatal("nothing presented")
	}
	c := img.RGBAAt(x, y)
	return [4]uint8{c.R, c.G, c.B, c.A}
}

func near(a, b [4]uint8) bool {
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < -1 || d > 1 {
			return false
		}
	}
	return true
}

func TestResizeIdempotent(t *testing.T) {
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), smallConfig())
	s := soft.NewSurface(32, 24)

	p.Resize(32, 24)
	p.Resize(32, 24)
	drawFrame(t, p, s)
	drawFrame(t, p, s)
	if got := p.Stats().Reshapes; got != 1 {
		t.Errorf("Reshapes after repeated Resize = %d, want 1", got)
	}

	// Changing and restoring the size before a draw rebuilds nothing.
	p.Resize(40, 30)
	p.Resize(32, 24)
	drawFrame(t, p, s)
	if got := p.Stats().Reshapes; got != 1 {
		t.Errorf("Reshapes after restoring size = %d, want 1", got)
	}

	p.Resize(40, 30)
	s.Resize(40, 30)
	drawFrame(t, p, s)
	if got := p.Stats().Reshapes; got != 2 {
		t.Errorf("Reshapes after new size = %d, want 2", got)
	}
	if got := p.Stats().Frames; got != 4 {
		t.Errorf("Frames = %d, want 4", got)
	}
}

func TestDrawableSizeDrivesReshape(t *testing.T) {
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), smallConfig())
	s := soft.NewSurface(16, 12)

	drawFrame(t, p, s)
	drawFrame(t, p, s)
	if got := p.Stats().Reshapes; got != 1 {
		t.Errorf("Reshapes after two draws = %d, want 1", got)
	}
	if w, h := p.textures.Depth.Width(), p.textures.Depth.Height(); w != 64 || h != 64 {
		t.Errorf("depth = %dx%d, want 64x64", w, h)
	}

	s.Resize(100, 80)
	drawFrame(t, p, s)
	drawFrame(t, p, s)
	if got := p.Stats().Reshapes; got != 2 {
		t.Errorf("Reshapes after surface growth = %d, want 2", got)
	}
	if w, h := p.textures.Depth.Width(), p.textures.Depth.Height(); w != 100 || h != 80 {
		t.Errorf("depth = %dx%d, want 100x80", w, h)
	}

	// Shrinking reshapes the matrices but keeps the larger depth texture.
	s.Resize(16, 12)
	drawFrame(t, p, s)
	if got := p.Stats().Reshapes; got != 3 {
		t.Errorf("Reshapes after surface shrink = %d, want 3", got)
	}
	if w, h := p.textures.Depth.Width(), p.textures.Depth.Height(); w != 100 || h != 80 {
		t.Errorf("depth = %dx%d after shrink, want 100x80", w, h)
	}
}

func TestEnsureDepthGrowsOnly(t *testing.T) {
	dev := soft.New()
	defer dev.Close()

	ts, err := NewTextureSet(dev, 8, 8, 2, 64, backgroundPixels(nil))
	if err != nil {
		t.Fatalf("NewTextureSet() error: %v", err)
	}
	defer ts.Release()

	tests := []struct {
		w, h         int
		grew         bool
		wantW, wantH int
	}{
		{32, 32, false, 64, 64},
		{100, 50, true, 100, 64},
		{50, 200, true, 100, 200},
		{10, 10, false, 100, 200},
		{100, 200, false, 100, 200},
	}
	for _, tc := range tests {
		grew, err := ts.EnsureDepth(tc.w, tc.h)
		if err != nil {
			t.Fatalf("EnsureDepth(%d, %d) error: %v", tc.w, tc.h, err)
		}
		if grew != tc.grew {
			t.Errorf("EnsureDepth(%d, %d) grew = %v, want %v", tc.w, tc.h, grew, tc.grew)
		}
		if ts.Depth.Width() != tc.wantW || ts.Depth.Height() != tc.wantH {
			t.Errorf("EnsureDepth(%d, %d) size = %dx%d, want %dx%d", tc.w, tc.h,
				ts.Depth.Width(), ts.Depth.Height(), tc.wantW, tc.wantH)
		}
	}

	if ts.Upscaled.Width() != ts.Filtered.Width() || ts.Upscaled.Height() != ts.Filtered.Height() {
		t.Error("upscaled and filtered textures differ in size")
	}
	if ts.Upscaled.Width() != 16 {
		t.Errorf("upscaled width = %d, want 16", ts.Upscaled.Width())
	}
}

func TestNewTextureSetAllocationFailure(t *testing.T) {
	dev := soft.New(soft.WithMaxTextureSize(32))
	defer dev.Close()

	_, err := NewTextureSet(dev, 32, 32, 4, 32, backgroundPixels(nil))
	if !errors.Is(err, gpu.ErrResourceAllocation) {
		t.Errorf("NewTextureSet() error = %v, want ErrResourceAllocation", err)
	}
}

func TestSecondDrawBlocksUntilCompletion(t *testing.T) {
	gate := make(chan struct{})
	dev := soft.New(soft.WithExecutionGate(gate))
	p := newTestPipeline(t, dev, newTestSource(frameColor), smallConfig())
	// Cleanups run in reverse order: open the gate before closing.
	t.Cleanup(func() { close(gate) })
	s := soft.NewSurface(16, 12)

	drawFrame(t, p, s)
	if got := p.slot.Outstanding(); got != 1 {
		t.Fatalf("Outstanding() after first draw = %d, want 1", got)
	}

	done := make(chan error, 1)
	go func() {
		_, err := p.Draw(s)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("second draw finished while the first frame was still executing")
	case <-time.After(50 * time.Millisecond):
	}

	// Let the first frame execute; its completion frees the slot.
	gate <- struct{}{}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second Draw() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second draw did not proceed after the first frame completed")
	}
	if got := p.slot.Outstanding(); got > 1 {
		t.Errorf("Outstanding() = %d, want at most 1", got)
	}
}

func TestFrameSlot(t *testing.T) {
	s := NewFrameSlot()
	tk := s.Acquire()
	if got := s.Outstanding(); got != 1 {
		t.Errorf("Outstanding() = %d, want 1", got)
	}
	if _, ok := s.TryAcquire(); ok {
		t.Error("TryAcquire() succeeded on a held slot")
	}
	tk.Release()
	tk.Release()
	if got := s.Outstanding(); got != 0 {
		t.Errorf("Outstanding() after double release = %d, want 0", got)
	}
	tk2, ok := s.TryAcquire()
	if !ok {
		t.Fatal("TryAcquire() failed on a free slot")
	}
	tk2.Release()
}

func TestMissingDrawable(t *testing.T) {
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), smallConfig())
	s := soft.NewSurface(16, 12)
	s.SetAvailable(false)

	for i := 0; i < 2; i++ {
		ok, err := p.Draw(s)
		if ok || err != nil {
			t.Fatalf("Draw() without drawable = (%v, %v), want (false, nil)", ok, err)
		}
		if got := p.slot.Outstanding(); got != 0 {
			t.Fatalf("Outstanding() after dropped frame = %d, want 0", got)
		}
	}
	if got := p.Stats().Dropped; got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}

	s.SetAvailable(true)
	drawFrame(t, p, s)
}

func TestInvalidFrame(t *testing.T) {
	src := &testSource{}
	p := newTestPipeline(t, soft.New(), src, smallConfig())

	_, err := p.Draw(soft.NewSurface(16, 12))
	if !errors.Is(err, ErrPrecondition) {
		t.Errorf("Draw() error = %v, want ErrPrecondition", err)
	}
	if got := p.slot.Outstanding(); got != 0 {
		t.Errorf("Outstanding() after failed draw = %d, want 0", got)
	}
}

func TestFilterFallback(t *testing.T) {
	tests := []struct {
		name      string
		failing   []string
		wantColor bool
	}{
		{"sepia builds", nil, false},
		{"sepia fails", []string{"sepia"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Fullscreen = true
			cfg.Filter = kernel.FilterSepia
			dev := soft.New(soft.WithFailingPrograms(tc.failing...))
			p := newTestPipeline(t, dev, newTestSource(frameColor), cfg)
			s := soft.NewSurface(16, 12)

			drawFrame(t, p, s)
			got := presentedAt(t, p, s, 8, 6)
			if near(got, frameColor) != tc.wantColor {
				t.Errorf("pixel = %v, frame color %v, want unchanged = %v", got, frameColor, tc.wantColor)
			}
		})
	}
}

func TestBypassRequired(t *testing.T) {
	dev := soft.New(soft.WithFailingPrograms("bypass"))
	defer dev.Close()

	_, err := New(dev, newTestSource(frameColor), smallConfig())
	if !errors.Is(err, gpu.ErrKernelBuild) {
		t.Errorf("New() error = %v, want ErrKernelBuild", err)
	}
}

func TestRenderModes(t *testing.T) {
	tests := []struct {
		fullscreen, keepAspect bool
		want                   RenderMode
	}{
		{false, false, AnimatedCubePresentation},
		{false, true, AnimatedCubePresentation},
		{true, true, AnimatedCubePresentation},
		{true, false, FlatPresentation},
	}
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), smallConfig())
	for _, tc := range tests {
		p.SetFullscreen(tc.fullscreen)
		p.SetKeepAspectRatio(tc.keepAspect)
		if got := p.Mode(); got != tc.want {
			t.Errorf("Mode() fullscreen=%v keepAspect=%v = %v, want %v",
				tc.fullscreen, tc.keepAspect, got, tc.want)
		}
	}
}

func TestFlatFillsViewport(t *testing.T) {
	cfg := smallConfig()
	cfg.Fullscreen = true
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), cfg)
	s := soft.NewSurface(20, 10)
	p.Resize(20, 10)

	drawFrame(t, p, s)
	for _, pt := range [][2]int{{0, 0}, {19, 0}, {0, 9}, {19, 9}, {10, 5}} {
		if got := presentedAt(t, p, s, pt[0], pt[1]); !near(got, frameColor) {
			t.Errorf("pixel %v = %v, want %v", pt, got, frameColor)
		}
	}
}

func TestHaltedIsHalfTransparent(t *testing.T) {
	src := newTestSource(frameColor)
	p := newTestPipeline(t, soft.New(), src, smallConfig())
	s := soft.NewSurface(32, 24)
	p.Resize(32, 24)

	drawFrame(t, p, s)
	if got := presentedAt(t, p, s, 16, 12); !near(got, frameColor) {
		t.Errorf("running pixel = %v, want %v", got, frameColor)
	}

	src.setHalted(true)
	drawFrame(t, p, s)
	want := [4]uint8{100, 20, 20, 255}
	if got := presentedAt(t, p, s, 16, 12); !near(got, want) {
		t.Errorf("halted pixel = %v, want %v", got, want)
	}
}

func TestBackgroundWithoutEmulator(t *testing.T) {
	cfg := smallConfig()
	cfg.DrawEmulator = false
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), cfg)
	s := soft.NewSurface(32, 24)
	p.Resize(32, 24)

	drawFrame(t, p, s)
	want := [4]uint8{0xaa, 0xaa, 0xaa, 0xff}
	if got := presentedAt(t, p, s, 16, 12); !near(got, want) {
		t.Errorf("pixel = %v, want background %v", got, want)
	}

	// In fullscreen without the emulator nothing is drawn.
	p.SetFullscreen(true)
	p.SetKeepAspectRatio(true)
	drawFrame(t, p, s)
	want = [4]uint8{0, 0, 0, 0xff}
	if got := presentedAt(t, p, s, 16, 12); !near(got, want) {
		t.Errorf("fullscreen pixel = %v, want %v", got, want)
	}
}

func TestZoomCompletesThroughDraws(t *testing.T) {
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), smallConfig())
	s := soft.NewSurface(16, 12)
	p.Resize(16, 12)

	p.Camera().Zoom()
	for i := 0; i < camera.LongTransition; i++ {
		if !p.Camera().Animating() {
			t.Fatalf("animation ended after %d frames", i)
		}
		drawFrame(t, p, s)
	}
	if p.Camera().Animating() {
		t.Fatal("still animating after the full transition")
	}
	if got := p.Camera().Current().EyeZ; got != 6 {
		t.Errorf("EyeZ = %v, want 6", got)
	}
}

func TestCapture(t *testing.T) {
	tests := []struct {
		region emucore.Region
		w, h   int
	}{
		{emucore.RegionPAL, 2 * 392, 268},
		{emucore.RegionNTSC, 2 * 404, 218},
	}
	cfg := DefaultConfig()
	cfg.UpscaleFactor = 1
	cfg.MinDepthSize = 64
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), cfg)
	s := soft.NewSurface(16, 12)

	for _, tc := range tests {
		t.Run(tc.region.String(), func(t *testing.T) {
			if err := p.SetRegion(tc.region); err != nil {
				t.Fatalf("SetRegion() error: %v", err)
			}
			drawFrame(t, p, s)
			img, err := p.Capture()
			if err != nil {
				t.Fatalf("Capture() error: %v", err)
			}
			if img.Bounds().Dx() != tc.w || img.Bounds().Dy() != tc.h {
				t.Errorf("Capture() size = %dx%d, want %dx%d",
					img.Bounds().Dx(), img.Bounds().Dy(), tc.w, tc.h)
			}
			c := img.RGBAAt(tc.w/2, tc.h/2)
			if got := [4]uint8{c.R, c.G, c.B, c.A}; got != frameColor {
				t.Errorf("captured pixel = %v, want %v", got, frameColor)
			}
		})
	}
}

func TestSetShaderOptions(t *testing.T) {
	p := newTestPipeline(t, soft.New(), newTestSource(frameColor), smallConfig())

	if err := p.SetShaderOptions(kernel.CRTOptions()); err != nil {
		t.Fatalf("SetShaderOptions() error: %v", err)
	}
	p.SetFilter(kernel.FilterCRT)
	drawFrame(t, p, soft.NewSurface(16, 12))
}

func TestClose(t *testing.T) {
	dev := soft.New()
	defer dev.Close()
	p, err := New(dev, newTestSource(frameColor), smallConfig())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	drawFrame(t, p, soft.NewSurface(16, 12))

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := p.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() = %v, want ErrClosed", err)
	}
	if _, err := p.Draw(soft.NewSurface(16, 12)); !errors.Is(err, ErrClosed) {
		t.Errorf("Draw() after Close = %v, want ErrClosed", err)
	}
	if _, err := p.Capture(); !errors.Is(err, ErrClosed) {
		t.Errorf("Capture() after Close = %v, want ErrClosed", err)
	}
	if err := p.SetRegion(emucore.RegionNTSC); !errors.Is(err, ErrClosed) {
		t.Errorf("SetRegion() after Close = %v, want ErrClosed", err)
	}
}
