package standalone

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emucore "github.com/user-none/framepipe/api"
	"github.com/user-none/framepipe/gpu"
	"github.com/user-none/framepipe/gpu/ebitengpu"
	"github.com/user-none/framepipe/kernel"
	"github.com/user-none/framepipe/pipeline"
	"github.com/user-none/framepipe/screenshot"
	"github.com/user-none/framepipe/storage"
)

// action is something a key binding triggers.
type action int

const (
	actionZoom action = iota
	actionScroll
	actionRotate
	actionRotateBack
	actionFadeIn
	actionBlendIn
	actionHalt
	actionScreenshot
	actionFullscreen
	actionNextUpscaler
	actionNextFilter
	actionToggleEmulator
	actionTogglePreset
)

var keyBindings = []struct {
	key ebiten.Key
	act action
}{
	{ebiten.KeyZ, actionZoom},
	{ebiten.KeyS, actionScroll},
	{ebiten.KeyArrowLeft, actionRotate},
	{ebiten.KeyArrowRight, actionRotateBack},
	{ebiten.KeyI, actionFadeIn},
	{ebiten.KeyB, actionBlendIn},
	{ebiten.KeyP, actionHalt},
	{ebiten.KeyF12, actionScreenshot},
	{ebiten.KeyF11, actionFullscreen},
	{ebiten.KeyU, actionNextUpscaler},
	{ebiten.KeyF, actionNextFilter},
	{ebiten.KeyE, actionToggleEmulator},
	{ebiten.KeyT, actionTogglePreset},
}

// App implements ebiten.Game. It feeds the presentation pipeline from a
// pattern generator running on its own goroutine.
type App struct {
	pipeline *pipeline.Pipeline
	surface  *ebitengpu.Surface

	fb        *SharedFramebuffer
	ctl       *HaltControl
	generator *PatternGenerator
	emuDone   chan struct{}
	started   bool

	region       emucore.Region
	upscaler     int
	filter       int
	preset       string
	fullscreen   bool
	keepAspect   bool
	drawEmulator bool

	screenshotDir     string
	screenshotFormat  screenshot.Format
	screenshotCopy    bool
	screenshotPending bool

	err error
}

// newApp creates the frame source and a pipeline on dev configured by pc.
// The pattern generator is not started.
func newApp(dev gpu.Device, cfg *storage.Config, pc pipeline.Config) (*App, error) {
	format, err := screenshot.ParseFormat(cfg.Screenshot.Format)
	if err != nil {
		log.Printf("Warning: %v", err)
	}
	dir, err := storage.GetScreenshotDir(cfg)
	if err != nil {
		log.Printf("Warning: screenshots disabled: %v", err)
	}

	a := &App{
		surface:          &ebitengpu.Surface{},
		fb:               NewSharedFramebuffer(FrameWidth, FrameHeight),
		ctl:              NewHaltControl(),
		emuDone:          make(chan struct{}),
		region:           pc.Region,
		upscaler:         pc.Upscaler,
		filter:           pc.Filter,
		preset:           cfg.Shader.Preset,
		fullscreen:       pc.Fullscreen,
		keepAspect:       pc.KeepAspectRatio,
		drawEmulator:     pc.DrawEmulator,
		screenshotDir:    dir,
		screenshotFormat: format,
		screenshotCopy:   cfg.Screenshot.Clipboard,
	}
	a.generator = NewPatternGenerator(a.fb, a.ctl, a.region)

	p, err := pipeline.New(dev, NewSource(a.fb, a.ctl), pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	a.pipeline = p

	if a.drawEmulator {
		p.Camera().BlendIn()
	}
	return a, nil
}

// Run is the public entry point for the windowed viewer. It configures
// the window, creates the app and starts the Ebiten game loop.
func Run(cfg *storage.Config) error {
	ebiten.SetWindowTitle("framepipe")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(storage.MinWindowWidth, storage.MinWindowHeight, -1, -1)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetTPS(60)
	if cfg.Video.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	pc, err := PipelineConfig(cfg)
	if err != nil {
		return err
	}
	app, err := newApp(ebitengpu.New(), cfg, pc)
	if err != nil {
		return err
	}

	app.start()

	err = ebiten.RunGame(app)

	if cerr := app.Close(); cerr != nil {
		log.Printf("Warning: pipeline close: %v", cerr)
	}
	return err
}

// Update implements ebiten.Game.
func (a *App) Update() error {
	if a.err != nil {
		return a.err
	}

	for _, b := range keyBindings {
		if inpututil.IsKeyJustPressed(b.key) {
			a.perform(b.act)
		}
	}

	if a.keepAspect && !ebiten.IsFullscreen() {
		w, h := ebiten.WindowSize()
		if want := fitHeight(w, AspectRatio(a.region)); abs(h-want) > 1 {
			ebiten.SetWindowSize(w, want)
		}
	}
	return nil
}

// perform runs the action bound to a key.
func (a *App) perform(act action) {
	cam := a.pipeline.Camera()

	switch act {
	case actionZoom:
		cam.Zoom()
	case actionScroll:
		cam.Scroll()
	case actionRotate:
		cam.Rotate()
	case actionRotateBack:
		cam.RotateBack()
	case actionFadeIn:
		cam.FadeIn()
	case actionBlendIn:
		cam.BlendIn()
	case actionHalt:
		if a.ctl.Halted() {
			a.ctl.Resume()
		} else {
			a.ctl.Halt()
		}
	case actionScreenshot:
		a.screenshotPending = true
	case actionFullscreen:
		a.fullscreen = !a.fullscreen
		ebiten.SetFullscreen(a.fullscreen)
		a.pipeline.SetFullscreen(a.fullscreen)
	case actionNextUpscaler:
		a.upscaler = (a.upscaler + 1) % len(kernel.Upscalers)
		a.pipeline.SetUpscaler(a.upscaler)
		log.Printf("Upscaler: %s", kernel.Upscalers[a.upscaler].Name)
	case actionNextFilter:
		a.filter = (a.filter + 1) % len(kernel.Filters)
		a.pipeline.SetFilter(a.filter)
		log.Printf("Filter: %s", kernel.Filters[a.filter].Name)
	case actionToggleEmulator:
		a.drawEmulator = !a.drawEmulator
		a.pipeline.SetDrawEmulator(a.drawEmulator)
	case actionTogglePreset:
		next := "crt"
		if a.preset == "crt" {
			next = "tft"
		}
		opts, _ := kernel.Preset(next)
		if err := a.pipeline.SetShaderOptions(opts); err != nil {
			log.Printf("Warning: failed to apply %s preset: %v", next, err)
			return
		}
		a.preset = next
		log.Printf("Shader preset: %s", next)
	}
}

// Draw implements ebiten.Game.
func (a *App) Draw(screen *ebiten.Image) {
	a.surface.SetScreen(screen)
	_, err := a.pipeline.Draw(a.surface)
	a.surface.SetScreen(nil)
	if err != nil {
		a.err = fmt.Errorf("draw: %w", err)
		return
	}

	if a.screenshotPending {
		a.screenshotPending = false
		if err := a.takeScreenshot(); err != nil {
			log.Printf("Warning: screenshot failed: %v", err)
		}
	}
}

// Layout implements ebiten.Game.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := 1.0
	if m := ebiten.Monitor(); m != nil {
		s = m.DeviceScaleFactor()
	}
	w, h := int(float64(outsideWidth)*s), int(float64(outsideHeight)*s)
	a.pipeline.Resize(w, h)
	return w, h
}

// takeScreenshot captures the filtered frame and saves it.
func (a *App) takeScreenshot() error {
	if a.screenshotDir == "" {
		return fmt.Errorf("no screenshot directory")
	}
	img, err := a.pipeline.Capture()
	if err != nil {
		return err
	}
	path, err := screenshot.Save(img, a.screenshotDir, a.screenshotFormat)
	if err != nil {
		return err
	}
	log.Printf("Saved screenshot %s", path)

	if a.screenshotCopy {
		if err := screenshot.CopyToClipboard(img); err != nil {
			log.Printf("Warning: %v", err)
		}
	}
	return nil
}

// start launches the pattern generator goroutine.
func (a *App) start() {
	a.started = true
	go a.generator.Run(a.emuDone)
}

// Close stops the generator and releases the pipeline.
func (a *App) Close() error {
	a.ctl.Stop()
	if a.started {
		<-a.emuDone
	}
	return a.pipeline.Close()
}

// fitHeight returns the window height that gives width the display
// aspect ratio.
func fitHeight(width int, aspect float64) int {
	if aspect <= 0 {
		return 0
	}
	return int(float64(width)/aspect + 0.5)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
