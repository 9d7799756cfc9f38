package standalone

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/user-none/framepipe/camera"
	"github.com/user-none/framepipe/gpu/soft"
	"github.com/user-none/framepipe/pipeline"
	"github.com/user-none/framepipe/screenshot"
	"github.com/user-none/framepipe/storage"
)

// cameraPresets maps preset names to camera animations.
var cameraPresets = map[string]func(*camera.Animator){
	"zoom":       (*camera.Animator).Zoom,
	"scroll":     (*camera.Animator).Scroll,
	"rotate":     (*camera.Animator).Rotate,
	"rotateback": (*camera.Animator).RotateBack,
	"fadein":     (*camera.Animator).FadeIn,
	"blendin":    (*camera.Animator).BlendIn,
}

// CameraPresets returns the names accepted by HeadlessOptions.Camera.
func CameraPresets() []string {
	names := make([]string, 0, len(cameraPresets))
	for n := range cameraPresets {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// HeadlessOptions configures an offscreen run.
type HeadlessOptions struct {
	Width, Height int
	Frames        int    // frames to draw, at least 1
	Camera        string // camera preset started before the first frame
	Output        string // image file; the extension selects PNG or WebP
	Capture       bool   // write the filtered emulator texture instead of the composed output

	// Zero keeps the pipeline default.
	UpscaleFactor int
}

// RunHeadless draws frames from the pattern generator on the software
// device and writes the last result to opts.Output.
func RunHeadless(cfg *storage.Config, opts HeadlessOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid output size %dx%d", opts.Width, opts.Height)
	}
	if opts.Output == "" {
		return fmt.Errorf("no output file")
	}
	if opts.Frames < 1 {
		opts.Frames = 1
	}
	format, err := screenshot.ParseFormat(strings.TrimPrefix(filepath.Ext(opts.Output), "."))
	if err != nil {
		return err
	}
	var preset func(*camera.Animator)
	if opts.Camera != "" {
		var ok bool
		if preset, ok = cameraPresets[strings.ToLower(opts.Camera)]; !ok {
			return fmt.Errorf("unknown camera preset %q (valid: %v)", opts.Camera, CameraPresets())
		}
	}

	pc, err := PipelineConfig(cfg)
	if err != nil {
		return err
	}
	if opts.UpscaleFactor > 0 {
		pc.UpscaleFactor = opts.UpscaleFactor
	}

	dev := soft.New()
	defer dev.Close()

	fb := NewSharedFramebuffer(FrameWidth, FrameHeight)
	gen := NewPatternGenerator(fb, NewHaltControl(), pc.Region)
	p, err := pipeline.New(dev, NewSource(fb, gen.ctl), pc)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil && !errors.Is(err, pipeline.ErrClosed) {
			log.Printf("Warning: pipeline close: %v", err)
		}
	}()

	surface := soft.NewSurface(opts.Width, opts.Height)
	p.Resize(opts.Width, opts.Height)
	if preset != nil {
		preset(p.Camera())
	}

	for i := 0; i < opts.Frames; i++ {
		if _, err := p.Draw(surface); err != nil {
			return err
		}
		gen.Step()
	}

	var img image.Image
	if opts.Capture {
		if img, err = p.Capture(); err != nil {
			return err
		}
	} else {
		// Close waits for the last frame to be presented.
		if err := p.Close(); err != nil {
			return err
		}
		presented, _ := surface.Presented()
		if presented == nil {
			return fmt.Errorf("no frame was presented")
		}
		img = presented
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := screenshot.Encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return f.Close()
}
