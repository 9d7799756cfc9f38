package standalone

import (
	"time"

	emucore "github.com/user-none/framepipe/api"
)

// Frame buffer size produced by the pattern generator. It matches what
// the emulator writes: the widest line and the tallest frame.
const (
	FrameWidth  = emucore.NTSCPixels
	FrameHeight = emucore.PALRasterlines
	FrameStride = FrameWidth * 4
)

// Pixel aspect ratios of the emulated display.
const (
	palPixelAspect  = 0.9365
	ntscPixelAspect = 0.75
)

type rgb struct{ r, g, b byte }

var (
	borderColor     = rgb{0x6c, 0x5e, 0xb5}
	backgroundColor = rgb{0x35, 0x28, 0x79}
	rasterColor     = rgb{0xff, 0xff, 0xff}

	barColors = []rgb{
		{0x00, 0x00, 0x00},
		{0xff, 0xff, 0xff},
		{0x88, 0x39, 0x32},
		{0x67, 0xb6, 0xbd},
		{0x8b, 0x3f, 0x96},
		{0x55, 0xa0, 0x49},
		{0x40, 0x31, 0x8d},
		{0xbf, 0xce, 0x72},
	}
)

// FrameRate returns the refresh rate of the region in frames per second.
func FrameRate(r emucore.Region) float64 {
	if r == emucore.RegionNTSC {
		return 59.826
	}
	return 50.125
}

// AspectRatio returns the display aspect ratio of the region's visible
// area.
func AspectRatio(r emucore.Region) float64 {
	par := palPixelAspect
	if r == emucore.RegionNTSC {
		par = ntscPixelAspect
	}
	a := r.VisibleArea()
	return emucore.DisplayAspectRatio(a.Dx(), a.Dy(), par)
}

// RenderPattern draws test frame number n into pix: a border around the
// visible canvas, colour bars inside it and a raster bar that moves one
// line per frame.
func RenderPattern(pix []byte, stride int, r emucore.Region, n int) {
	area := r.VisibleArea()
	canvas := area
	canvas.Min.X += (area.Dx() - 320) / 2
	canvas.Max.X = canvas.Min.X + 320
	canvas.Min.Y += (area.Dy() - 200) / 2
	canvas.Max.Y = canvas.Min.Y + 200

	raster := area.Min.Y + n%area.Dy()
	barWidth := canvas.Dx() / len(barColors)

	for y := 0; y < FrameHeight; y++ {
		row := pix[y*stride:]
		for x := 0; x < FrameWidth; x++ {
			c := borderColor
			switch {
			case y == raster || y == raster+1:
				c = rasterColor
			case x >= canvas.Min.X && x < canvas.Max.X && y >= canvas.Min.Y && y < canvas.Max.Y:
				c = backgroundColor
				if y-canvas.Min.Y >= 40 && y-canvas.Min.Y < 160 {
					bar := (x - canvas.Min.X + n) / barWidth % len(barColors)
					c = barColors[bar]
				}
			}
			o := x * 4
			row[o] = c.r
			row[o+1] = c.g
			row[o+2] = c.b
			row[o+3] = 0xff
		}
	}
}

// PatternGenerator stands in for an emulator: it renders test frames at
// the region's refresh rate into a shared framebuffer.
type PatternGenerator struct {
	fb     *SharedFramebuffer
	ctl    *HaltControl
	region emucore.Region
	pixels []byte
	frame  int
}

// NewPatternGenerator creates a generator and publishes its first frame
// so the framebuffer is never empty.
func NewPatternGenerator(fb *SharedFramebuffer, ctl *HaltControl, r emucore.Region) *PatternGenerator {
	g := &PatternGenerator{
		fb:     fb,
		ctl:    ctl,
		region: r,
		pixels: make([]byte, FrameStride*FrameHeight),
	}
	g.Step()
	return g
}

// Step renders and publishes the next frame.
func (g *PatternGenerator) Step() {
	RenderPattern(g.pixels, FrameStride, g.region, g.frame)
	g.fb.Update(g.pixels, FrameWidth, FrameHeight, FrameStride)
	g.frame++
}

// Run produces frames until the control is stopped. It closes done on
// return.
func (g *PatternGenerator) Run(done chan<- struct{}) {
	defer close(done)

	frameTime := time.Duration(float64(time.Second) / FrameRate(g.region))
	lastFrameTime := time.Now()

	for {
		if !g.ctl.Wait() {
			return
		}

		g.Step()

		sleepTime := frameTime - time.Since(lastFrameTime)
		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}
		lastFrameTime = time.Now()
	}
}
