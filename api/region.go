package emucore

import "image"

// Region represents a video standard of the emulated machine.
type Region int

const (
	RegionPAL Region = iota
	RegionNTSC
)

// String returns the display name of the region.
func (r Region) String() string {
	switch r {
	case RegionNTSC:
		return "NTSC"
	case RegionPAL:
		return "PAL"
	default:
		return "Unknown"
	}
}

// Frame extents written by the emulator every frame. The emulator always
// produces a buffer large enough for the widest (NTSC) line and the tallest
// (PAL) frame.
const (
	NTSCPixels     = 428
	PALRasterlines = 284
)

// Border geometry of the visible canvas, in emulator pixels.
const (
	canvasWidth  = 320
	canvasHeight = 200

	palFirstVisiblePixel = 48
	palFirstVisibleLine  = 35
	palBorderLeft        = 36
	palBorderRight       = 36
	palBorderTop         = 34
	palBorderBottom      = 34

	ntscFirstVisiblePixel = 55
	ntscFirstVisibleLine  = 10
	ntscBorderLeft        = 42
	ntscBorderRight       = 42
	ntscBorderTop         = 9
	ntscBorderBottom      = 9
)

// VisibleArea returns the part of the emulator frame that is shown on
// screen for the region: the canvas plus its border.
func (r Region) VisibleArea() image.Rectangle {
	switch r {
	case RegionNTSC:
		x := ntscFirstVisiblePixel - ntscBorderLeft
		y := ntscFirstVisibleLine - ntscBorderTop
		w := canvasWidth + ntscBorderLeft + ntscBorderRight
		h := canvasHeight + ntscBorderTop + ntscBorderBottom
		return image.Rect(x, y, x+w, y+h)
	default:
		x := palFirstVisiblePixel - palBorderLeft
		y := palFirstVisibleLine - palBorderTop
		w := canvasWidth + palBorderLeft + palBorderRight
		h := canvasHeight + palBorderTop + palBorderBottom
		return image.Rect(x, y, x+w, y+h)
	}
}

// TextureRect is the visible area normalized against a texture of the
// given size, as (x1, y1, x2, y2) in [0,1].
type TextureRect struct {
	X1, Y1, X2, Y2 float32
}

// TextureRect returns the region's visible area normalized against a
// width x height texture.
func (r Region) TextureRect(width, height int) TextureRect {
	a := r.VisibleArea()
	return TextureRect{
		X1: float32(a.Min.X) / float32(width),
		Y1: float32(a.Min.Y) / float32(height),
		X2: float32(a.Max.X) / float32(width),
		Y2: float32(a.Max.Y) / float32(height),
	}
}

// Pixel returns the rectangle covered by the normalized rect on a texture
// of the given size.
func (t TextureRect) Pixel(width, height int) image.Rectangle {
	return image.Rect(
		int(t.X1*float32(width)+0.5),
		int(t.Y1*float32(height)+0.5),
		int(t.X2*float32(width)+0.5),
		int(t.Y2*float32(height)+0.5),
	)
}

// DisplayAspectRatio calculates the display aspect ratio from the visible
// width and height in pixels and the pixel aspect ratio.
func DisplayAspectRatio(width, height int, par float64) float64 {
	if height == 0 {
		return 0
	}
	return float64(width) / float64(height) * par
}
