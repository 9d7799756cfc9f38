package pipeline

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Capture returns the visible area of the last filtered frame. Emulator
// pixels are twice as tall as wide on screen, so the image is doubled
// horizontally.
func (p *Pipeline) Capture() (*image.RGBA, error) {
	t := p.slot.Acquire()
	defer t.Release()

	p.mu.Lock()
	closed, region := p.closed, p.region
	p.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	f := p.textures.Filtered
	rect := p.textureRect(region).Pixel(f.Width(), f.Height()).Intersect(image.Rect(0, 0, f.Width(), f.Height()))
	if rect.Empty() {
		return nil, fmt.Errorf("%w: empty capture area", ErrPrecondition)
	}
	pix, err := f.ReadPixels(rect)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	src := &image.RGBA{
		Pix:    pix,
		Stride: rect.Dx() * 4,
		Rect:   image.Rect(0, 0, rect.Dx(), rect.Dy()),
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx()*2, rect.Dy()))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}
