package soft

import (
	"image"
	"sync"

	"github.com/user-none/framepipe/gpu"
)

// Surface is an offscreen presentation target. Every drawable it hands
// out is a fresh texture of the current size; presenting one stores a
// copy of its contents.
type Surface struct {
	mu        sync.Mutex
	width     int
	height    int
	available bool
	presented *image.RGBA
	count     int
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height, available: true}
}

// Resize changes the size of drawables handed out from now on.
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()
}

// Size returns the current drawable size.
func (s *Surface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// SetAvailable controls whether NextDrawable succeeds.
func (s *Surface) SetAvailable(ok bool) {
	s.mu.Lock()
	s.available = ok
	s.mu.Unlock()
}

// NextDrawable returns a new drawable, or false if the surface is
// unavailable.
func (s *Surface) NextDrawable() (gpu.Drawable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.available || s.width <= 0 || s.height <= 0 {
		return nil, false
	}
	t := newTexture(gpu.TextureDescriptor{
		Label:  "drawable",
		Format: gpu.FormatRGBA8,
		Width:  s.width,
		Height: s.height,
		Usage:  gpu.UsageRenderTarget,
	})
	return &drawable{surface: s, tex: t}, true
}

// Presented returns a copy of the most recently presented image and the
// number of presents so far. The image is nil before the first present.
func (s *Surface) Presented() (*image.RGBA, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presented == nil {
		return nil, s.count
	}
	img := image.NewRGBA(s.presented.Rect)
	copy(img.Pix, s.presented.Pix)
	return img, s.count
}

func (s *Surface) present(d *drawable) {
	t := d.tex
	img := image.NewRGBA(image.Rect(0, 0, t.desc.Width, t.desc.Height))
	copy(img.Pix, t.pix)
	s.mu.Lock()
	s.presented = img
	s.count++
	s.mu.Unlock()
}

type drawable struct {
	surface *Surface
	tex     *texture
}

func (d *drawable) Texture() gpu.Texture { return d.tex }
