package ebitengpu

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/framepipe/gpu"
)

// Surface hands out ebiten's screen image as the drawable. Set the screen
// at the start of every Draw.
type Surface struct {
	screen *ebiten.Image
}

// SetScreen sets the image that the next drawable renders into. Pass nil
// when no frame is being drawn.
func (s *Surface) SetScreen(screen *ebiten.Image) {
	s.screen = screen
}

// NextDrawable wraps the current screen image.
func (s *Surface) NextDrawable() (gpu.Drawable, bool) {
	if s.screen == nil {
		return nil, false
	}
	b := s.screen.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, false
	}
	return &drawable{tex: &texture{
		desc: gpu.TextureDescriptor{
			Label:  "screen",
			Format: gpu.FormatRGBA8,
			Width:  b.Dx(),
			Height: b.Dy(),
			Usage:  gpu.UsageRenderTarget,
		},
		img:      s.screen,
		borrowed: true,
	}}, true
}

type drawable struct {
	tex *texture
}

func (d *drawable) Texture() gpu.Texture { return d.tex }
