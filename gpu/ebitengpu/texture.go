package ebitengpu

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/framepipe/gpu"
)

// texture wraps an ebiten image. Depth textures have no image: the render
// pass orders triangles on the CPU instead of testing depth.
type texture struct {
	desc     gpu.TextureDescriptor
	img      *ebiten.Image
	borrowed bool // the image belongs to ebiten (the screen)
}

func (t *texture) Label() string           { return t.desc.Label }
func (t *texture) Width() int              { return t.desc.Width }
func (t *texture) Height() int             { return t.desc.Height }
func (t *texture) Format() gpu.PixelFormat { return t.desc.Format }
func (t *texture) Usage() gpu.Usage        { return t.desc.Usage }

// Image returns the underlying ebiten image, or nil for depth textures.
func (t *texture) Image() *ebiten.Image { return t.img }

func (t *texture) Release() {
	if t.img != nil && !t.borrowed {
		t.img.Deallocate()
	}
	t.img = nil
}

func (t *texture) bounds() image.Rectangle {
	return image.Rect(0, 0, t.desc.Width, t.desc.Height)
}

// Replace writes pixels into region. ebiten treats the bytes as
// premultiplied alpha; emulator frames are opaque.
func (t *texture) Replace(region image.Rectangle, pixels []byte, bytesPerRow int) error {
	if t.img == nil {
		return fmt.Errorf("replace on %s texture %q: %w", t.desc.Format, t.desc.Label, gpu.ErrOutOfBounds)
	}
	if region.Empty() || !region.In(t.bounds()) {
		return fmt.Errorf("replace region %v in %q: %w", region, t.desc.Label, gpu.ErrOutOfBounds)
	}
	rowBytes := region.Dx() * 4
	if bytesPerRow < rowBytes || len(pixels) < bytesPerRow*(region.Dy()-1)+rowBytes {
		return fmt.Errorf("replace %v with %d bytes (stride %d): %w",
			region, len(pixels), bytesPerRow, gpu.ErrOutOfBounds)
	}

	packed := pixels[:rowBytes*region.Dy()]
	if bytesPerRow != rowBytes {
		packed = make([]byte, rowBytes*region.Dy())
		for y := 0; y < region.Dy(); y++ {
			copy(packed[y*rowBytes:], pixels[y*bytesPerRow:y*bytesPerRow+rowBytes])
		}
	}
	t.img.SubImage(region).(*ebiten.Image).WritePixels(packed)
	return nil
}

// ReadPixels reads region back from the GPU. It is only valid while the
// game loop runs.
func (t *texture) ReadPixels(region image.Rectangle) ([]byte, error) {
	if t.img == nil {
		return nil, fmt.Errorf("read from %s texture %q: %w", t.desc.Format, t.desc.Label, gpu.ErrOutOfBounds)
	}
	if region.Empty() || !region.In(t.bounds()) {
		return nil, fmt.Errorf("read region %v from %q: %w", region, t.desc.Label, gpu.ErrOutOfBounds)
	}
	out := make([]byte, region.Dx()*region.Dy()*4)
	t.img.SubImage(region).(*ebiten.Image).ReadPixels(out)
	return out, nil
}
