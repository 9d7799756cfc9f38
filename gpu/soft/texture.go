package soft

import (
	"fmt"
	"image"
	"math"

	"github.com/user-none/framepipe/gpu"
)

// texture stores color formats as RGBA8 regardless of the declared
// format, and depth formats as float32.
type texture struct {
	desc  gpu.TextureDescriptor
	pix   []uint8
	depth []float32
}

func newTexture(desc gpu.TextureDescriptor) *texture {
	t := &texture{desc: desc}
	if desc.Format.IsDepth() {
		t.depth = make([]float32, desc.Width*desc.Height)
	} else {
		t.pix = make([]uint8, desc.Width*desc.Height*4)
	}
	return t
}

func (t *texture) Label() string           { return t.desc.Label }
func (t *texture) Width() int              { return t.desc.Width }
func (t *texture) Height() int             { return t.desc.Height }
func (t *texture) Format() gpu.PixelFormat { return t.desc.Format }
func (t *texture) Usage() gpu.Usage        { return t.desc.Usage }

func (t *texture) Release() {
	t.pix = nil
	t.depth = nil
}

func (t *texture) bounds() image.Rectangle {
	return image.Rect(0, 0, t.desc.Width, t.desc.Height)
}

func (t *texture) Replace(region image.Rectangle, pixels []byte, bytesPerRow int) error {
	if t.pix == nil {
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
	for y := 0; y < region.Dy(); y++ {
		dst := ((region.Min.Y+y)*t.desc.Width + region.Min.X) * 4
		copy(t.pix[dst:dst+rowBytes], pixels[y*bytesPerRow:y*bytesPerRow+rowBytes])
	}
	return nil
}

func (t *texture) ReadPixels(region image.Rectangle) ([]byte, error) {
	if t.pix == nil {
		return nil, fmt.Errorf("read from %s texture %q: %w", t.desc.Format, t.desc.Label, gpu.ErrOutOfBounds)
	}
	if region.Empty() || !region.In(t.bounds()) {
		return nil, fmt.Errorf("read region %v from %q: %w", region, t.desc.Label, gpu.ErrOutOfBounds)
	}
	rowBytes := region.Dx() * 4
	out := make([]byte, rowBytes*region.Dy())
	for y := 0; y < region.Dy(); y++ {
		src := ((region.Min.Y+y)*t.desc.Width + region.Min.X) * 4
		copy(out[y*rowBytes:], t.pix[src:src+rowBytes])
	}
	return out, nil
}

// texel returns the texel at (x, y) with clamp-to-edge addressing.
func (t *texture) texel(x, y int) [4]float32 {
	x = clampInt(x, 0, t.desc.Width-1)
	y = clampInt(y, 0, t.desc.Height-1)
	i := (y*t.desc.Width + x) * 4
	return [4]float32{
		float32(t.pix[i]) / 255,
		float32(t.pix[i+1]) / 255,
		float32(t.pix[i+2]) / 255,
		float32(t.pix[i+3]) / 255,
	}
}

// sample reads the texture at normalized coordinates (u, v).
func (t *texture) sample(u, v float32, m gpu.SamplerMode) [4]float32 {
	px := u * float32(t.desc.Width)
	py := v * float32(t.desc.Height)
	if m == gpu.SamplerNearest {
		return t.texel(int(math.Floor(float64(px))), int(math.Floor(float64(py))))
	}

	px -= 0.5
	py -= 0.5
	x0 := int(math.Floor(float64(px)))
	y0 := int(math.Floor(float64(py)))
	fx := px - float32(x0)
	fy := py - float32(y0)

	c00 := t.texel(x0, y0)
	c10 := t.texel(x0+1, y0)
	c01 := t.texel(x0, y0+1)
	c11 := t.texel(x0+1, y0+1)

	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}

func (t *texture) store(x, y int, c [4]float32) {
	i := (y*t.desc.Width + x) * 4
	t.pix[i] = toByte(c[0])
	t.pix[i+1] = toByte(c[1])
	t.pix[i+2] = toByte(c[2])
	t.pix[i+3] = toByte(c[3])
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
