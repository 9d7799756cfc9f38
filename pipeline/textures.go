package pipeline

import (
	"fmt"
	"image"

	"github.com/user-none/framepipe/gpu"
)

// TextureSet owns the long-lived textures of the pipeline.
type TextureSet struct {
	dev gpu.Device

	Source     gpu.Texture // emulator frame, written by the CPU
	Upscaled   gpu.Texture // upscaler output
	Filtered   gpu.Texture // filter output, drawn on screen
	Depth      gpu.Texture // depth attachment, at least as large as the viewport
	Background gpu.Texture

	minDepth int
}

// NewTextureSet allocates the source texture of width x height, the
// upscaled and filtered textures factor times larger, a depth texture of
// minDepth x minDepth and the background texture filled from bg.
func NewTextureSet(dev gpu.Device, width, height, factor, minDepth int, bg *image.RGBA) (*TextureSet, error) {
	s := &TextureSet{dev: dev, minDepth: minDepth}

	var err error
	alloc := func(label string, format gpu.PixelFormat, w, h int, usage gpu.Usage) gpu.Texture {
		if err != nil {
			return nil
		}
		var t gpu.Texture
		t, err = dev.NewTexture(gpu.TextureDescriptor{
			Label:  label,
			Format: format,
			Width:  w,
			Height: h,
			Usage:  usage,
		})
		return t
	}

	rw := gpu.UsageShaderRead | gpu.UsageShaderWrite
	s.Source = alloc("source", gpu.FormatRGBA8, width, height, gpu.UsageShaderRead)
	s.Upscaled = alloc("upscaled", gpu.FormatRGBA8, width*factor, height*factor, rw)
	s.Filtered = alloc("filtered", gpu.FormatRGBA8, width*factor, height*factor, rw)
	s.Depth = alloc("depth", gpu.FormatDepth32F, minDepth, minDepth, gpu.UsageRenderTarget)
	s.Background = alloc("background", gpu.FormatRGBA8, bg.Rect.Dx(), bg.Rect.Dy(), gpu.UsageShaderRead)
	if err != nil {
		s.Release()
		return nil, err
	}

	if err := s.Background.Replace(image.Rect(0, 0, bg.Rect.Dx(), bg.Rect.Dy()), bg.Pix, bg.Stride); err != nil {
		s.Release()
		return nil, fmt.Errorf("background upload: %w", err)
	}
	return s, nil
}

// EnsureDepth grows the depth texture so that it covers a width x height
// viewport. It never shrinks. It reports whether a new texture was
// allocated.
func (s *TextureSet) EnsureDepth(width, height int) (bool, error) {
	w := max(width, s.minDepth, s.Depth.Width())
	h := max(height, s.minDepth, s.Depth.Height())
	if w == s.Depth.Width() && h == s.Depth.Height() {
		return false, nil
	}

	t, err := s.dev.NewTexture(gpu.TextureDescriptor{
		Label:  "depth",
		Format: gpu.FormatDepth32F,
		Width:  w,
		Height: h,
		Usage:  gpu.UsageRenderTarget,
	})
	if err != nil {
		return false, err
	}
	logger().Debug("depth texture resized", "width", w, "height", h)
	s.Depth.Release()
	s.Depth = t
	return true, nil
}

// Release frees every allocated texture.
func (s *TextureSet) Release() {
	for _, t := range []*gpu.Texture{&s.Source, &s.Upscaled, &s.Filtered, &s.Depth, &s.Background} {
		if *t != nil {
			(*t).Release()
			*t = nil
		}
	}
}
