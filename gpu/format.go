package gpu

import "fmt"

// PixelFormat is the storage format of a texture.
type PixelFormat uint8

const (
	// FormatRGBA8 stores 8 bits per channel in R, G, B, A order.
	FormatRGBA8 PixelFormat = iota

	// FormatBGRA8 stores 8 bits per channel in B, G, R, A order. Drawables
	// of some surfaces use it.
	FormatBGRA8

	// FormatDepth32F stores one 32-bit float depth value per pixel.
	FormatDepth32F
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatDepth32F:
		return "Depth32F"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
func (f PixelFormat) BytesPerPixel() int {
	return 4
}

// IsDepth reports whether the format holds depth values.
func (f PixelFormat) IsDepth() bool {
	return f == FormatDepth32F
}

// Usage is a bit set describing how a texture is accessed.
type Usage uint8

const (
	UsageShaderRead Usage = 1 << iota
	UsageShaderWrite
	UsageRenderTarget
)

// Has reports whether all bits of o are set in u.
func (u Usage) Has(o Usage) bool {
	return u&o == o
}

// SamplerMode selects the filtering used when a texture is sampled.
// Addressing is always clamp-to-edge.
type SamplerMode uint8

const (
	SamplerNearest SamplerMode = iota
	SamplerLinear
)

// String returns the sampler name.
func (m SamplerMode) String() string {
	switch m {
	case SamplerNearest:
		return "nearest"
	case SamplerLinear:
		return "linear"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}
