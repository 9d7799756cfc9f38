package kernel

import "github.com/user-none/framepipe/gpu"

// paramKind selects the auxiliary buffers a kernel binds.
type paramKind int

const (
	paramsNone paramKind = iota
	paramsBlur
	paramsCRT
	paramsScanline
	paramsDotMask
)

// Info describes an available compute kernel.
type Info struct {
	ID          string          // Unique identifier used in config
	Name        string          // Display name
	Description string          // Brief description of the effect
	Program     string          // Device program implementing it
	Sampler     gpu.SamplerMode // Sampler used for compute and presentation
	params      paramKind
}

// Upscaler indices.
const (
	UpscalerBypass = iota
	UpscalerEPX
	UpscalerXBR
)

// Filter indices.
const (
	FilterBypass = iota
	FilterSmooth
	FilterBlur
	FilterSaturation
	FilterGrayscale
	FilterSepia
	FilterCRT
	FilterScanline
	FilterDotMask
)

// Upscalers lists the upscaler variants by index. Index 0 is the bypass
// kernel every selection falls back to.
var Upscalers = []Info{
	{
		ID:          "none",
		Name:        "None",
		Description: "Nearest neighbour magnification",
		Program:     "bypassupscaler",
		Sampler:     gpu.SamplerNearest,
	},
	{
		ID:          "epx",
		Name:        "EPX",
		Description: "Eric's pixel expansion in cascaded 2x passes",
		Program:     "epxupscaler",
		Sampler:     gpu.SamplerNearest,
	},
	{
		ID:          "xbr",
		Name:        "Pixel Smoothing (xBR)",
		Description: "Smooth edges while preserving pixel art details",
		Program:     "xbrupscaler",
		Sampler:     gpu.SamplerNearest,
	},
}

// Filters lists the filter variants by index. Index 0 is the bypass
// kernel every selection falls back to.
var Filters = []Info{
	{
		ID:          "none",
		Name:        "None",
		Description: "Sharp pixels",
		Program:     "bypass",
		Sampler:     gpu.SamplerNearest,
	},
	{
		ID:          "smooth",
		Name:        "Smooth",
		Description: "Bilinear filtering when magnified",
		Program:     "bypass",
		Sampler:     gpu.SamplerLinear,
	},
	{
		ID:          "blur",
		Name:        "Blur",
		Description: "Gaussian blur",
		Program:     "blur",
		Sampler:     gpu.SamplerLinear,
		params:      paramsBlur,
	},
	{
		ID:          "saturation",
		Name:        "Saturation",
		Description: "Boosted color saturation",
		Program:     "saturation",
		Sampler:     gpu.SamplerLinear,
	},
	{
		ID:          "grayscale",
		Name:        "Grayscale",
		Description: "Black and white monitor",
		Program:     "grayscale",
		Sampler:     gpu.SamplerLinear,
	},
	{
		ID:          "sepia",
		Name:        "Sepia",
		Description: "Warm brown-toned image",
		Program:     "sepia",
		Sampler:     gpu.SamplerLinear,
	},
	{
		ID:          "crt",
		Name:        "CRT",
		Description: "Bloom and scanlines of a cathode ray tube",
		Program:     "crt",
		Sampler:     gpu.SamplerLinear,
		params:      paramsCRT,
	},
	{
		ID:          "scanline",
		Name:        "Scanlines",
		Description: "Horizontal scanline effect",
		Program:     "scanline",
		Sampler:     gpu.SamplerLinear,
		params:      paramsScanline,
	},
	{
		ID:          "dotmask",
		Name:        "Dot Mask",
		Description: "Shadow mask or aperture grille pattern",
		Program:     "dotmask",
		Sampler:     gpu.SamplerLinear,
		params:      paramsDotMask,
	},
}

var (
	upscalerIndex = make(map[string]int)
	filterIndex   = make(map[string]int)
)

func init() {
	for i, info := range Upscalers {
		upscalerIndex[info.ID] = i
	}
	for i, info := range Filters {
		filterIndex[info.ID] = i
	}
}

// UpscalerIndex returns the index of the upscaler with the given ID.
func UpscalerIndex(id string) (int, bool) {
	i, ok := upscalerIndex[id]
	return i, ok
}

// FilterIndex returns the index of the filter with the given ID.
func FilterIndex(id string) (int, bool) {
	i, ok := filterIndex[id]
	return i, ok
}

// IsValidUpscaler reports whether id names an upscaler.
func IsValidUpscaler(id string) bool {
	_, ok := upscalerIndex[id]
	return ok
}

// IsValidFilter reports whether id names a filter.
func IsValidFilter(id string) bool {
	_, ok := filterIndex[id]
	return ok
}
