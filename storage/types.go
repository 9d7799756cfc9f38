package storage

import "github.com/user-none/framepipe/kernel"

// Config represents the video configuration stored in config.json
type Config struct {
	Version    int              `json:"version"`
	Video      VideoConfig      `json:"video"`
	Shader     ShaderConfig     `json:"shader"`
	Window     WindowConfig     `json:"window"`
	Screenshot ScreenshotConfig `json:"screenshot"`
}

// VideoConfig selects the compute kernels and presentation mode
type VideoConfig struct {
	Upscaler        string `json:"upscaler"` // kernel ID, see kernel.Upscalers
	Filter          string `json:"filter"`   // kernel ID, see kernel.Filters
	Region          string `json:"region"`   // "pal" or "ntsc"
	Fullscreen      bool   `json:"fullscreen"`
	KeepAspectRatio bool   `json:"keepAspectRatio"`
	DrawEmulator    bool   `json:"drawEmulator"`
	Background      string `json:"background,omitempty"` // image path, empty = plain gray
}

// ShaderConfig holds the filter parameters. Preset names a parameter set
// ("tft" or "crt") whose values fill in any parameter absent from the
// file; "custom" uses the TFT values as the base.
type ShaderConfig struct {
	Preset             string  `json:"preset"`
	BlurRadius         float32 `json:"blurRadius"`
	BloomRadius        float32 `json:"bloomRadius"`
	BloomBrightness    float32 `json:"bloomBrightness"`
	BloomWeight        float32 `json:"bloomWeight"`
	DotMask            int     `json:"dotMask"`
	DotMaskBrightness  float32 `json:"dotMaskBrightness"`
	ScanlineBrightness float32 `json:"scanlineBrightness"`
	ScanlineWeight     float32 `json:"scanlineWeight"`
}

// WindowConfig contains the initial window size
type WindowConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ScreenshotConfig controls screenshot export
type ScreenshotConfig struct {
	Format    string `json:"format"`        // "png" or "webp"
	Dir       string `json:"dir,omitempty"` // empty = <data dir>/screenshots
	Clipboard bool   `json:"clipboard"`     // also copy to the clipboard
}

// Options converts the shader settings to kernel parameters.
func (s ShaderConfig) Options() kernel.Options {
	return kernel.Options{
		BlurRadius:         s.BlurRadius,
		BloomRadius:        s.BloomRadius,
		BloomBrightness:    s.BloomBrightness,
		BloomWeight:        s.BloomWeight,
		DotMask:            s.DotMask,
		DotMaskBrightness:  s.DotMaskBrightness,
		ScanlineBrightness: s.ScanlineBrightness,
		ScanlineWeight:     s.ScanlineWeight,
	}
}

// shaderFromOptions builds shader settings from a named parameter set.
func shaderFromOptions(preset string, o kernel.Options) ShaderConfig {
	return ShaderConfig{
		Preset:             preset,
		BlurRadius:         o.BlurRadius,
		BloomRadius:        o.BloomRadius,
		BloomBrightness:    o.BloomBrightness,
		BloomWeight:        o.BloomWeight,
		DotMask:            o.DotMask,
		DotMaskBrightness:  o.DotMaskBrightness,
		ScanlineBrightness: o.ScanlineBrightness,
		ScanlineWeight:     o.ScanlineWeight,
	}
}

// presetShader returns the shader settings for a preset name. Unknown
// names and "custom" return the TFT values.
func presetShader(name string) ShaderConfig {
	opts, ok := kernel.Preset(name)
	if !ok {
		opts = kernel.TFTOptions()
	}
	return shaderFromOptions(name, opts)
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Video: VideoConfig{
			Upscaler:        "none",
			Filter:          "smooth",
			Region:          "pal",
			Fullscreen:      false,
			KeepAspectRatio: false,
			DrawEmulator:    true,
		},
		Shader: presetShader("tft"),
		Window: WindowConfig{
			Width:  800,
			Height: 600,
		},
		Screenshot: ScreenshotConfig{
			Format: "png",
		},
	}
}
