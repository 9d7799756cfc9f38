package storage

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/user-none/framepipe/kernel"
)

var (
	validRegions           = []string{"pal", "ntsc"}
	validPresets           = []string{"tft", "crt", "custom"}
	validScreenshotFormats = []string{"png", "webp"}
)

// Parameter ranges accepted for the shader settings.
const (
	MaxBlurRadius   = 7
	MaxBloomRadius  = 10
	MaxBloomWeight  = 3
	MinWindowWidth  = 320
	MinWindowHeight = 200
)

// sectionKeys lists the keys checked for presence in each nested section.
var sectionKeys = map[string][]string{
	"video":  {"upscaler", "filter", "region", "fullscreen", "keepAspectRatio", "drawEmulator"},
	"shader": {"preset", "blurRadius", "bloomRadius", "bloomBrightness", "bloomWeight",
		"dotMask", "dotMaskBrightness", "scanlineBrightness", "scanlineWeight"},
	"window":     {"width", "height"},
	"screenshot": {"format", "clipboard"},
}

// detectPresentKeys unmarshals JSON bytes to determine which config keys
// are explicitly present in the file. Returns a flat set of dotted-path keys
// (e.g., "video.filter", "shader.blurRadius").
func detectPresentKeys(jsonBytes []byte) map[string]bool {
	present := make(map[string]bool)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return present
	}

	if _, ok := raw["version"]; ok {
		present["version"] = true
	}

	for section, keys := range sectionKeys {
		sectionRaw, ok := raw[section]
		if !ok {
			continue
		}
		var fields map[string]json.RawMessage
		if json.Unmarshal(sectionRaw, &fields) != nil {
			continue
		}
		for _, k := range keys {
			if _, ok := fields[k]; ok {
				present[section+"."+k] = true
			}
		}
	}

	return present
}

// ApplyMissingDefaults sets default values for config fields that are absent
// from the JSON file. Intentional zero values (e.g. blurRadius=0 or
// drawEmulator=false) are preserved. Absent shader parameters are taken
// from the configured preset.
func ApplyMissingDefaults(config *Config, presentKeys map[string]bool) {
	defaults := DefaultConfig()

	if !presentKeys["version"] {
		config.Version = defaults.Version
	}

	if !presentKeys["video.upscaler"] {
		config.Video.Upscaler = defaults.Video.Upscaler
	}
	if !presentKeys["video.filter"] {
		config.Video.Filter = defaults.Video.Filter
	}
	if !presentKeys["video.region"] {
		config.Video.Region = defaults.Video.Region
	}
	if !presentKeys["video.fullscreen"] {
		config.Video.Fullscreen = defaults.Video.Fullscreen
	}
	if !presentKeys["video.keepAspectRatio"] {
		config.Video.KeepAspectRatio = defaults.Video.KeepAspectRatio
	}
	if !presentKeys["video.drawEmulator"] {
		config.Video.DrawEmulator = defaults.Video.DrawEmulator
	}

	if !presentKeys["shader.preset"] {
		config.Shader.Preset = defaults.Shader.Preset
	}
	preset := presetShader(config.Shader.Preset)
	if !presentKeys["shader.blurRadius"] {
		config.Shader.BlurRadius = preset.BlurRadius
	}
	if !presentKeys["shader.bloomRadius"] {
		config.Shader.BloomRadius = preset.BloomRadius
	}
	if !presentKeys["shader.bloomBrightness"] {
		config.Shader.BloomBrightness = preset.BloomBrightness
	}
	if !presentKeys["shader.bloomWeight"] {
		config.Shader.BloomWeight = preset.BloomWeight
	}
	if !presentKeys["shader.dotMask"] {
		config.Shader.DotMask = preset.DotMask
	}
	if !presentKeys["shader.dotMaskBrightness"] {
		config.Shader.DotMaskBrightness = preset.DotMaskBrightness
	}
	if !presentKeys["shader.scanlineBrightness"] {
		config.Shader.ScanlineBrightness = preset.ScanlineBrightness
	}
	if !presentKeys["shader.scanlineWeight"] {
		config.Shader.ScanlineWeight = preset.ScanlineWeight
	}

	if !presentKeys["window.width"] {
		config.Window.Width = defaults.Window.Width
	}
	if !presentKeys["window.height"] {
		config.Window.Height = defaults.Window.Height
	}

	if !presentKeys["screenshot.format"] {
		config.Screenshot.Format = defaults.Screenshot.Format
	}
	if !presentKeys["screenshot.clipboard"] {
		config.Screenshot.Clipboard = defaults.Screenshot.Clipboard
	}
}

func inUnit(v float32) bool {
	return v >= 0 && v <= 1
}

// ValidateConfig checks all config fields against valid ranges and returns
// human-readable error descriptions. An empty slice means the config is valid.
func ValidateConfig(config *Config) []string {
	var errors []string

	if config.Version != 1 {
		errors = append(errors, fmt.Sprintf("version: %d (valid: 1)", config.Version))
	}

	if !kernel.IsValidUpscaler(config.Video.Upscaler) {
		errors = append(errors, fmt.Sprintf("video.upscaler: %q (valid: %v)", config.Video.Upscaler, upscalerIDs()))
	}
	if !kernel.IsValidFilter(config.Video.Filter) {
		errors = append(errors, fmt.Sprintf("video.filter: %q (valid: %v)", config.Video.Filter, filterIDs()))
	}
	if !slices.Contains(validRegions, config.Video.Region) {
		errors = append(errors, fmt.Sprintf("video.region: %q (valid: %v)", config.Video.Region, validRegions))
	}

	s := config.Shader
	if !slices.Contains(validPresets, s.Preset) {
		errors = append(errors, fmt.Sprintf("shader.preset: %q (valid: %v)", s.Preset, validPresets))
	}
	if s.BlurRadius < 0 || s.BlurRadius > MaxBlurRadius {
		errors = append(errors, fmt.Sprintf("shader.blurRadius: %.2f (valid: 0-%d)", s.BlurRadius, MaxBlurRadius))
	}
	if s.BloomRadius < 0 || s.BloomRadius > MaxBloomRadius {
		errors = append(errors, fmt.Sprintf("shader.bloomRadius: %.2f (valid: 0-%d)", s.BloomRadius, MaxBloomRadius))
	}
	if !inUnit(s.BloomBrightness) {
		errors = append(errors, fmt.Sprintf("shader.bloomBrightness: %.2f (valid: 0.0-1.0)", s.BloomBrightness))
	}
	if s.BloomWeight < 0 || s.BloomWeight > MaxBloomWeight {
		errors = append(errors, fmt.Sprintf("shader.bloomWeight: %.2f (valid: 0-%d)", s.BloomWeight, MaxBloomWeight))
	}
	if s.DotMask < 0 || s.DotMask >= kernel.DotMaskCount {
		errors = append(errors, fmt.Sprintf("shader.dotMask: %d (valid: 0-%d)", s.DotMask, kernel.DotMaskCount-1))
	}
	if !inUnit(s.DotMaskBrightness) {
		errors = append(errors, fmt.Sprintf("shader.dotMaskBrightness: %.2f (valid: 0.0-1.0)", s.DotMaskBrightness))
	}
	if !inUnit(s.ScanlineBrightness) {
		errors = append(errors, fmt.Sprintf("shader.scanlineBrightness: %.2f (valid: 0.0-1.0)", s.ScanlineBrightness))
	}
	if !inUnit(s.ScanlineWeight) {
		errors = append(errors, fmt.Sprintf("shader.scanlineWeight: %.2f (valid: 0.0-1.0)", s.ScanlineWeight))
	}

	if config.Window.Width < MinWindowWidth {
		errors = append(errors, fmt.Sprintf("window.width: %d (valid: >= %d)", config.Window.Width, MinWindowWidth))
	}
	if config.Window.Height < MinWindowHeight {
		errors = append(errors, fmt.Sprintf("window.height: %d (valid: >= %d)", config.Window.Height, MinWindowHeight))
	}

	if !slices.Contains(validScreenshotFormats, config.Screenshot.Format) {
		errors = append(errors, fmt.Sprintf("screenshot.format: %q (valid: %v)", config.Screenshot.Format, validScreenshotFormats))
	}

	return errors
}

// CorrectConfig resets any invalid fields to their defaults. Invalid
// shader parameters take the value of the configured preset. Valid fields
// are preserved.
func CorrectConfig(config *Config) *Config {
	defaults := DefaultConfig()

	if config.Version != 1 {
		config.Version = defaults.Version
	}

	if !kernel.IsValidUpscaler(config.Video.Upscaler) {
		config.Video.Upscaler = defaults.Video.Upscaler
	}
	if !kernel.IsValidFilter(config.Video.Filter) {
		config.Video.Filter = defaults.Video.Filter
	}
	if !slices.Contains(validRegions, config.Video.Region) {
		config.Video.Region = defaults.Video.Region
	}

	s := &config.Shader
	if !slices.Contains(validPresets, s.Preset) {
		s.Preset = defaults.Shader.Preset
	}
	preset := presetShader(s.Preset)
	if s.BlurRadius < 0 || s.BlurRadius > MaxBlurRadius {
		s.BlurRadius = preset.BlurRadius
	}
	if s.BloomRadius < 0 || s.BloomRadius > MaxBloomRadius {
		s.BloomRadius = preset.BloomRadius
	}
	if !inUnit(s.BloomBrightness) {
		s.BloomBrightness = preset.BloomBrightness
	}
	if s.BloomWeight < 0 || s.BloomWeight > MaxBloomWeight {
		s.BloomWeight = preset.BloomWeight
	}
	if s.DotMask < 0 || s.DotMask >= kernel.DotMaskCount {
		s.DotMask = preset.DotMask
	}
	if !inUnit(s.DotMaskBrightness) {
		s.DotMaskBrightness = preset.DotMaskBrightness
	}
	if !inUnit(s.ScanlineBrightness) {
		s.ScanlineBrightness = preset.ScanlineBrightness
	}
	if !inUnit(s.ScanlineWeight) {
		s.ScanlineWeight = preset.ScanlineWeight
	}

	if config.Window.Width < MinWindowWidth {
		config.Window.Width = defaults.Window.Width
	}
	if config.Window.Height < MinWindowHeight {
		config.Window.Height = defaults.Window.Height
	}

	if !slices.Contains(validScreenshotFormats, config.Screenshot.Format) {
		config.Screenshot.Format = defaults.Screenshot.Format
	}

	return config
}

func upscalerIDs() []string {
	ids := make([]string, len(kernel.Upscalers))
	for i, info := range kernel.Upscalers {
		ids[i] = info.ID
	}
	return ids
}

func filterIDs() []string {
	ids := make([]string, len(kernel.Filters))
	for i, info := range kernel.Filters {
		ids[i] = info.ID
	}
	return ids
}
