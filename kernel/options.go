package kernel

// Options are the shader parameters consumed by the configurable
// filters.
type Options struct {
	BlurRadius float32

	BloomRadius     float32
	BloomBrightness float32
	BloomWeight     float32

	DotMask           int // index into the dot mask table
	DotMaskBrightness float32

	ScanlineBrightness float32
	ScanlineWeight     float32
}

// TFTOptions returns the parameters of the flat panel preset.
func TFTOptions() Options {
	return Options{
		BlurRadius:         0,
		BloomRadius:        0,
		BloomBrightness:    0,
		BloomWeight:        0,
		DotMask:            0,
		DotMaskBrightness:  0.7,
		ScanlineBrightness: 1.0,
		ScanlineWeight:     0,
	}
}

// CRTOptions returns the parameters of the cathode ray tube preset.
func CRTOptions() Options {
	return Options{
		BlurRadius:         1.5,
		BloomRadius:        1.0,
		BloomBrightness:    0.4,
		BloomWeight:        1.21,
		DotMask:            1,
		DotMaskBrightness:  0.5,
		ScanlineBrightness: 0.55,
		ScanlineWeight:     0.11,
	}
}

// Preset returns the options registered under name and whether it exists.
func Preset(name string) (Options, bool) {
	switch name {
	case "tft":
		return TFTOptions(), true
	case "crt":
		return CRTOptions(), true
	default:
		return Options{}, false
	}
}
