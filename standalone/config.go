package standalone

import (
	"fmt"
	"log"
	"strings"

	emucore "github.com/user-none/framepipe/api"
	"github.com/user-none/framepipe/kernel"
	"github.com/user-none/framepipe/pipeline"
	"github.com/user-none/framepipe/storage"
)

// ParseRegion converts a region string to emucore.Region.
func ParseRegion(regionStr string) (emucore.Region, error) {
	switch strings.ToLower(regionStr) {
	case "pal", "":
		return emucore.RegionPAL, nil
	case "ntsc":
		return emucore.RegionNTSC, nil
	default:
		return 0, fmt.Errorf("unknown region %q: use pal or ntsc", regionStr)
	}
}

// PipelineConfig converts the stored configuration into pipeline
// settings. Unknown kernel IDs fall back to the bypass kernels and an
// unreadable background image falls back to the plain gray fill; both are
// logged.
func PipelineConfig(cfg *storage.Config) (pipeline.Config, error) {
	pc := pipeline.DefaultConfig()

	region, err := ParseRegion(cfg.Video.Region)
	if err != nil {
		return pc, err
	}
	pc.Region = region

	if i, ok := kernel.UpscalerIndex(cfg.Video.Upscaler); ok {
		pc.Upscaler = i
	} else {
		log.Printf("Warning: unknown upscaler %q, using %q", cfg.Video.Upscaler, kernel.Upscalers[0].ID)
	}
	if i, ok := kernel.FilterIndex(cfg.Video.Filter); ok {
		pc.Filter = i
	} else {
		log.Printf("Warning: unknown filter %q, using %q", cfg.Video.Filter, kernel.Filters[0].ID)
	}

	pc.Shader = cfg.Shader.Options()
	pc.Fullscreen = cfg.Video.Fullscreen
	pc.KeepAspectRatio = cfg.Video.KeepAspectRatio
	pc.DrawEmulator = cfg.Video.DrawEmulator

	if cfg.Video.Background != "" {
		img, err := pipeline.LoadBackground(cfg.Video.Background)
		if err != nil {
			log.Printf("Warning: failed to load background: %v", err)
		} else {
			pc.Background = img
		}
	}

	return pc, nil
}
