package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/user-none/framepipe/pipeline"
	"github.com/user-none/framepipe/standalone"
	"github.com/user-none/framepipe/storage"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json (default: data directory)")
	upscaler := flag.String("upscaler", "", "Upscaler ID, overrides the config file")
	filter := flag.String("filter", "", "Filter ID, overrides the config file")
	verbose := flag.Bool("v", false, "Log pipeline events to stderr")

	headless := flag.Bool("headless", false, "Render offscreen with the software device instead of opening a window")
	output := flag.String("output", "frame.png", "Headless output image (.png or .webp)")
	width := flag.Int("width", 800, "Headless output width")
	height := flag.Int("height", 600, "Headless output height")
	frames := flag.Int("frames", 1, "Headless frames to draw before writing the output")
	cam := flag.String("camera", "", "Headless camera preset: "+strings.Join(standalone.CameraPresets(), ", "))
	capture := flag.Bool("capture", false, "Headless: write the filtered emulator texture instead of the composed output")
	factor := flag.Int("factor", 0, "Headless upscale factor (default: 4)")

	flag.Parse()

	if *verbose {
		pipeline.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg, err := storage.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config file
	if *upscaler != "" {
		cfg.Video.Upscaler = *upscaler
	}
	if *filter != "" {
		cfg.Video.Filter = *filter
	}

	if problems := storage.ValidateConfig(cfg); len(problems) > 0 {
		for _, p := range problems {
			log.Printf("Warning: invalid config value %s, using default", p)
		}
		storage.CorrectConfig(cfg)
	}

	if *headless {
		err = standalone.RunHeadless(cfg, standalone.HeadlessOptions{
			Width:         *width,
			Height:        *height,
			Frames:        *frames,
			Camera:        *cam,
			Output:        *output,
			Capture:       *capture,
			UpscaleFactor: *factor,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *output)
		return
	}

	if err := storage.EnsureDirectories(); err != nil {
		log.Printf("Warning: %v", err)
	}
	if err := standalone.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
