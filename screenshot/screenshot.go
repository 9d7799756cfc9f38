// Package screenshot writes captured display images to disk or to the
// system clipboard.
package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"golang.design/x/clipboard"
)

// Format is an image file format for saved screenshots.
type Format int

const (
	FormatPNG Format = iota
	FormatWebP
)

// String returns the format name as used in configuration.
func (f Format) String() string {
	switch f {
	case FormatWebP:
		return "webp"
	default:
		return "png"
	}
}

// Ext returns the file extension including the leading dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat converts a configuration string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return FormatPNG, fmt.Errorf("unknown screenshot format %q: use png or webp", s)
	}
}

// Filename returns the file name for a screenshot taken at t.
// Files are named by Unix timestamp.
func Filename(t time.Time, f Format) string {
	return fmt.Sprintf("%d%s", t.Unix(), f.Ext())
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatWebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return png.Encode(w, img)
	}
}

// Save writes img into dir and returns the full path of the new file.
// The directory is created if it does not exist.
func Save(img image.Image, dir string, f Format) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	fullPath := filepath.Join(dir, Filename(time.Now(), f))

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create screenshot file: %w", err)
	}

	if err := Encode(file, img, f); err != nil {
		file.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return fullPath, nil
}

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// CopyToClipboard places img on the system clipboard as PNG data.
func CopyToClipboard(img image.Image) error {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", clipboardErr)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	return nil
}
