package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/user-none/framepipe/assetpack"
	"golang.org/x/image/draw"
)

// Background texture geometry.
const (
	BackgroundWidth  = 1024
	BackgroundHeight = 512

	fallbackSize = 128
)

var fallbackColor = color.RGBA{0xaa, 0xaa, 0xaa, 0xff}

var backgroundLoader = assetpack.Loader{
	Extensions: []string{".png", ".jpg", ".jpeg", ".tga"},
}

// LoadBackground decodes a PNG, JPEG or TGA image from path. The image
// may also be the first image inside a ZIP, 7z, gzip, tar.gz or RAR
// archive.
func LoadBackground(path string) (image.Image, error) {
	asset, err := backgroundLoader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	img, err := decodeImage(asset.Name, bytes.NewReader(asset.Data))
	if err != nil {
		return nil, fmt.Errorf("background %s: %w", asset.Name, err)
	}
	return img, nil
}

// decodeImage picks the decoder from the file extension. TGA files carry
// no magic number, so format sniffing cannot be relied on.
func decodeImage(name string, r io.Reader) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tga":
		return tga.Decode(r)
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	default:
		return png.Decode(r)
	}
}

// backgroundPixels scales img to the background texture size. A nil image
// yields a small opaque gray texture.
func backgroundPixels(img image.Image) *image.RGBA {
	if img == nil {
		dst := image.NewRGBA(image.Rect(0, 0, fallbackSize, fallbackSize))
		draw.Draw(dst, dst.Bounds(), image.NewUniform(fallbackColor), image.Point{}, draw.Src)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, BackgroundWidth, BackgroundHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
