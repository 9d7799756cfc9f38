// Package assetpack reads asset files such as background images either
// directly from disk or from inside a compressed archive (ZIP, 7z, gzip,
// tar.gz, RAR).
package assetpack

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for archive detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// DefaultMaxSize bounds the size of a loaded asset when Loader.MaxSize is
// zero.
const DefaultMaxSize = 32 * 1024 * 1024

var (
	// ErrNoMatch is returned when an archive holds no file with a wanted
	// extension.
	ErrNoMatch = errors.New("assetpack: no matching file in archive")
	// ErrUnsupportedFormat is returned for files that are neither an
	// archive nor have a wanted extension.
	ErrUnsupportedFormat = errors.New("assetpack: unsupported file format")
	// ErrTooLarge is returned when the asset exceeds the size limit.
	ErrTooLarge = errors.New("assetpack: file exceeds maximum size")
)

// container identifies how an asset is stored.
type container int

const (
	containerUnknown container = iota
	containerPlain
	containerZIP
	container7z
	containerGzip
	containerRAR
)

// Asset is a file read from disk or extracted from an archive.
type Asset struct {
	Name string // base name of the file
	Data []byte
}

// Loader reads assets whose names end in one of Extensions. Archives are
// searched for the first matching entry.
type Loader struct {
	Extensions []string // e.g. []string{".png", ".jpg"}
	MaxSize    int64    // zero selects DefaultMaxSize
}

// Load reads the asset at path. The container is recognised by its magic
// bytes first and by its file extension second.
func (l Loader) Load(path string) (Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Asset{}, fmt.Errorf("failed to read file header: %w", err)
	}

	switch l.sniff(header[:n], path) {
	case containerPlain:
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return Asset{}, fmt.Errorf("failed to seek file: %w", err)
		}
		data, err := l.read(f)
		if err != nil {
			return Asset{}, fmt.Errorf("failed to read asset: %w", err)
		}
		return Asset{Name: filepath.Base(path), Data: data}, nil
	case containerZIP:
		return l.fromZIP(path)
	case container7z:
		return l.from7z(path)
	case containerGzip:
		return l.fromGzip(path)
	case containerRAR:
		return l.fromRAR(path)
	default:
		return Asset{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// sniff determines the container from the header bytes and the path.
func (l Loader) sniff(header []byte, path string) container {
	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return containerZIP
	case bytes.HasPrefix(header, magicRAR):
		return containerRAR
	case bytes.HasPrefix(header, magic7z):
		return container7z
	case bytes.HasPrefix(header, magicGzip):
		return containerGzip
	}

	lower := strings.ToLower(path)
	switch filepath.Ext(lower) {
	case ".zip":
		return containerZIP
	case ".7z":
		return container7z
	case ".gz", ".tgz":
		return containerGzip
	case ".rar":
		return containerRAR
	}

	if l.matches(lower) {
		return containerPlain
	}
	return containerUnknown
}

// matches reports whether name ends in one of the wanted extensions.
func (l Loader) matches(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range l.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func (l Loader) maxSize() int64 {
	if l.MaxSize > 0 {
		return l.MaxSize
	}
	return DefaultMaxSize
}

// read reads all of r, failing once more than the size limit is seen.
func (l Loader) read(r io.Reader) ([]byte, error) {
	limit := l.maxSize()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

// extract reads the entry named name through open.
func (l Loader) extract(name string, open func() (io.ReadCloser, error)) (Asset, error) {
	rc, err := open()
	if err != nil {
		return Asset{}, fmt.Errorf("failed to open %s in archive: %w", name, err)
	}
	defer rc.Close()

	data, err := l.read(rc)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return Asset{Name: filepath.Base(name), Data: data}, nil
}
