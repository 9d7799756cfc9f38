package assetpack

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// fromGzip reads a gzip-compressed asset, or the first matching file of
// a tar.gz archive
func (l Loader) fromGzip(path string) (Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to open gzip: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") {
		return l.fromTar(gr)
	}

	// Plain .gz: the asset is named after the file without the suffix.
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !l.matches(name) {
		return Asset{}, fmt.Errorf("%w: %s", ErrNoMatch, name)
	}
	data, err := l.read(gr)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to decompress gzip: %w", err)
	}
	return Asset{Name: name, Data: data}, nil
}

// fromTar extracts the first matching regular file from a tar stream
func (l Loader) fromTar(r io.Reader) (Asset, error) {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return Asset{}, ErrNoMatch
		}
		if err != nil {
			return Asset{}, fmt.Errorf("failed to read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !l.matches(header.Name) {
			continue
		}
		return l.extract(header.Name, func() (io.ReadCloser, error) {
			return io.NopCloser(tr), nil
		})
	}
}
