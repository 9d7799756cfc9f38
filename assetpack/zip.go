package assetpack

import (
	"archive/zip"
	"fmt"
)

// fromZIP extracts the first matching file from a ZIP archive
func (l Loader) fromZIP(path string) (Asset, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !l.matches(f.Name) {
			continue
		}
		return l.extract(f.Name, f.Open)
	}
	return Asset{}, ErrNoMatch
}
