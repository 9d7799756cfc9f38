package assetpack

import (
	"fmt"

	"github.com/bodgit/sevenzip"
)

// from7z extracts the first matching file from a 7z archive
func (l Loader) from7z(path string) (Asset, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to open 7z: %w", err)
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
