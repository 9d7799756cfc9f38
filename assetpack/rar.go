package assetpack

import (
	"errors"
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"
)

// fromRAR extracts the first matching file from a RAR archive
func (l Loader) fromRAR(path string) (Asset, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return Asset{}, fmt.Errorf("failed to open rar: %w", err)
	}
	defer r.Close()

	for {
		header, err := r.Next()
		if errors.Is(err, io.EOF) {
			return Asset{}, ErrNoMatch
		}
		if err != nil {
			return Asset{}, fmt.Errorf("failed to read rar entry: %w", err)
		}
		if header.IsDir || !l.matches(header.Name) {
			continue
		}
		return l.extract(header.Name, func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		})
	}
}
