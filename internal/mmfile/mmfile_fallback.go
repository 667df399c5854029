//go:build !unix

package mmfile

import (
	"fmt"
	"os"
)

// Map reads the whole file on platforms without a read-only mmap. The
// returned cleanup function only drops the reference.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: read %s: %w", path, err)
	}
	return data, func() error {
		data = nil
		return nil
	}, nil
}
