//go:build !unix

package fileutil

import (
	"fmt"
	"os"
)

// MappedFile holds a file read into memory on platforms without mmap.
type MappedFile struct {
	path string
	data []byte
}

// Map reads the whole file. Empty files yield nil data.
func Map(path string) (*MappedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		data = nil
	}
	return &MappedFile{path: path, data: data}, nil
}

// Close releases the data.
func (m *MappedFile) Close() error {
	m.data = nil
	return nil
}

// Data returns the file bytes.
func (m *MappedFile) Data() []byte {
	return m.data
}

// Path returns the file's path.
func (m *MappedFile) Path() string {
	return m.path
}
