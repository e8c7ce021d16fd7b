package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	errs "github.com/Zoidster/BirbBot/pkg/errors"
)

// partSuffix marks an incomplete download
const partSuffix = ".part"

// Manager handles file storage operations for one image folder
type Manager struct {
	dir string
}

// NewManager creates a storage manager for dir without touching disk
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Ensure creates the folder if it doesn't exist
func (m *Manager) Ensure() error {
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return errs.WriteFailed(m.dir, fmt.Errorf("failed to create folder: %w", err))
	}
	return nil
}

// Exists reports whether a complete file with the given name is present
func (m *Manager) Exists(filename string) bool {
	if !validName(filename) {
		return false
	}
	info, err := os.Stat(m.Path(filename))
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Save writes the contents of r to filename atomically
func (m *Manager) Save(r io.Reader, filename string) error {
	target := m.Path(filename)
	if !validName(filename) {
		return errs.WriteFailed(target, fmt.Errorf("invalid filename %q", filename))
	}
	tempFile := target + partSuffix

	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errs.WriteFailed(target, fmt.Errorf("failed to create temporary file: %w", err))
	}

	_, err = io.Copy(out, r)
	if err == nil {
		err = out.Sync()
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return errs.WriteFailed(target, fmt.Errorf("failed to save image data: %w", err))
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return errs.WriteFailed(target, fmt.Errorf("failed to close file: %w", closeErr))
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return errs.WriteFailed(target, fmt.Errorf("failed to rename temporary file: %w", err))
	}

	return nil
}

// validName reports whether filename names an entry directly inside the folder
func validName(filename string) bool {
	switch filename {
	case "", ".", "..":
		return false
	}
	return filepath.Base(filename) == filename
}

// Path returns the full path of filename inside the folder
func (m *Manager) Path(filename string) string {
	return filepath.Join(m.dir, filename)
}

// Dir returns the folder path
func (m *Manager) Dir() string {
	return m.dir
}
