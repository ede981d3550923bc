package floe

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidPath indicates a location that would escape the storage root.
var ErrInvalidPath = errors.New("invalid path: escapes storage root")

// -----------------------------------------------------------------------------
// Filesystem FileIO
// -----------------------------------------------------------------------------

// fsIO implements FileIO using the local filesystem.
type fsIO struct {
	root string
}

// NewFSIO creates a filesystem-backed FileIO rooted at the given directory.
// The directory must exist. Locations beginning with "/" are resolved
// relative to the root.
//
// Consistency: Immediate read-after-write on local filesystems.
func NewFSIO(root string) (FileIO, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrNotExist
	}
	return &fsIO{root: root}, nil
}

func (f *fsIO) Open(_ context.Context, location string) (io.ReadCloser, error) {
	fullPath, err := f.safePath(location)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

func (f *fsIO) Create(_ context.Context, location string, r io.Reader) error {
	fullPath, err := f.safePath(location)
	if err != nil {
		return err
	}

	if _, err := os.Stat(fullPath); err == nil {
		return ErrPathExists
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrPathExists
		}
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = io.Copy(file, r)
	return err
}

func (f *fsIO) Exists(_ context.Context, location string) (bool, error) {
	fullPath, err := f.safePath(location)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fullPath)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (f *fsIO) safePath(location string) (string, error) {
	if location == "" {
		return "", ErrInvalidPath
	}

	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(location, "/")))
	if cleaned == "." || filepath.IsAbs(cleaned) {
		return "", ErrInvalidPath
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}

	fullPath := filepath.Join(f.root, cleaned)

	absRoot, err := filepath.Abs(f.root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}

	return fullPath, nil
}

// -----------------------------------------------------------------------------
// Memory FileIO
// -----------------------------------------------------------------------------

// memoryIO implements FileIO using an in-memory map.
type memoryIO struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryIO creates an in-memory FileIO.
//
// Consistency: Immediate.
// The returned FileIO is safe for concurrent use.
func NewMemoryIO() FileIO {
	return &memoryIO{
		data: make(map[string][]byte),
	}
}

func (m *memoryIO) Open(_ context.Context, location string) (io.ReadCloser, error) {
	normalized, valid := normalizeLocation(location)
	if !valid {
		return nil, ErrInvalidPath
	}

	m.mu.RLock()
	data, exists := m.data[normalized]
	m.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	return io.NopCloser(strings.NewReader(string(dataCopy))), nil
}

func (m *memoryIO) Create(_ context.Context, location string, r io.Reader) error {
	normalized, valid := normalizeLocation(location)
	if !valid {
		return ErrInvalidPath
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[normalized]; exists {
		return ErrPathExists
	}

	m.data[normalized] = data
	return nil
}

func (m *memoryIO) Exists(_ context.Context, location string) (bool, error) {
	normalized, valid := normalizeLocation(location)
	if !valid {
		return false, ErrInvalidPath
	}

	m.mu.RLock()
	_, exists := m.data[normalized]
	m.mu.RUnlock()

	return exists, nil
}

func normalizeLocation(location string) (string, bool) {
	if location == "" {
		return "", false
	}

	cleaned := filepath.Clean(location)
	cleaned = filepath.ToSlash(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "/")

	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || cleaned == "." {
		return "", false
	}

	return cleaned, true
}
