package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FS stores documents as files under a base directory.
type FS struct {
	dir string
}

// NewFS returns a store rooted at dir. The directory is created lazily on
// first save.
func NewFS(dir string) (*FS, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	return &FS{dir: dir}, nil
}

// Dir returns the base directory.
func (s *FS) Dir() string { return s.dir }

// Path returns the file path backing a document name.
func (s *FS) Path(name string) string {
	return filepath.Join(s.dir, filepath.FromSlash(name))
}

// Save writes v to name, creating parent directories. The write goes
// through a temp file so readers never see a partial document.
func (s *FS) Save(_ context.Context, name string, v any) error {
	data, err := encode(name, v)
	if err != nil {
		return err
	}
	p := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

// Load reads name into v.
func (s *FS) Load(_ context.Context, name string, v any) (bool, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := decode(name, data, v); err != nil {
		return false, err
	}
	return true, nil
}
