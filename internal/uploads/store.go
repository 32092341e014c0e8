package uploads

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PathPrefix is the relative prefix stored in transaction records and used
// as the public URL path for serving receipt images.
const PathPrefix = "uploads/"

var (
	ErrUnsafeFilename      = errors.New("unsafe filename")
	ErrDisallowedExtension = errors.New("file extension not allowed")
)

// Store writes uploaded receipt images into a fixed directory, keyed by
// sanitized filename. Two uploads with the same sanitized name overwrite
// each other; there is no delete operation beyond the create-rollback.
type Store struct {
	dir     string
	allowed map[string]struct{}
}

func NewStore(dir string, allowedExtensions []string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Store{dir: dir, allowed: allowed}, nil
}

// Dir returns the root directory files are written into.
func (s *Store) Dir() string {
	return s.dir
}

// Save sanitizes the filename, checks its extension against the allow-list,
// writes the bytes, and returns the relative reference path stored in the
// record ("uploads/<sanitized>").
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	name, err := SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	if err := s.checkExtension(name); err != nil {
		return "", err
	}

	dst := filepath.Join(s.dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	slog.Info("Receipt saved", "file", name, "bytes", written)
	return PathPrefix + name, nil
}

// Remove deletes a previously saved file given its relative reference path.
// It exists only so the service layer can roll back a file write when the
// record insert fails; row deletion never cascades here.
func (s *Store) Remove(relPath string) error {
	name := strings.TrimPrefix(relPath, PathPrefix)
	if name == relPath || name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnsafeFilename, relPath)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("remove upload file: %w", err)
	}
	return nil
}

// List returns the relative reference paths of every file currently in the
// store. Used by the orphan audit.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, PathPrefix+e.Name())
	}
	return out, nil
}

func (s *Store) checkExtension(name string) error {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return fmt.Errorf("%w: %q has no extension", ErrDisallowedExtension, name)
	}
	if _, ok := s.allowed[ext]; !ok {
		return fmt.Errorf("%w: .%s", ErrDisallowedExtension, ext)
	}
	return nil
}

/// SanitizeFilename reduces a client-supplied filename to a safe basename:
// path separators are stripped, whitespace becomes underscores, and any
// character outside [A-Za-z0-9._-] is dropped. Fails if nothing safe is left.
func SanitizeFilename(filename string) (string, error) {
	name := strings.ReplaceAll(filename, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._-")
	if out == "" {
		return "", fmt.Errorf("%w: %q", ErrUnsafeFilename, filename)
	}
	return out, nil
}
