// Package storage maps install artifacts onto the install root and
// performs the filesystem operations the installer needs.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aayushdutt/mcinstall/internal/core"
)

// Store is an install root on the local filesystem.
//
// Layout:
//
//	versions/<id>/<id>.json
//	versions/<jar>/<jar>.jar
//	libraries/<path>
//	assets/indexes/<id>.json
//	assets/objects/<hash[:2]>/<hash>
type Store struct {
	root string
}

// New returns a Store rooted at root
func New(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Root returns the install root
func (s *Store) Root() string {
	return s.root
}

// Path joins elem onto the install root
func (s *Store) Path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

// VersionPath is where the resolved version document for id lives
func (s *Store) VersionPath(id string) string {
	return s.Path("versions", id, id+".json")
}

// JarPath is where the client jar named jarName lives
func (s *Store) JarPath(jarName string) string {
	return s.Path("versions", jarName, jarName+".jar")
}

// LibraryPath maps a repository-relative library path into libraries/
func (s *Store) LibraryPath(rel string) string {
	return s.Path("libraries", filepath.FromSlash(rel))
}

// IndexPath is where asset index id lives
func (s *Store) IndexPath(id string) string {
	return s.Path("assets", "indexes", id+".json")
}

// ObjectPath is the content-addressed location of an asset blob
func (s *Store) ObjectPath(hash string) string {
	hash = strings.ToLower(hash)
	prefix := hash
	if len(hash) > 2 {
		prefix = hash[:2]
	}
	return s.Path("assets", "objects", prefix, hash)
}

// Exists reports whether a regular file exists at path
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadFile reads a file. A missing file yields an error matching
// fs.ErrNotExist.
func (s *Store) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to path, creating parent directories. The data
// is written to a temporary file first and renamed into place so readers
// never observe a partial file. Failures are core.KindIOError.
func (s *Store) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &core.Error{Kind: core.KindIOError, Path: path, Err: fmt.Errorf("creating directory: %w", err)}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &core.Error{Kind: core.KindIOError, Path: path, Err: fmt.Errorf("creating file: %w", err)}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &core.Error{Kind: core.KindIOError, Path: path, Err: fmt.Errorf("writing file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &core.Error{Kind: core.KindIOError, Path: path, Err: fmt.Errorf("closing file: %w", err)}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return &core.Error{Kind: core.KindIOError, Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &core.Error{Kind: core.KindIOError, Path: path, Err: fmt.Errorf("renaming file: %w", err)}
	}
	return nil
}
