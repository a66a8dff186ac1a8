// Package integrity checks local files against expected SHA-1 digests.
package integrity

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/aayushdutt/mcinstall/internal/core"
)

// HashFile computes the lowercase hex SHA-1 of a file
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes computes the lowercase hex SHA-1 of data
func HashBytes(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Verify checks the file at path against expected.
//
// It returns nil when the digests match, a core.KindIntegrityMissing error
// when there is no regular file at path, and a core.KindIntegrityCorrupted
// error when the content differs or cannot be read. An empty expected
// digest only checks that the file exists.
func Verify(path, expected string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &core.Error{Kind: core.KindIntegrityMissing, Path: path, Err: err}
		}
		return &core.Error{Kind: core.KindIntegrityCorrupted, Path: path, Err: err}
	}
	if info.IsDir() {
		return &core.Error{Kind: core.KindIntegrityMissing, Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}

	if expected == "" {
		return nil
	}

	actual, err := HashFile(path)
	if err != nil {
		return &core.Error{Kind: core.KindIntegrityCorrupted, Path: path, Err: err}
	}
	if actual != strings.ToLower(expected) {
		return &core.Error{
			Kind: core.KindIntegrityCorrupted,
			Path: path,
			Err:  fmt.Errorf("sha1 mismatch: expected %s, got %s", expected, actual),
		}
	}
	return nil
}

// NeedsDownload reports whether err is a verification failure that a
// fresh download remedies.
func NeedsDownload(err error) bool {
	return errors.Is(err, core.ErrIntegrityMissing) || errors.Is(err, core.ErrIntegrityCorrupted)
}
