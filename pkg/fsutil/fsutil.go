// Package fsutil collects the generic directory primitives the engine's
// Open path needs: resolve a path, create it if missing, and confirm it
// is reachable. It is a thin collaborator, not a virtual filesystem —
// callers that need more should use os/path/filepath directly.
package fsutil

import (
	"os"
	"path/filepath"
)

// OpenDir resolves dir to an absolute path and confirms it exists and is
// a directory. It does not create anything; pair with MakeDir first if
// the directory may not exist yet.
func OpenDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &os.PathError{Op: "opendir", Path: abs, Err: os.ErrInvalid}
	}
	return abs, nil
}

// MakeDir creates dir and every missing ancestor. It is idempotent: an
// already-existing directory is not an error.
func MakeDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", err
	}
	return abs, nil
}

// Access reports whether path exists and is reachable with the current
// process's permissions.
func Access(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
