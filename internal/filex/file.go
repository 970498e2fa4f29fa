// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubdDir creates dirName under the current working directory (if
// missing) and returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	return ensure(filepath.Join(cwd, dirName))
}

// EnsureDir is EnsureSubdDir for paths that may already be absolute.
func EnsureDir(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return EnsureSubdDir(path)
	}
	return ensure(filepath.Clean(path))
}

func ensure(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}
