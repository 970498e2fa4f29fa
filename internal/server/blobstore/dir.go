package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/filex"
)

// DirStore keeps objects as files below a root directory.
type DirStore struct {
	root string
}

// NewDirStore creates dir (relative paths resolve against the working
// directory) and returns a store rooted there.
func NewDirStore(dir string) (*DirStore, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(key, "/")))
	if key == "" || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: bad key %q", common.ErrorValidation, key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *DirStore) Put(_ context.Context, key string, data []byte, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o770); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return os.WriteFile(p, data, 0o640)
}

func (s *DirStore) URL(_ context.Context, key string) (string, error) {
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", common.ErrorNotFound
		}
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String(), nil
}

func (s *DirStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
