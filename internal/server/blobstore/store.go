// Package blobstore keeps the original bytes of uploaded timetables.
package blobstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/google/uuid"
)

// Store persists opaque objects under string keys.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns a location the client can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
	// Delete is idempotent: removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewKey returns a unique, date-partitioned key such as
// "timetables/2026/10/19/<uuid>.xlsx".
func NewKey(prefix, ext string) string {
	d := time.Now().UTC()
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%d/%02d/%02d/%s%s", strings.Trim(prefix, "/"), d.Year(), d.Month(), d.Day(), uuid.New(), strings.ToLower(ext))
}

// NopStore discards uploads; used when blob storage is disabled.
type NopStore struct{}

func (NopStore) Put(context.Context, string, []byte, string) error { return nil }

func (NopStore) URL(context.Context, string) (string, error) { return "", common.ErrorNotFound }

func (NopStore) Delete(context.Context, string) error { return nil }
