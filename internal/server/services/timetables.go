package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/blobstore"
	"github.com/dmitrijs2005/studymate/internal/server/content"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/timetables"
	"github.com/dmitrijs2005/studymate/internal/server/tabular"
)

const timetableBlobPrefix = "timetables"

// TimetableService stores uploaded spreadsheets. Listing, stats, deletion
// and clearing come from the embedded content store; timetables cannot be
// edited once uploaded.
type TimetableService struct {
	*content.Store[models.Timetable]
	blobs  blobstore.Store
	logger logging.Logger
}

func NewTimetableService(db *sql.DB, m repomanager.RepositoryManager, vis content.Visibility, blobs blobstore.Store, logger logging.Logger) *TimetableService {
	if logger == nil {
		logger = logging.Nop()
	}
	if blobs == nil {
		blobs = blobstore.NopStore{}
	}
	s := &TimetableService{blobs: blobs, logger: logger.With("module", "timetables")}
	s.Store = content.NewStore(m.Timetables(db), vis, timetableHooks(time.Now, s.removeBlob), logger)
	return s
}

func timetableHooks(now func() time.Time, onDelete func(context.Context, *timetables.Record) error) content.Hooks[models.Timetable] {
	return content.Hooks[models.Timetable]{
		Kind: "timetable",
		NewID: func(_ context.Context, author string, p models.Timetable) (string, error) {
			return p.FileName + "_" + author, nil
		},
		Disambiguate: func(id string, attempt int) (string, error) {
			if attempt == 1 {
				return id + "_" + now().Format("150405"), nil
			}
			suffix, err := common.MakeRandHexString(3)
			if err != nil {
				return "", err
			}
			return id + "_" + suffix, nil
		},
		Fingerprint: func(p models.Timetable) string { return p.Checksum },
		Title:       func(p models.Timetable) string { return p.FileName },
		Text:        func(p models.Timetable) string { return p.Text() },
		OnDelete:    onDelete,
	}
}

// Fingerprint is the hex sha256 of an upload.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Upload decodes and stores one spreadsheet. The display name is the file's
// base name without extension; the store appends the uploader.
// Byte-identical uploads are rejected with common.ErrDuplicateContent.
func (s *TimetableService) Upload(ctx context.Context, actor access.Actor, fileName string, data []byte) (*timetables.Record, error) {
	if !actor.Authenticated() {
		return nil, common.ErrNotAuthenticated
	}
	format, err := tabular.FormatOf(fileName)
	if err != nil {
		return nil, err
	}
	doc, err := tabular.Decode(fileName, data)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(fileName)
	payload := models.Timetable{
		FileName: strings.TrimSuffix(base, filepath.Ext(base)),
		Document: doc,
		Checksum: Fingerprint(data),
	}

	if err := s.CheckFingerprint(ctx, payload.Checksum); err != nil {
		if errors.Is(err, common.ErrDuplicateContent) {
			s.logger.Info(ctx, "duplicate timetable skipped", "file", base, "by", actor.Username)
		}
		return nil, err
	}

	if _, nop := s.blobs.(blobstore.NopStore); !nop {
		payload.StorageKey = blobstore.NewKey(timetableBlobPrefix, filepath.Ext(base))
		if err := s.blobs.Put(ctx, payload.StorageKey, data, format.ContentType()); err != nil {
			return nil, common.Storage(err)
		}
	}

	rec, err := s.Create(ctx, actor, payload)
	if err != nil {
		if payload.StorageKey != "" {
			if derr := s.blobs.Delete(ctx, payload.StorageKey); derr != nil {
				s.logger.Warn(ctx, "dropping orphan blob failed", "key", payload.StorageKey, "error", derr)
			}
		}
		return nil, err
	}
	return rec, nil
}

// Export re-encodes a stored timetable as xlsx or csv.
func (s *TimetableService) Export(ctx context.Context, actor access.Actor, id, format string) ([]byte, string, error) {
	f, err := tabular.ParseFormat(format)
	if err != nil {
		return nil, "", err
	}
	rec, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	data, err := tabular.Encode(rec.Payload.Document, f)
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	return data, f.ContentType(), nil
}

// SourceURL points at the original upload.
func (s *TimetableService) SourceURL(ctx context.Context, actor access.Actor, id string) (string, error) {
	rec, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if rec.Payload.StorageKey == "" {
		return "", common.ErrorNotFound
	}
	url, err := s.blobs.URL(ctx, rec.Payload.StorageKey)
	if err != nil {
		return "", common.Storage(err)
	}
	return url, nil
}

func (s *TimetableService) removeBlob(ctx context.Context, rec *timetables.Record) error {
	if rec.Payload.StorageKey == "" {
		return nil
	}
	return s.blobs.Delete(ctx, rec.Payload.StorageKey)
}
