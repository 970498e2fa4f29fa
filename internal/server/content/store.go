package content

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/metrics"
	"github.com/dmitrijs2005/studymate/internal/server/visibility"
)

const maxIDAttempts = 5

// Hooks adapt the generic store to one content kind. Only Kind, NewID and
// Title are required.
type Hooks[P any] struct {
	Kind string

	// NewID proposes an identifier for a record about to be created.
	NewID func(ctx context.Context, author string, p P) (string, error)
	// Disambiguate derives a replacement after ID collision number attempt (1-based).
	Disambiguate func(id string, attempt int) (string, error)
	// Prepare fills defaults that depend on the final ID.
	Prepare func(id string, p *P)

	Fingerprint func(p P) string
	Title       func(p P) string
	Text        func(p P) string
	Category    func(p P) string

	// Editable allows Update. Kinds without it return common.ErrImmutable.
	Editable bool

	// OnDelete runs after a record is removed. Failures are logged only.
	OnDelete func(ctx context.Context, rec *Record[P]) error
}

// Visibility yields the authors a viewer may see.
type Visibility interface {
	VisibleAuthors(ctx context.Context, viewer string) visibility.Set
}

// Store applies visibility and authorship rules on top of a Repository.
type Store[P any] struct {
	repo   Repository[P]
	vis    Visibility
	hooks  Hooks[P]
	logger logging.Logger
	now    func() time.Time
}

func NewStore[P any](repo Repository[P], vis Visibility, hooks Hooks[P], logger logging.Logger) *Store[P] {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store[P]{
		repo:   repo,
		vis:    vis,
		hooks:  hooks,
		logger: logger.With("module", "content", "kind", hooks.Kind),
		now:    time.Now,
	}
}

func (s *Store[P]) observe(op string, err error) {
	metrics.ContentOp(s.hooks.Kind, op, err)
}

// Create stores payload authored by actor (or common.AnonymousAuthor).
// Content whose fingerprint is already stored is skipped with
// common.ErrDuplicateContent.
func (s *Store[P]) Create(ctx context.Context, actor access.Actor, payload P) (rec *Record[P], err error) {
	defer func() { s.observe("create", err) }()

	author := actor.Username
	if author == "" {
		author = common.AnonymousAuthor
	}

	var fp string
	if s.hooks.Fingerprint != nil {
		fp = s.hooks.Fingerprint(payload)
	}
	if err := s.CheckFingerprint(ctx, fp); err != nil {
		return nil, err
	}

	base, err := s.hooks.NewID(ctx, author, payload)
	if err != nil {
		return nil, common.Storage(err)
	}

	id := base
	for attempt := 1; ; attempt++ {
		p := payload
		if s.hooks.Prepare != nil {
			s.hooks.Prepare(id, &p)
		}
		now := s.now().UTC()
		created, err := s.repo.Insert(ctx, &Record[P]{
			ID:          id,
			Author:      author,
			Payload:     p,
			Fingerprint: fp,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err == nil {
			s.logger.Info(ctx, "content created", "id", created.ID, "author", author)
			return created, nil
		}
		if !errors.Is(err, common.ErrorAlreadyExists) || s.hooks.Disambiguate == nil || attempt >= maxIDAttempts {
			return nil, common.Storage(err)
		}
		if id, err = s.hooks.Disambiguate(base, attempt); err != nil {
			return nil, common.Storage(err)
		}
	}
}

// CheckFingerprint returns common.ErrDuplicateContent when a record with fp
// is already stored. An empty fp never matches.
func (s *Store[P]) CheckFingerprint(ctx context.Context, fp string) error {
	if fp == "" {
		return nil
	}
	_, err := s.repo.FindByFingerprint(ctx, fp)
	switch {
	case err == nil:
		return common.ErrDuplicateContent
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return common.Storage(err)
	}
}

// Get returns one record if the actor may see it.
func (s *Store[P]) Get(ctx context.Context, actor access.Actor, id string) (*Record[P], error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, common.Storage(err)
	}
	if actor.IsAdmin() {
		return rec, nil
	}
	if !s.vis.VisibleAuthors(ctx, actor.Username).Contains(rec.Author) {
		return nil, common.ErrForbidden
	}
	return rec, nil
}

// List returns records authored by the actor or the actor's partners,
// filtered and sorted per opts.
func (s *Store[P]) List(ctx context.Context, actor access.Actor, opts ListOptions) ([]*Record[P], error) {
	set := s.vis.VisibleAuthors(ctx, actor.Username)
	if set.Len() == 0 {
		return []*Record[P]{}, nil
	}

	records, err := s.repo.List(ctx, set.Members())
	if err != nil {
		return nil, common.Storage(err)
	}

	out := make([]*Record[P], 0, len(records))
	for _, r := range records {
		if !set.Contains(r.Author) {
			continue
		}
		switch opts.Scope {
		case ScopeMine:
			if r.Author != set.Viewer() {
				continue
			}
		case ScopePartners:
			if !set.IsPartner(r.Author) {
				continue
			}
		}
		if s.match(r, opts) {
			out = append(out, r)
		}
	}
	s.sort(out, opts.Sort)
	return out, nil
}

// ListAll is the administrative view: every record, no visibility filter.
func (s *Store[P]) ListAll(ctx context.Context, actor access.Actor, opts ListOptions) ([]*Record[P], error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	records, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, common.Storage(err)
	}
	out := make([]*Record[P], 0, len(records))
	for _, r := range records {
		if s.match(r, opts) {
			out = append(out, r)
		}
	}
	s.sort(out, opts.Sort)
	return out, nil
}

// Stats counts the records visible to the actor.
func (s *Store[P]) Stats(ctx context.Context, actor access.Actor) (Stats, error) {
	records, err := s.List(ctx, actor, ListOptions{})
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Count: len(records)}
	authors := make(map[string]struct{})
	for _, r := range records {
		st.TotalChars += utf8.RuneCountInString(s.text(r.Payload))
		authors[r.Author] = struct{}{}
	}
	st.Authors = len(authors)
	return st, nil
}

// Update applies mutate to a record the actor authored.
func (s *Store[P]) Update(ctx context.Context, actor access.Actor, id string, mutate func(*P) error) (rec *Record[P], err error) {
	defer func() { s.observe("update", err) }()

	if !s.hooks.Editable {
		return nil, common.ErrImmutable
	}
	if !actor.Authenticated() {
		return nil, common.ErrNotAuthenticated
	}

	rec, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, common.Storage(err)
	}
	if rec.Author != actor.Username {
		return nil, common.ErrNotAuthor
	}

	p := rec.Payload
	if err := mutate(&p); err != nil {
		return nil, err
	}
	rec.Payload = p
	rec.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, common.Storage(err)
	}
	return rec, nil
}

// Delete removes a record. Admins may delete anything, others only their own.
func (s *Store[P]) Delete(ctx context.Context, actor access.Actor, id string) (err error) {
	defer func() { s.observe("delete", err) }()

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return common.Storage(err)
	}
	if !actor.CanModerate(rec.Author) {
		return common.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return common.Storage(err)
	}
	s.afterDelete(ctx, rec)
	s.logger.Info(ctx, "content deleted", "id", id, "by", actor.Name())
	return nil
}

// ClearAll wipes every record of the kind and returns how many were removed.
func (s *Store[P]) ClearAll(ctx context.Context, actor access.Actor) (n int64, err error) {
	defer func() { s.observe("clear", err) }()

	if !actor.IsAdmin() {
		return 0, common.ErrForbidden
	}

	var records []*Record[P]
	if s.hooks.OnDelete != nil {
		if records, err = s.repo.List(ctx, nil); err != nil {
			return 0, common.Storage(err)
		}
	}

	n, err = s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, common.Storage(err)
	}
	for _, r := range records {
		s.afterDelete(ctx, r)
	}
	s.logger.Warn(ctx, "content cleared", "count", n, "by", actor.Name())
	return n, nil
}

func (s *Store[P]) afterDelete(ctx context.Context, rec *Record[P]) {
	if s.hooks.OnDelete == nil {
		return
	}
	if err := s.hooks.OnDelete(ctx, rec); err != nil {
		s.logger.Warn(ctx, "post-delete cleanup failed", "id", rec.ID, "error", err)
	}
}

func (s *Store[P]) title(p P) string {
	return s.hooks.Title(p)
}

func (s *Store[P]) text(p P) string {
	if s.hooks.Text == nil {
		return ""
	}
	return s.hooks.Text(p)
}

func (s *Store[P]) match(r *Record[P], opts ListOptions) bool {
	if opts.Category != "" {
		if s.hooks.Category == nil || !strings.EqualFold(s.hooks.Category(r.Payload), opts.Category) {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(opts.Search)); q != "" {
		if !strings.Contains(strings.ToLower(s.title(r.Payload)), q) &&
			!strings.Contains(strings.ToLower(s.text(r.Payload)), q) {
			return false
		}
	}
	return true
}

func (s *Store[P]) sort(records []*Record[P], order Sort) {
	var less func(a, b *Record[P]) bool
	switch order {
	case SortOldest:
		less = func(a, b *Record[P]) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		}
	case SortTitleAsc, SortTitleDesc:
		desc := order == SortTitleDesc
		less = func(a, b *Record[P]) bool {
			ta, tb := strings.ToLower(s.title(a.Payload)), strings.ToLower(s.title(b.Payload))
			if ta == tb {
				return a.ID < b.ID
			}
			return (ta < tb) != desc
		}
	default:
		less = func(a, b *Record[P]) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}
