package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/visibility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memo struct {
	Title    string
	Body     string
	Category string
}

type fakeGraph map[string][]string

func (g fakeGraph) VisibleAuthors(_ context.Context, viewer string) visibility.Set {
	return visibility.Authors(viewer, g[viewer])
}

type fixture struct {
	store   *Store[memo]
	repo    *MemoryRepository[memo]
	clock   time.Time
	deleted []string
	mu      sync.Mutex
}

func newFixture(t *testing.T, graph fakeGraph, mutate func(*Hooks[memo])) *fixture {
	t.Helper()
	f := &fixture{repo: NewMemoryRepository[memo](), clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	seq := 0
	hooks := Hooks[memo]{
		Kind: "memo",
		NewID: func(context.Context, string, memo) (string, error) {
			seq++
			return fmt.Sprintf("m%02d", seq), nil
		},
		Prepare: func(id string, p *memo) {
			if p.Title == "" {
				p.Title = "Memo " + id
			}
		},
		Fingerprint: func(p memo) string { return p.Body },
		Title:       func(p memo) string { return p.Title },
		Text:        func(p memo) string { return p.Body },
		Category:    func(p memo) string { return p.Category },
		Editable:    true,
		OnDelete: func(_ context.Context, r *Record[memo]) error {
			f.mu.Lock()
			f.deleted = append(f.deleted, r.ID)
			f.mu.Unlock()
			return nil
		},
	}
	if mutate != nil {
		mutate(&hooks)
	}
	f.store = NewStore[memo](f.repo, graph, hooks, nil)
	f.store.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

var (
	alice = access.User("alice", models.RoleUser)
	bob   = access.User("bob", models.RoleUser)
	carol = access.User("carol", models.RoleUser)
	admin = access.User("root", models.RoleAdmin)
	graph = fakeGraph{"alice": {"bob"}, "bob": {"alice"}}
)

func ids(records []*Record[memo]) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestCreate_DefaultsAndAuthor(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()

	r, err := f.store.Create(ctx, alice, memo{Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "m01", r.ID)
	assert.Equal(t, "alice", r.Author)
	assert.Equal(t, "Memo m01", r.Payload.Title)
	assert.Equal(t, "hello", r.Fingerprint)

	r, err = f.store.Create(ctx, access.Anonymous(), memo{Body: "anon"})
	require.NoError(t, err)
	assert.Equal(t, common.AnonymousAuthor, r.Author)
}

func TestCreate_DuplicateFingerprintSkipped(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()

	_, err := f.store.Create(ctx, alice, memo{Body: "same"})
	require.NoError(t, err)
	_, err = f.store.Create(ctx, bob, memo{Body: "same"})
	assert.ErrorIs(t, err, common.ErrDuplicateContent)

	all, _ := f.repo.List(ctx, nil)
	assert.Len(t, all, 1)
}

func TestCheckFingerprint(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()

	assert.NoError(t, f.store.CheckFingerprint(ctx, ""))
	assert.NoError(t, f.store.CheckFingerprint(ctx, "fresh"))

	_, err := f.store.Create(ctx, alice, memo{Body: "fresh"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.store.CheckFingerprint(ctx, "fresh"), common.ErrDuplicateContent)
}

func TestCreate_IDCollisionDisambiguates(t *testing.T) {
	f := newFixture(t, graph, func(h *Hooks[memo]) {
		h.NewID = func(context.Context, string, memo) (string, error) { return "plan_alice", nil }
		h.Disambiguate = func(id string, attempt int) (string, error) {
			return fmt.Sprintf("%s_%d", id, attempt), nil
		}
		h.Fingerprint = nil
	})
	ctx := context.Background()

	var got []string
	for i := 0; i < 3; i++ {
		r, err := f.store.Create(ctx, alice, memo{Body: "x"})
		require.NoError(t, err)
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{"plan_alice", "plan_alice_1", "plan_alice_2"}, got)
}

func TestCreate_IDCollisionWithoutDisambiguate(t *testing.T) {
	f := newFixture(t, graph, func(h *Hooks[memo]) {
		h.NewID = func(context.Context, string, memo) (string, error) { return "fixed", nil }
		h.Fingerprint = nil
	})
	ctx := context.Background()

	_, err := f.store.Create(ctx, alice, memo{Body: "a"})
	require.NoError(t, err)
	_, err = f.store.Create(ctx, alice, memo{Body: "b"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()
	r, err := f.store.Create(ctx, alice, memo{Body: "mine"})
	require.NoError(t, err)

	for _, a := range []access.Actor{alice, bob, admin} {
		_, err := f.store.Get(ctx, a, r.ID)
		assert.NoError(t, err, a.Username)
	}
	_, err = f.store.Get(ctx, carol, r.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = f.store.Get(ctx, alice, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_VisibilityScopeAndSort(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()

	mustCreate := func(a access.Actor, m memo) *Record[memo] {
		r, err := f.store.Create(ctx, a, m)
		require.NoError(t, err)
		return r
	}
	a1 := mustCreate(alice, memo{Title: "beta", Body: "calculus homework", Category: "math"})
	b1 := mustCreate(bob, memo{Title: "Alpha", Body: "physics lab", Category: "science"})
	c1 := mustCreate(carol, memo{Title: "gamma", Body: "secret"})
	a2 := mustCreate(alice, memo{Title: "delta", Body: "exam MATH", Category: "Math"})

	got, err := f.store.List(ctx, alice, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{a2.ID, b1.ID, a1.ID}, ids(got), "newest first, carol hidden")

	got, _ = f.store.List(ctx, carol, ListOptions{})
	assert.Equal(t, []string{c1.ID}, ids(got))

	got, _ = f.store.List(ctx, alice, ListOptions{Scope: ScopeMine, Sort: SortOldest})
	assert.Equal(t, []string{a1.ID, a2.ID}, ids(got))

	got, _ = f.store.List(ctx, alice, ListOptions{Scope: ScopePartners})
	assert.Equal(t, []string{b1.ID}, ids(got))

	got, _ = f.store.List(ctx, alice, ListOptions{Search: "math"})
	assert.Equal(t, []string{a2.ID}, ids(got), "search is case-insensitive over title and text")

	got, _ = f.store.List(ctx, alice, ListOptions{Category: "math"})
	assert.Equal(t, []string{a2.ID, a1.ID}, ids(got))

	got, _ = f.store.List(ctx, alice, ListOptions{Sort: SortTitleAsc})
	assert.Equal(t, []string{b1.ID, a1.ID, a2.ID}, ids(got))

	got, _ = f.store.List(ctx, alice, ListOptions{Sort: SortTitleDesc})
	assert.Equal(t, []string{a2.ID, a1.ID, b1.ID}, ids(got))

	got, _ = f.store.List(ctx, access.Anonymous(), ListOptions{})
	assert.Empty(t, got)
}

func TestListAll_AdminOnly(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()
	_, _ = f.store.Create(ctx, alice, memo{Body: "1"})
	_, _ = f.store.Create(ctx, carol, memo{Body: "2"})
	_, _ = f.store.Create(ctx, access.Anonymous(), memo{Body: "3"})

	_, err := f.store.ListAll(ctx, alice, ListOptions{})
	assert.ErrorIs(t, err, common.ErrForbidden)

	got, err := f.store.ListAll(ctx, admin, ListOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = f.store.ListAll(ctx, access.System(), ListOptions{Search: "2"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStats(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()
	_, _ = f.store.Create(ctx, alice, memo{Body: "héllo"})
	_, _ = f.store.Create(ctx, bob, memo{Body: "abc"})
	_, _ = f.store.Create(ctx, carol, memo{Body: "hidden"})

	st, err := f.store.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, Stats{Count: 2, TotalChars: 8, Authors: 2}, st)
}

func TestUpdate_AuthorOnly(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()
	r, err := f.store.Create(ctx, alice, memo{Title: "t", Body: "b"})
	require.NoError(t, err)

	_, err = f.store.Update(ctx, bob, r.ID, func(p *memo) error { p.Body = "hijack"; return nil })
	assert.ErrorIs(t, err, common.ErrNotAuthor)
	_, err = f.store.Update(ctx, admin, r.ID, func(p *memo) error { return nil })
	assert.ErrorIs(t, err, common.ErrNotAuthor)
	_, err = f.store.Update(ctx, access.Anonymous(), r.ID, func(p *memo) error { return nil })
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
	_, err = f.store.Update(ctx, alice, "missing", func(p *memo) error { return nil })
	assert.ErrorIs(t, err, common.ErrorNotFound)

	boom := errors.New("bad input")
	_, err = f.store.Update(ctx, alice, r.ID, func(p *memo) error { return boom })
	assert.ErrorIs(t, err, boom)

	up, err := f.store.Update(ctx, alice, r.ID, func(p *memo) error { p.Body = "edited"; return nil })
	require.NoError(t, err)
	assert.Equal(t, "edited", up.Payload.Body)
	assert.True(t, up.UpdatedAt.After(r.UpdatedAt))

	stored, _ := f.repo.Get(ctx, r.ID)
	assert.Equal(t, "edited", stored.Payload.Body)
}

func TestUpdate_Immutable(t *testing.T) {
	f := newFixture(t, graph, func(h *Hooks[memo]) { h.Editable = false })
	ctx := context.Background()
	r, err := f.store.Create(ctx, alice, memo{Body: "b"})
	require.NoError(t, err)

	_, err = f.store.Update(ctx, alice, r.ID, func(p *memo) error { return nil })
	assert.ErrorIs(t, err, common.ErrImmutable)
}

func TestDelete_Permissions(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()
	r1, _ := f.store.Create(ctx, alice, memo{Body: "1"})
	r2, _ := f.store.Create(ctx, alice, memo{Body: "2"})

	assert.ErrorIs(t, f.store.Delete(ctx, bob, r1.ID), common.ErrForbidden, "partners cannot delete")
	assert.NoError(t, f.store.Delete(ctx, alice, r1.ID))
	assert.NoError(t, f.store.Delete(ctx, admin, r2.ID))
	assert.ErrorIs(t, f.store.Delete(ctx, alice, r1.ID), common.ErrorNotFound)
	assert.Equal(t, []string{r1.ID, r2.ID}, f.deleted)

	// fingerprint freed
	_, err := f.store.Create(ctx, bob, memo{Body: "1"})
	assert.NoError(t, err)
}

func TestClearAll(t *testing.T) {
	f := newFixture(t, graph, nil)
	ctx := context.Background()
	_, _ = f.store.Create(ctx, alice, memo{Body: "1"})
	_, _ = f.store.Create(ctx, carol, memo{Body: "2"})

	_, err := f.store.ClearAll(ctx, alice)
	assert.ErrorIs(t, err, common.ErrForbidden)

	n, err := f.store.ClearAll(ctx, admin)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Len(t, f.deleted, 2)

	all, _ := f.repo.List(ctx, nil)
	assert.Empty(t, all)
}

type failingRepo struct {
	*MemoryRepository[memo]
	err error
}

func (r failingRepo) List(context.Context, []string) ([]*Record[memo], error) { return nil, r.err }
func (r failingRepo) FindByFingerprint(context.Context, string) (*Record[memo], error) {
	return nil, r.err
}

func TestStorageErrorsAreWrapped(t *testing.T) {
	f := newFixture(t, graph, nil)
	f.store.repo = failingRepo{MemoryRepository: f.repo, err: errors.New("conn refused")}
	ctx := context.Background()

	_, err := f.store.List(ctx, alice, ListOptions{})
	assert.ErrorIs(t, err, common.ErrStorage)
	_, err = f.store.Create(ctx, alice, memo{Body: "x"})
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.True(t, strings.Contains(err.Error(), "conn refused"))
}

func TestParseOptions(t *testing.T) {
	sc, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, sc)
	sc, err = ParseScope("Partners")
	require.NoError(t, err)
	assert.Equal(t, ScopePartners, sc)
	_, err = ParseScope("everyone")
	assert.ErrorIs(t, err, common.ErrorValidation)

	so, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortNewest, so)
	so, err = ParseSort("title_desc")
	require.NoError(t, err)
	assert.Equal(t, SortTitleDesc, so)
	_, err = ParseSort("random")
	assert.ErrorIs(t, err, common.ErrorValidation)
}
