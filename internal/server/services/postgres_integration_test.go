//go:build integration

package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/content"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/studymate/internal/testutil/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_EndToEnd(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer h.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	rels := NewRelationshipService(h.DB, rm, nil)
	blobs := newFakeBlobs()
	e := &env{
		users:      NewUserService(h.DB, rm, testConfig(), nil),
		rels:       rels,
		notes:      NewNoteService(h.DB, rm, rels, nil),
		timetables: NewTimetableService(h.DB, rm, rels, blobs, nil),
		invites:    NewInviteService(h.DB, rm, nil),
		blobs:      blobs,
	}

	actors := e.register(t, "alice", "bob", "carol")
	assert.Equal(t, models.RoleAdmin, actors["alice"].Role)

	pair, err := e.users.Login(ctx, "bob", "pw-bob")
	require.NoError(t, err)
	_, err = e.users.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	e.bind(t, "alice", "bob")
	assert.Equal(t, []string{"bob"}, e.rels.ListBound(ctx, "alice"))
	assert.ErrorIs(t, e.rels.SendRequest(ctx, "bob", "alice"), common.ErrAlreadyBound)

	_, err = e.notes.Create(ctx, actors["bob"], NoteInput{Title: "N1", Content: "bring calculator", Tags: "exam, math"})
	require.NoError(t, err)

	list, err := e.notes.List(ctx, actors["alice"], content.ListOptions{Search: "calculator"})
	require.NoError(t, err)
	assert.Equal(t, []string{"N1"}, noteIDs(list))

	list, err = e.notes.List(ctx, actors["carol"], content.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)

	rec, err := e.timetables.Upload(ctx, actors["alice"], "week.csv", []byte(weekCSV))
	require.NoError(t, err)
	_, err = e.timetables.Upload(ctx, actors["alice"], "again.csv", []byte(weekCSV))
	assert.ErrorIs(t, err, common.ErrDuplicateContent)
	require.NoError(t, e.timetables.Delete(ctx, actors["alice"], rec.ID))

	inv, err := e.invites.Create(ctx, actors["alice"], "user", "", 0)
	require.NoError(t, err)
	dave, err := e.users.Register(ctx, "dave", "pw", inv.Code)
	require.NoError(t, err)
	assert.Equal(t, inv.Code, dave.InviteUsed)

	require.NoError(t, e.rels.Unbind(ctx, "alice", "bob"))
	assert.Empty(t, e.rels.ListBound(ctx, "alice"))
}

func TestPostgres_BindingsAcrossCaseAndPunctuation(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer h.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	e := &env{
		users: NewUserService(h.DB, rm, testConfig(), nil),
		rels:  NewRelationshipService(h.DB, rm, nil),
	}
	e.register(t, "alice", "Bob", "ab", "a-c", "li_ming", "liming")

	pairs := [][2]string{{"alice", "Bob"}, {"ab", "a-c"}, {"li_ming", "liming"}, {"Bob", "a-c"}}
	for _, p := range pairs {
		e.bind(t, p[0], p[1])
		assert.True(t, e.rels.IsBound(ctx, p[0], p[1]), "%s/%s", p[0], p[1])
		assert.True(t, e.rels.IsBound(ctx, p[1], p[0]), "%s/%s", p[1], p[0])
	}

	assert.Equal(t, []string{"a-c", "alice"}, e.rels.ListBound(ctx, "Bob"))
	assert.Equal(t, []string{"Bob", "ab"}, e.rels.ListBound(ctx, "a-c"))

	require.NoError(t, e.rels.SendRequest(ctx, "Bob", "liming"))
	require.NoError(t, e.rels.SendRequest(ctx, "Bob", "li_ming"))
	assert.Equal(t, []string{"li_ming", "liming"}, e.rels.Record(ctx, "Bob").Sent)

	require.NoError(t, e.rels.Unbind(ctx, "Bob", "alice"))
	assert.False(t, e.rels.IsBound(ctx, "alice", "Bob"))
}
