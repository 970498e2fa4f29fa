package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/studymate/internal/dbx"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/auth"
	"github.com/dmitrijs2005/studymate/internal/server/config"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/relationships"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.HashCost = bcrypt.MinCost
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

var errDB = errors.New("db down")

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

// env wires every service over one in-memory repository manager, the way
// the server does with storage=memory.
type env struct {
	rm         *repomanager.MemoryRepositoryManager
	users      *UserService
	rels       *RelationshipService
	notes      *NoteService
	timetables *TimetableService
	invites    *InviteService
	blobs      *fakeBlobs
}

func newEnv(t *testing.T) *env {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	rels := NewRelationshipService(nil, rm, nil)
	blobs := newFakeBlobs()
	return &env{
		rm:         rm,
		users:      NewUserService(nil, rm, testConfig(), nil),
		rels:       rels,
		notes:      NewNoteService(nil, rm, rels, nil),
		timetables: NewTimetableService(nil, rm, rels, blobs, nil),
		invites:    NewInviteService(nil, rm, nil),
		blobs:      blobs,
	}
}

// register creates accounts in order and returns their actors.
func (e *env) register(t *testing.T, names ...string) map[string]access.Actor {
	t.Helper()
	out := make(map[string]access.Actor, len(names))
	for _, n := range names {
		u, err := e.users.Register(context.Background(), n, "pw-"+n, "")
		require.NoError(t, err)
		out[n] = access.User(u.Username, u.Role)
	}
	return out
}

func (e *env) bind(t *testing.T, a, b string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.rels.SendRequest(ctx, a, b))
	require.NoError(t, e.rels.AcceptRequest(ctx, b, a))
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	puts    int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlobs) URL(_ context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

func (f *fakeBlobs) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// brokenRelationships fails every call.
type brokenRelationships struct{}

func (brokenRelationships) InsertRequest(context.Context, string, string) error { return errDB }
func (brokenRelationships) DeleteRequest(context.Context, string, string) (bool, error) {
	return false, errDB
}
func (brokenRelationships) RequestExists(context.Context, string, string) (bool, error) {
	return false, errDB
}
func (brokenRelationships) InsertBinding(context.Context, string, string) error { return errDB }
func (brokenRelationships) DeleteBinding(context.Context, string, string) (bool, error) {
	return false, errDB
}
func (brokenRelationships) BindingExists(context.Context, string, string) (bool, error) {
	return false, errDB
}
func (brokenRelationships) Sent(context.Context, string) ([]string, error)     { return nil, errDB }
func (brokenRelationships) Received(context.Context, string) ([]string, error) { return nil, errDB }
func (brokenRelationships) Bound(context.Context, string) ([]string, error)    { return nil, errDB }

// brokenRelManager is a memory manager whose relationship store is down.
type brokenRelManager struct {
	*repomanager.MemoryRepositoryManager
}

func (brokenRelManager) Relationships(dbx.DBTX) relationships.Repository {
	return brokenRelationships{}
}

func seedUser(t *testing.T, rm repomanager.RepositoryManager, name string, role models.Role) {
	t.Helper()
	_, err := rm.Users(nil).Create(context.Background(), &models.User{Username: name, PasswordHash: "x", Role: role})
	require.NoError(t, err)
}
