package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studymate/internal/dbx"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/invites"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/notes"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/relationships"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/timetables"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/users"
)

// MemoryRepositoryManager hands out the same in-process repositories whatever
// handle it is given; there is no schema to migrate.
type MemoryRepositoryManager struct {
	users         *users.MemoryRepository
	refreshTokens *refreshtokens.MemoryRepository
	relationships *relationships.MemoryRepository
	invites       *invites.MemoryRepository
	timetables    timetables.Repository
	notes         *notes.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:         users.NewMemoryRepository(),
		refreshTokens: refreshtokens.NewMemoryRepository(),
		relationships: relationships.NewMemoryRepository(),
		invites:       invites.NewMemoryRepository(),
		timetables:    timetables.NewMemoryRepository(),
		notes:         notes.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.refreshTokens
}

func (m *MemoryRepositoryManager) Relationships(dbx.DBTX) relationships.Repository {
	return m.relationships
}

func (m *MemoryRepositoryManager) Invites(dbx.DBTX) invites.Repository { return m.invites }

func (m *MemoryRepositoryManager) Timetables(dbx.DBTX) timetables.Repository { return m.timetables }

func (m *MemoryRepositoryManager) Notes(dbx.DBTX) notes.Repository { return m.notes }
