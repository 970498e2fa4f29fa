// Package repomanager vends repositories bound to a database handle, either
// the pool or a transaction.
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

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Relationships(db dbx.DBTX) relationships.Repository
	Invites(db dbx.DBTX) invites.Repository
	Timetables(db dbx.DBTX) timetables.Repository
	Notes(db dbx.DBTX) notes.Repository
}
