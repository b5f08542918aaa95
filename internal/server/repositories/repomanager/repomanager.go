package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tissuesalts/internal/dbx"
	"github.com/dmitrijs2005/tissuesalts/internal/server/repositories/assessments"
	"github.com/dmitrijs2005/tissuesalts/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/tissuesalts/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the pool directly or several repositories inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Assessments(db dbx.DBTX) assessments.Repository
}
