package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/farmsync/internal/dbx"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/farmers"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Farmers(db dbx.DBTX) farmers.Repository
}
