// Package repomanager wires repository implementations to a database handle.
// Services hold a manager and bind repositories to either the root *sql.DB
// or a transaction as needed.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkovs/linkup/internal/dbx"
	"github.com/avolkovs/linkup/internal/server/repositories/posts"
	"github.com/avolkovs/linkup/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
