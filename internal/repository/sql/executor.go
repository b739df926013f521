package sql

import (
	"context"
	"database/sql"
)

// dbExecutor is what ProductRepository needs from the pool: every statement is
// prepared first, so *sql.DB, *sql.Conn and *sql.Tx all satisfy it.
type dbExecutor interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}
