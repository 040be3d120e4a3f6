// Package repomanager binds repository constructors to a database handle
// and owns schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tuneshelf/internal/dbx"
	"github.com/dmitrijs2005/tuneshelf/internal/server/migrations"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/artists"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/favorites"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories bound to
// either the pool or an open transaction.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Favorites(db dbx.DBTX) favorites.Repository {
	return favorites.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Artists(db dbx.DBTX) artists.Repository {
	return artists.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
