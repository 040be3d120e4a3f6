package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tuneshelf/internal/dbx"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/artists"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/favorites"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Favorites(db dbx.DBTX) favorites.Repository
	Artists(db dbx.DBTX) artists.Repository
}
