// Package artists stores catalog artists in PostgreSQL.
package artists

import (
	"context"

	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
)

type Repository interface {
	// List returns artists whose display name contains keyword
	// (case-insensitive), oldest first. An empty keyword matches all.
	List(ctx context.Context, keyword string, limit, offset int) ([]*models.Artist, error)

	// Get returns the artist or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Artist, error)

	// GetForUpdate is Get with a row lock; only meaningful inside a transaction.
	GetForUpdate(ctx context.Context, id string) (*models.Artist, error)

	Create(ctx context.Context, artist *models.Artist) (*models.Artist, error)
	Update(ctx context.Context, artist *models.Artist) (*models.Artist, error)

	// Delete removes the artist and returns it, or common.ErrorNotFound.
	Delete(ctx context.Context, id string) (*models.Artist, error)

	// IncrementStreamCount bumps the first artist matching keyword and
	// returns it, or common.ErrorNotFound when nothing matches.
	IncrementStreamCount(ctx context.Context, keyword string) (*models.Artist, error)
}
