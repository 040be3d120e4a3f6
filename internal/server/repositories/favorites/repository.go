// Package favorites declares the favorite ledger contract and its
// PostgreSQL implementation.
package favorites

import (
	"context"

	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
)

// Repository is the persisted set of (user, song) pairs. Implementations
// must keep at most one record per pair.
type Repository interface {
	// Create stores the pair. When the pair already exists the existing
	// record is returned instead of a second row. An unknown user yields
	// common.ErrorNotFound.
	Create(ctx context.Context, userID, songID string) (*models.Favorite, error)

	// Get returns the record for the pair or common.ErrorNotFound.
	Get(ctx context.Context, userID, songID string) (*models.Favorite, error)

	// ListByUser returns the user's favorites, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Favorite, error)

	// Delete removes the record by ID. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error
}
