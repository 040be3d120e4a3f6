// Package users declares the user directory contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills the generated ID and CreatedAt.
	// A taken email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetUserByEmail matches email exactly (case-sensitive).
	// Absence yields common.ErrorNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
