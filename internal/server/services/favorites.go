package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/logging"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/repomanager"
)

// ErrUnknownUser is returned when a token outlives the account it names.
var ErrUnknownUser error = &flowError{msg: "User not found.", kind: common.ErrorUnauthorized}

// FavoriteService manages a user's favorite songs. Uniqueness of the
// (user, song) pair is enforced by storage, not by pre-checks here.
type FavoriteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewFavoriteService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *FavoriteService {
	return &FavoriteService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "favorites"),
	}
}

// StoreUserFavorite adds songID to the user's favorites. Adding a song that
// is already a favorite returns the existing record.
func (s *FavoriteService) StoreUserFavorite(ctx context.Context, userID, songID string) (*models.Favorite, error) {
	if strings.TrimSpace(songID) == "" {
		return nil, fmt.Errorf("%w: songId is required", common.ErrorValidation)
	}

	f, err := s.repomanager.Favorites(s.db).Create(ctx, userID, songID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("error creating favorite: %w", err)
	}
	return f, nil
}

// ValidateUserFavorite returns the record for the pair, or nil when the song
// is not a favorite. Absence is not an error.
func (s *FavoriteService) ValidateUserFavorite(ctx context.Context, userID, songID string) (*models.Favorite, error) {
	f, err := s.repomanager.Favorites(s.db).Get(ctx, userID, songID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error searching favorite: %w", err)
	}
	return f, nil
}

// GetUserFavorite is ValidateUserFavorite with absence reported as
// common.ErrorNotFound.
func (s *FavoriteService) GetUserFavorite(ctx context.Context, userID, songID string) (*models.Favorite, error) {
	f, err := s.ValidateUserFavorite(ctx, userID, songID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

// RemoveUserFavorite deletes the pair and reports whether it existed.
// A record removed concurrently between lookup and delete still counts as
// removed.
func (s *FavoriteService) RemoveUserFavorite(ctx context.Context, userID, songID string) (bool, error) {
	f, err := s.ValidateUserFavorite(ctx, userID, songID)
	if err != nil {
		return false, err
	}
	if f == nil {
		return false, nil
	}

	if err := s.repomanager.Favorites(s.db).Delete(ctx, f.ID); err != nil {
		return false, fmt.Errorf("error deleting favorite: %w", err)
	}
	return true, nil
}

func (s *FavoriteService) ListUserFavorites(ctx context.Context, userID string, page models.Page) ([]*models.Favorite, error) {
	page = page.Normalize()

	list, err := s.repomanager.Favorites(s.db).ListByUser(ctx, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("error listing favorites: %w", err)
	}
	return list, nil
}
