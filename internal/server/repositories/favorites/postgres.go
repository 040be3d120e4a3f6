package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/dbx"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
)

// PostgresRepository relies on the favorites_user_song_key constraint for
// uniqueness; Create is a single upsert, so concurrent duplicates collapse
// into one row without application-level locking.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID, songID string) (*models.Favorite, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO favorites (user_id, song_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, song_id)
		DO UPDATE SET song_id = EXCLUDED.song_id
		RETURNING id, user_id, song_id, created_at
	`
	f := &models.Favorite{}
	err := r.db.QueryRowContext(ctx, query, userID, songID).Scan(&f.ID, &f.UserID, &f.SongID, &f.CreatedAt)
	if err != nil {
		// The owning user is gone.
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("user %s: %w", userID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, songID string) (*models.Favorite, error) {
	query := `
		SELECT id, user_id, song_id, created_at
		FROM favorites
		WHERE user_id = $1 AND song_id = $2
	`
	f := &models.Favorite{}
	err := r.db.QueryRowContext(ctx, query, userID, songID).Scan(&f.ID, &f.UserID, &f.SongID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Favorite, error) {
	query := `
		SELECT id, user_id, song_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Favorite, 0)
	for rows.Next() {
		f := &models.Favorite{}
		if err := rows.Scan(&f.ID, &f.UserID, &f.SongID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM favorites
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
