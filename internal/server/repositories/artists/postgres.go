package artists

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/dbx"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
)

const artistColumns = `id, display_name, image_key, stream_count, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a user keyword into an ILIKE pattern matching it literally.
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(keyword) + "%"
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtist(s scanner) (*models.Artist, error) {
	a := &models.Artist{}
	if err := s.Scan(&a.ID, &a.DisplayName, &a.ImageKey, &a.StreamCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

// rowError maps a single-row lookup failure to the repository contract.
func rowError(err error) error {
	if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidInput(err) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) List(ctx context.Context, keyword string, limit, offset int) ([]*models.Artist, error) {
	query := `
		SELECT ` + artistColumns + `
		FROM artists
		WHERE display_name ILIKE $1 ESCAPE '\'
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, containsPattern(keyword), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Artist, 0)
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = $1`

	a, err := scanArtist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, rowError(err)
	}
	return a, nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = $1 FOR UPDATE`

	a, err := scanArtist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, rowError(err)
	}
	return a, nil
}

func (r *PostgresRepository) Create(ctx context.Context, artist *models.Artist) (*models.Artist, error) {
	query := `
		INSERT INTO artists (display_name, image_key, stream_count)
		VALUES ($1, $2, $3)
		RETURNING ` + artistColumns

	a, err := scanArtist(r.db.QueryRowContext(ctx, query, artist.DisplayName, artist.ImageKey, artist.StreamCount))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Update(ctx context.Context, artist *models.Artist) (*models.Artist, error) {
	query := `
		UPDATE artists
		SET display_name = $2, image_key = $3, stream_count = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + artistColumns

	a, err := scanArtist(r.db.QueryRowContext(ctx, query, artist.ID, artist.DisplayName, artist.ImageKey, artist.StreamCount))
	if err != nil {
		return nil, rowError(err)
	}
	return a, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*models.Artist, error) {
	query := `DELETE FROM artists WHERE id = $1 RETURNING ` + artistColumns

	a, err := scanArtist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, rowError(err)
	}
	return a, nil
}

func (r *PostgresRepository) IncrementStreamCount(ctx context.Context, keyword string) (*models.Artist, error) {
	query := `
		UPDATE artists
		SET stream_count = stream_count + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM artists
			WHERE display_name ILIKE $1 ESCAPE '\'
			ORDER BY created_at, id
			LIMIT 1
			FOR UPDATE
		)
		RETURNING ` + artistColumns

	a, err := scanArtist(r.db.QueryRowContext(ctx, query, containsPattern(keyword)))
	if err != nil {
		return nil, rowError(err)
	}
	return a, nil
}
