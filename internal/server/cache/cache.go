// Package cache holds the read-through cache used by the artist catalog.
package cache

import (
	"context"

	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
)

// ArtistCache stores artists by ID. A miss is (nil, nil).
type ArtistCache interface {
	Get(ctx context.Context, id string) (*models.Artist, error)
	Set(ctx context.Context, artist *models.Artist) error
	Delete(ctx context.Context, id string) error
}

// Noop is used when no Redis address is configured: every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (*models.Artist, error) { return nil, nil }
func (Noop) Set(context.Context, *models.Artist) error           { return nil }
func (Noop) Delete(context.Context, string) error                { return nil }
