package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/dbx"
	"github.com/dmitrijs2005/tuneshelf/internal/logging"
	"github.com/dmitrijs2005/tuneshelf/internal/server/cache"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/repomanager"
	"golang.org/x/sync/singleflight"
)

// artistLoadTimeout bounds a shared cache-miss lookup, which outlives the
// request that started it.
const artistLoadTimeout = 5 * time.Second

var (
	ErrArtistNotFound error = &flowError{msg: "Artist does not exist.", kind: common.ErrorNotFound}
	ErrImageRequired  error = &flowError{msg: "Image is required.", kind: common.ErrorValidation}
)

// ArtistInput carries the writable artist fields. On update, empty
// DisplayName and ImageKey and a nil StreamCount keep the stored values.
type ArtistInput struct {
	DisplayName string `json:"displayName"`
	ImageKey    string `json:"imageKey"`
	StreamCount *int64 `json:"streamCount"`
}

type ArtistService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       cache.ArtistCache
	images      ImageResolver
	logger      logging.Logger
	sf          singleflight.Group

	// writes counts committed artist writes. A cache fill whose read started
	// before a write is dropped instead of re-caching the old row.
	writes atomic.Uint64
}

func NewArtistService(db *sql.DB, m repomanager.RepositoryManager, c cache.ArtistCache,
	images ImageResolver, logger logging.Logger) *ArtistService {
	return &ArtistService{
		db:          db,
		repomanager: m,
		cache:       c,
		images:      images,
		logger:      logger.With("module", "artists"),
	}
}

// List returns artists whose display name contains keyword, ignoring case.
func (s *ArtistService) List(ctx context.Context, keyword string, page models.Page) ([]*models.Artist, error) {
	page = page.Normalize()

	list, err := s.repomanager.Artists(s.db).List(ctx, keyword, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("error listing artists: %w", err)
	}
	for _, a := range list {
		s.resolveImage(ctx, a)
	}
	return list, nil
}

// Get reads through the cache; concurrent misses for one ID share a single
// database query. The shared query does not depend on any one caller staying
// connected.
func (s *ArtistService) Get(ctx context.Context, id string) (*models.Artist, error) {
	a, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn(ctx, "artist cache read failed", "id", id, "error", err)
	}
	if a == nil {
		loadCtx := context.WithoutCancel(ctx)
		ch := s.sf.DoChan(id, func() (interface{}, error) {
			return s.load(loadCtx, id)
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}
		if res.Err != nil {
			return nil, artistError(res.Err)
		}
		// Copy so the shared result is not mutated by resolveImage.
		shared := *res.Val.(*models.Artist)
		a = &shared
	}

	s.resolveImage(ctx, a)
	return a, nil
}

func (s *ArtistService) load(ctx context.Context, id string) (*models.Artist, error) {
	ctx, cancel := context.WithTimeout(ctx, artistLoadTimeout)
	defer cancel()

	gen := s.writes.Load()
	stored, err := s.repomanager.Artists(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, stored, gen)
	return stored, nil
}

// fill caches a row read at write generation gen. A write that lands while
// the entry is being stored removes it again.
func (s *ArtistService) fill(ctx context.Context, a *models.Artist, gen uint64) {
	if s.writes.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, a); err != nil {
		s.logger.Warn(ctx, "artist cache write failed", "id", a.ID, "error", err)
		return
	}
	if s.writes.Load() != gen {
		s.dropCached(ctx, a.ID)
	}
}

func (s *ArtistService) Create(ctx context.Context, in ArtistInput) (*models.Artist, error) {
	if strings.TrimSpace(in.ImageKey) == "" {
		return nil, ErrImageRequired
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return nil, fmt.Errorf("%w: displayName is required", common.ErrorValidation)
	}

	artist := &models.Artist{DisplayName: in.DisplayName, ImageKey: in.ImageKey}
	if in.StreamCount != nil {
		artist.StreamCount = *in.StreamCount
	}

	created, err := s.repomanager.Artists(s.db).Create(ctx, artist)
	if err != nil {
		return nil, fmt.Errorf("error creating artist: %w", err)
	}
	s.logger.Info(ctx, "artist created", "id", created.ID)

	s.resolveImage(ctx, created)
	return created, nil
}

// Update merges in onto the stored artist under a row lock.
func (s *ArtistService) Update(ctx context.Context, id string, in ArtistInput) (*models.Artist, error) {
	var updated *models.Artist

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Artists(tx)

		current, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if in.DisplayName != "" {
			current.DisplayName = in.DisplayName
		}
		if in.ImageKey != "" {
			current.ImageKey = in.ImageKey
		}
		if in.StreamCount != nil {
			current.StreamCount = *in.StreamCount
		}

		updated, err = repo.Update(ctx, current)
		return err
	})
	if err != nil {
		return nil, artistError(err)
	}

	s.invalidate(ctx, id)
	s.resolveImage(ctx, updated)
	return updated, nil
}

func (s *ArtistService) Delete(ctx context.Context, id string) (*models.Artist, error) {
	deleted, err := s.repomanager.Artists(s.db).Delete(ctx, id)
	if err != nil {
		return nil, artistError(err)
	}
	s.logger.Info(ctx, "artist deleted", "id", id)

	s.invalidate(ctx, id)
	return deleted, nil
}

// IncreaseStreamCount bumps the stream count of the oldest artist whose
// name contains keyword.
func (s *ArtistService) IncreaseStreamCount(ctx context.Context, keyword string) (*models.Artist, error) {
	a, err := s.repomanager.Artists(s.db).IncrementStreamCount(ctx, keyword)
	if err != nil {
		return nil, artistError(err)
	}
	s.invalidate(ctx, a.ID)
	return a, nil
}

// invalidate runs after a write commits. The generation bump must precede the
// delete so that any fill racing with it either skips or is deleted.
func (s *ArtistService) invalidate(ctx context.Context, id string) {
	s.writes.Add(1)
	s.sf.Forget(id)
	s.dropCached(ctx, id)
}

func (s *ArtistService) dropCached(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn(ctx, "artist cache invalidation failed", "id", id, "error", err)
	}
}

// resolveImage fills ImageURL. Failures leave it empty.
func (s *ArtistService) resolveImage(ctx context.Context, a *models.Artist) {
	if a.ImageKey == "" {
		return
	}
	url, err := s.images.URL(ctx, a.ImageKey)
	if err != nil {
		s.logger.Warn(ctx, "artist image url failed", "id", a.ID, "error", err)
		return
	}
	a.ImageURL = url
}

func artistError(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrArtistNotFound
	}
	return fmt.Errorf("artist storage: %w", err)
}
