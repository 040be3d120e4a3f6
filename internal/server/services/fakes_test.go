package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/dmitrijs2005/tuneshelf/internal/dbx"
	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/artists"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/favorites"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	creates int

	getErr    error
	createErr error

	// beforeCreate runs inside Create, before the uniqueness check.
	beforeCreate func()
}

func newFakeUsersRepo(existing ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{byEmail: map[string]*models.User{}}
	for _, u := range existing {
		r.byEmail[u.Email] = u
	}
	return r
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, fmt.Errorf("email %q: %w", u.Email, common.ErrorAlreadyExists)
	}
	f.creates++
	stored := *u
	stored.ID = fmt.Sprintf("u%d", len(f.byEmail)+1)
	stored.CreatedAt = time.Now()
	f.byEmail[u.Email] = &stored
	out := stored
	return &out, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

// --- favorites ---

type favKey struct{ user, song string }

// fakeFavoritesRepo keeps the pair unique like the favorites_user_song_key
// constraint does.
type fakeFavoritesRepo struct {
	mu     sync.Mutex
	rows   map[favKey]*models.Favorite
	nextID int

	createErr error
	getErr    error
	listErr   error
	deleteErr error

	// beforeDelete runs inside Delete; used to simulate a concurrent remover.
	beforeDelete func(id string)
	lastLimit    int
	lastOffset   int
}

func newFakeFavoritesRepo() *fakeFavoritesRepo {
	return &fakeFavoritesRepo{rows: map[favKey]*models.Favorite{}}
}

func (f *fakeFavoritesRepo) Create(ctx context.Context, userID, songID string) (*models.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	k := favKey{userID, songID}
	if existing, ok := f.rows[k]; ok {
		out := *existing
		return &out, nil
	}
	f.nextID++
	rec := &models.Favorite{
		ID:        fmt.Sprintf("f%d", f.nextID),
		UserID:    userID,
		SongID:    songID,
		CreatedAt: time.Now().Add(time.Duration(f.nextID) * time.Millisecond),
	}
	f.rows[k] = rec
	out := *rec
	return &out, nil
}

func (f *fakeFavoritesRepo) Get(ctx context.Context, userID, songID string) (*models.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.rows[favKey{userID, songID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *rec
	return &out, nil
}

func (f *fakeFavoritesRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit, f.lastOffset = limit, offset
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Favorite, 0)
	for k, rec := range f.rows {
		if k.user == userID {
			c := *rec
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*models.Favorite{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFavoritesRepo) Delete(ctx context.Context, id string) error {
	if f.beforeDelete != nil {
		f.beforeDelete(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for k, rec := range f.rows {
		if rec.ID == id {
			delete(f.rows, k)
		}
	}
	return nil
}

func (f *fakeFavoritesRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// --- artists ---

type fakeArtistsRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.Artist
	gets    int
	locked  []string
	updated []*models.Artist

	listErr   error
	createErr error
	updateErr error

	// afterGet runs in Get after the row is read, outside the lock. A
	// non-nil result fails the read.
	afterGet func(ctx context.Context, id string) error
}

func newFakeArtistsRepo(existing ...*models.Artist) *fakeArtistsRepo {
	r := &fakeArtistsRepo{byID: map[string]*models.Artist{}}
	for _, a := range existing {
		r.byID[a.ID] = a
	}
	return r
}

func (f *fakeArtistsRepo) List(ctx context.Context, keyword string, limit, offset int) ([]*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Artist, 0)
	for _, a := range f.byID {
		if containsFold(a.DisplayName, keyword) {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeArtistsRepo) Get(ctx context.Context, id string) (*models.Artist, error) {
	f.mu.Lock()
	f.gets++
	a, ok := f.byID[id]
	var c models.Artist
	if ok {
		c = *a
	}
	hook := f.afterGet
	f.mu.Unlock()

	if !ok {
		return nil, common.ErrorNotFound
	}
	if hook != nil {
		if err := hook(ctx, id); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (f *fakeArtistsRepo) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeArtistsRepo) GetForUpdate(ctx context.Context, id string) (*models.Artist, error) {
	f.mu.Lock()
	f.locked = append(f.locked, id)
	f.mu.Unlock()
	a, err := f.Get(ctx, id)
	return a, err
}

func (f *fakeArtistsRepo) Create(ctx context.Context, a *models.Artist) (*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := *a
	c.ID = fmt.Sprintf("a%d", len(f.byID)+1)
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeArtistsRepo) Update(ctx context.Context, a *models.Artist) (*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if _, ok := f.byID[a.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *a
	f.byID[a.ID] = &c
	f.updated = append(f.updated, &c)
	out := c
	return &out, nil
}

func (f *fakeArtistsRepo) Delete(ctx context.Context, id string) (*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.byID, id)
	return a, nil
}

func (f *fakeArtistsRepo) IncrementStreamCount(ctx context.Context, keyword string) (*models.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.byID))
	for id := range f.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := f.byID[id]
		if containsFold(a.DisplayName, keyword) {
			a.StreamCount++
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFavoritesRepo
	a *fakeArtistsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository           { return m.u }
func (m *fakeRepoManager) Favorites(db dbx.DBTX) favorites.Repository   { return m.f }
func (m *fakeRepoManager) Artists(db dbx.DBTX) artists.Repository       { return m.a }
