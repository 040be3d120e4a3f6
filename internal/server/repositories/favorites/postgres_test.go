package favorites

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tuneshelf/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	upsertQuery = `(?s)^\s*INSERT\s+INTO\s+favorites\s*\(user_id,\s*song_id\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(user_id,\s*song_id\)\s*DO\s+UPDATE\s+SET\s+song_id\s*=\s*EXCLUDED\.song_id\s*RETURNING\s+id,\s*user_id,\s*song_id,\s*created_at\s*$`
	getQuery    = `(?s)^\s*SELECT\s+id,\s*user_id,\s*song_id,\s*created_at\s+FROM\s+favorites\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+song_id\s*=\s*\$2\s*$`
	listQuery   = `(?s)^\s*SELECT\s+id,\s*user_id,\s*song_id,\s*created_at\s+FROM\s+favorites\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC,\s*id\s+LIMIT\s+\$2\s+OFFSET\s+\$3\s*$`
	deleteQuery = `(?s)^\s*DELETE\s+FROM\s+favorites\s+WHERE\s+id\s*=\s*\$1\s*$`
)

var columns = []string{"id", "user_id", "song_id", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

func TestCreate_ReturnsRow(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(upsertQuery).
		WithArgs("u1", "s1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("f1", "u1", "s1", now))

	f, err := repo.Create(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)
	assert.Equal(t, "u1", f.UserID)
	assert.Equal(t, "s1", f.SongID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateYieldsExistingRecord(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	created := time.Now().Add(-time.Hour)
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(upsertQuery).
			WithArgs("u1", "s1").
			WillReturnRows(sqlmock.NewRows(columns).AddRow("f1", "u1", "s1", created))
	}

	first, err := repo.Create(context.Background(), "u1", "s1")
	require.NoError(t, err)
	second, err := repo.Create(context.Background(), "u1", "s1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).WithArgs("u1", "s1").WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), "u1", "s1")
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestCreate_UnknownUser(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(upsertQuery).
		WithArgs("gone", "s1").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "favorites_user_id_fkey"})

	_, err := repo.Create(context.Background(), "gone", "s1")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_FoundAndNotFound(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(getQuery).
		WithArgs("u1", "s1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("f1", "u1", "s1", time.Now()))
	mock.ExpectQuery(getQuery).
		WithArgs("u1", "s2").
		WillReturnError(sql.ErrNoRows)

	f, err := repo.Get(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)

	_, err = repo.Get(context.Background(), "u1", "s2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(getQuery).WithArgs("u1", "s1").WillReturnError(errors.New("boom"))

	_, err := repo.Get(context.Background(), "u1", "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestListByUser(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(listQuery).
		WithArgs("u1", 10, 20).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("f2", "u1", "s2", now).
			AddRow("f1", "u1", "s1", now.Add(-time.Minute)))

	got, err := repo.ListByUser(context.Background(), "u1", 10, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "f2", got[0].ID)
	assert.Equal(t, "s1", got[1].SongID)
}

func TestListByUser_Empty(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQuery).WithArgs("u1", 20, 0).WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.ListByUser(context.Background(), "u1", 20, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByUser_ScanError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQuery).
		WithArgs("u1", 20, 0).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("f1", "u1", "s1", "not-a-time"))

	_, err := repo.ListByUser(context.Background(), "u1", 20, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan error")
}

func TestListByUser_QueryError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(listQuery).WithArgs("u1", 20, 0).WillReturnError(errors.New("boom"))

	_, err := repo.ListByUser(context.Background(), "u1", 20, 0)
	require.Error(t, err)
}

func TestDelete_Idempotent(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(deleteQuery).WithArgs("f1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQuery).WithArgs("f1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "f1"))
	require.NoError(t, repo.Delete(context.Background(), "f1"), "second delete of a removed record is a no-op")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(deleteQuery).WithArgs("f1").WillReturnError(errors.New("db down"))

	err := repo.Delete(context.Background(), "f1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
