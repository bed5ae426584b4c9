package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benvon/blog-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postColumns = []string{"id", "title", "content", "author_id", "created_at", "updated_at"}

func TestPostRepository_Create(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	post := &models.Post{
		ID:       uuid.New(),
		Title:    "T",
		Content:  "C",
		AuthorID: uuid.New(),
	}
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO posts").
		WithArgs(post.ID, "T", "C", post.AuthorID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	require.NoError(t, repo.Create(context.Background(), post))
	assert.True(t, post.CreatedAt.Equal(created))
}

func TestPostRepository_Create_Error(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("INSERT INTO posts").WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.Post{ID: uuid.New(), AuthorID: uuid.New()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPostRepository_ListByAuthor(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	author := uuid.New()
	newer := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	rows := sqlmock.NewRows(postColumns).
		AddRow(uuid.NewString(), "second", "b", author.String(), newer, newer).
		AddRow(uuid.NewString(), "first", "a", author.String(), older, older)

	mock.ExpectQuery(`SELECT (.+) FROM posts WHERE author_id = \$1 ORDER BY created_at DESC`).
		WithArgs(author).
		WillReturnRows(rows)

	posts, err := repo.ListByAuthor(context.Background(), author)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Title)
	assert.Equal(t, author, posts[1].AuthorID)
}

func TestPostRepository_ListByAuthor_Empty(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM posts").WillReturnRows(sqlmock.NewRows(postColumns))

	posts, err := repo.ListByAuthor(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, posts, "empty list should encode as [] not null")
	assert.Empty(t, posts)
}

func TestPostRepository_ListPage(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	author := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows(append(postColumns, "name")).
		AddRow(uuid.NewString(), "with name", "x", author.String(), now, now, "Ann").
		AddRow(uuid.NewString(), "without name", "y", author.String(), now, now, nil)

	mock.ExpectQuery(`SELECT (.+) FROM posts p JOIN users u ON u.id = p.author_id ORDER BY p.created_at DESC, p.id DESC OFFSET \$1 LIMIT \$2`).
		WithArgs(10, 10).
		WillReturnRows(rows)

	posts, err := repo.ListPage(context.Background(), 10, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, author, posts[0].Author.ID)
	require.NotNil(t, posts[0].Author.Name)
	assert.Equal(t, "Ann", *posts[0].Author.Name)
	assert.Nil(t, posts[1].Author.Name)
}

func TestPostRepository_ListPage_HugeLimit(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	const limit = 1 << 62
	mock.ExpectQuery(`SELECT (.+) FROM posts p`).
		WithArgs(0, limit).
		WillReturnRows(sqlmock.NewRows(append(postColumns, "name")))

	posts, err := repo.ListPage(context.Background(), 0, limit)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM posts p").WillReturnRows(sqlmock.NewRows(append(postColumns, "name")))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostRepository_UpdateOwned(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	author := uuid.New()
	now := time.Now().UTC()

	t.Run("owner", func(t *testing.T) {
		t.Parallel()
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)

		mock.ExpectQuery(`UPDATE posts SET (.+) WHERE id = \$1 AND author_id = \$2`).
			WithArgs(id, author, "new title", "new body", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(postColumns).AddRow(id.String(), "new title", "new body", author.String(), now, now))

		post, err := repo.UpdateOwned(context.Background(), id, author, "new title", "new body")
		require.NoError(t, err)
		assert.Equal(t, "new title", post.Title)
		assert.Equal(t, author, post.AuthorID)
	})

	t.Run("missing or foreign", func(t *testing.T) {
		t.Parallel()
		db, mock := setupMockDB(t)
		repo := NewPostRepository(db)

		mock.ExpectQuery("UPDATE posts").WillReturnRows(sqlmock.NewRows(postColumns))

		_, err := repo.UpdateOwned(context.Background(), id, uuid.New(), "t", "c")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostRepository_DeleteOwned(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db, mock := setupMockDB(t)
			repo := NewPostRepository(db)

			id, author := uuid.New(), uuid.New()
			mock.ExpectExec(`DELETE FROM posts WHERE id = \$1 AND author_id = \$2`).
				WithArgs(id, author).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.DeleteOwned(context.Background(), id, author)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
