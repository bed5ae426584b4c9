package database

import (
	"context"

	"github.com/benvon/blog-api/internal/models"
	"github.com/google/uuid"
)

// PostRepositoryInterface is the post persistence surface used by the blog service.
type PostRepositoryInterface interface {
	Create(ctx context.Context, post *models.Post) error
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]*models.Post, error)
	ListPage(ctx context.Context, offset, limit int) ([]*models.PostWithAuthor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PostWithAuthor, error)
	UpdateOwned(ctx context.Context, id, authorID uuid.UUID, title, content string) (*models.Post, error)
	DeleteOwned(ctx context.Context, id, authorID uuid.UUID) error
}

// UserRepositoryInterface is the user persistence surface used by accounts and auth.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Ensure concrete types implement the interfaces
var (
	_ PostRepositoryInterface = (*PostRepository)(nil)
	_ UserRepositoryInterface = (*UserRepository)(nil)
)
