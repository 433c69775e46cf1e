package repository

import (
	"context"

	"tubely/backend/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// VideoRepository is the record store for video metadata.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, id string) (*domain.Video, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Video, error)
	// Update replaces the stored record with video. Returns ErrNotFound if it no longer exists.
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// ThumbnailRepository stores thumbnail images by content address.
type ThumbnailRepository interface {
	// Put stores thumb; storing the same ID again is a no-op.
	Put(ctx context.Context, thumb *domain.Thumbnail) error
	Get(ctx context.Context, id string) (*domain.Thumbnail, error)
}
