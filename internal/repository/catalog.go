package repository

import (
	"context"

	"simpledms/internal/model"
)

// CategoryRepository persists categories. Names are unique.
type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	// Create returns ErrConflict when the name is taken.
	Create(ctx context.Context, c *model.Category) (*model.Category, error)
	// DeleteByName returns ErrNotFound when no category has the name.
	DeleteByName(ctx context.Context, name string) error
}

// TagRepository persists tags. Names are unique.
type TagRepository interface {
	List(ctx context.Context) ([]model.Tag, error)
	Create(ctx context.Context, t *model.Tag) (*model.Tag, error)
	DeleteByName(ctx context.Context, name string) error
}
