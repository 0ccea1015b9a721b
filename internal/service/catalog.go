package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"simpledms/internal/model"
	"simpledms/internal/repository"
)

// CatalogService manages the category and tag vocabularies.
// Deleting an entry never touches documents that mention it by name.
type CatalogService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, name, icon, description string) (*model.Category, error)
	DeleteCategory(ctx context.Context, name string) error

	ListTags(ctx context.Context) ([]model.Tag, error)
	CreateTag(ctx context.Context, name, color string) (*model.Tag, error)
	DeleteTag(ctx context.Context, name string) error
}

type catalogService struct {
	categories repository.CategoryRepository
	tags       repository.TagRepository
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(categories repository.CategoryRepository, tags repository.TagRepository) CatalogService {
	return &catalogService{categories: categories, tags: tags}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, name, icon, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("category name is required")
	}
	if strings.TrimSpace(icon) == "" {
		icon = model.DefaultCategoryIcon
	}

	c, err := s.categories.Create(ctx, &model.Category{Name: name, Icon: icon, Description: description})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflictError("category already exists", err)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, name string) error {
	return deleteByName(ctx, s.categories.DeleteByName, name, "category")
}

func (s *catalogService) ListTags(ctx context.Context) ([]model.Tag, error) {
	items, err := s.tags.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return items, nil
}

func (s *catalogService) CreateTag(ctx context.Context, name, color string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("tag name is required")
	}
	if strings.TrimSpace(color) == "" {
		color = model.DefaultTagColor
	}

	tag, err := s.tags.Create(ctx, &model.Tag{Name: name, Color: color})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflictError("tag already exists", err)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

func (s *catalogService) DeleteTag(ctx context.Context, name string) error {
	return deleteByName(ctx, s.tags.DeleteByName, name, "tag")
}

func deleteByName(ctx context.Context, del func(context.Context, string) error, name, kind string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationError(kind + " name is required")
	}
	if err := del(ctx, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(kind + " not found")
		}
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}
