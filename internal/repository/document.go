package repository

import (
	"context"

	"simpledms/internal/model"
)

// DocumentRepository defines persistence for document metadata records.
// No business logic here; storage consistency is handled by the service layer.
type DocumentRepository interface {
	// Create inserts a new record. The store assigns ID and timestamps.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns ErrNotFound when no record has the id.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns every record matching the filter, newest first.
	List(ctx context.Context, f DocumentFilter) ([]model.Document, error)

	// Update persists the mutable metadata fields and refreshes UpdatedAt.
	Update(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Delete removes a record by ID. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error
}

// DocumentFilter narrows List. Empty fields do not filter.
// Category and Tag match list elements exactly, never by substring.
type DocumentFilter struct {
	OwnerID  string
	Category string
	Tag      string
}
