package repository

import (
	"context"
	"time"

	"simpledms/internal/model"
)

// ShareRepository persists share links.
type ShareRepository interface {
	Create(ctx context.Context, s *model.Share) (*model.Share, error)

	// FindByID returns ErrNotFound when no share has the id.
	FindByID(ctx context.Context, id string) (*model.Share, error)

	// ListByOwner returns the owner's shares; when activeAfter is non-zero only
	// shares expiring after it are returned.
	ListByOwner(ctx context.Context, ownerID string, activeAfter time.Time) ([]model.Share, error)

	// Delete removes a share. Missing rows are not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every share that expired before now and returns the removed ids.
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)

	// DeleteByDocument removes every share of a document and returns the removed ids.
	DeleteByDocument(ctx context.Context, documentID string) ([]string, error)
}
