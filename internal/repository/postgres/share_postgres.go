package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"simpledms/internal/model"
	"simpledms/internal/repository"
)

const shareColumns = `id, document_id, owner_id, long_url, short_url, expires_at, created_at, updated_at`

// SharePostgres is a PostgreSQL implementation of repository.ShareRepository.
type SharePostgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewSharePostgres creates a new SharePostgres repository.
func NewSharePostgres(db *sql.DB) *SharePostgres {
	return &SharePostgres{db: db, now: utcNow}
}

var _ repository.ShareRepository = (*SharePostgres)(nil)

// Create inserts a share and returns the stored row.
func (r *SharePostgres) Create(ctx context.Context, s *model.Share) (*model.Share, error) {
	q := `
		INSERT INTO shares (id, document_id, owner_id, long_url, short_url, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + shareColumns
	out, err := scanShare(r.db.QueryRowContext(ctx, q,
		uuid.NewString(), s.DocumentID, s.OwnerID, s.LongURL, s.ShortURL, s.ExpiresAt.UTC(), r.now(),
	))
	if err != nil {
		return nil, fmt.Errorf("insert share: %w", err)
	}
	return out, nil
}

// FindByID fetches a share regardless of expiry.
func (r *SharePostgres) FindByID(ctx context.Context, id string) (*model.Share, error) {
	q := `SELECT ` + shareColumns + ` FROM shares WHERE id = $1`
	s, err := scanShare(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find share: %w", err)
	}
	return s, nil
}

// ListByOwner returns the owner's shares, newest first.
func (r *SharePostgres) ListByOwner(ctx context.Context, ownerID string, activeAfter time.Time) ([]model.Share, error) {
	q := `SELECT ` + shareColumns + ` FROM shares WHERE owner_id = $1`
	args := []any{ownerID}
	if !activeAfter.IsZero() {
		q += ` AND expires_at > $2`
		args = append(args, activeAfter.UTC())
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	items := make([]model.Share, 0)
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return items, nil
}

// Delete removes a share by ID.
func (r *SharePostgres) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}

// DeleteExpired removes shares whose expiry is strictly before now.
func (r *SharePostgres) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `DELETE FROM shares WHERE expires_at < $1 RETURNING id`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("delete expired shares: %w", err)
	}
	return collectIDs(rows, "delete expired shares")
}

// DeleteByDocument removes all shares pointing at a document.
func (r *SharePostgres) DeleteByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `DELETE FROM shares WHERE document_id = $1 RETURNING id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("delete document shares: %w", err)
	}
	return collectIDs(rows, "delete document shares")
}

func collectIDs(rows *sql.Rows, op string) ([]string, error) {
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan share id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

func scanShare(s scanner) (*model.Share, error) {
	var out model.Share
	if err := s.Scan(
		&out.ID,
		&out.DocumentID,
		&out.OwnerID,
		&out.LongURL,
		&out.ShortURL,
		&out.ExpiresAt,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return nil, err
	}
	out.ExpiresAt = out.ExpiresAt.UTC()
	return &out, nil
}
