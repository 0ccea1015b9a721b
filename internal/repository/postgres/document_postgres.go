package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"simpledms/internal/model"
	"simpledms/internal/repository"
)

const documentColumns = `id, title, description, filename, size, content_type, storage_key, categories, tags, owner_id, created_at, updated_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// Categories and tags are stored as JSONB arrays.
type DocumentPostgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db, now: utcNow}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}
	cats, err := encodeList(doc.Categories)
	if err != nil {
		return nil, err
	}
	tags, err := encodeList(doc.Tags)
	if err != nil {
		return nil, err
	}
	now := r.now()

	q := `
		INSERT INTO documents (id, title, description, filename, size, content_type, storage_key,
			categories, tags, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		id,
		doc.Title,
		doc.Description,
		doc.Filename,
		doc.Size,
		doc.ContentType,
		doc.StorageKey,
		cats,
		tags,
		doc.OwnerID,
		now,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return d, nil
}

// List returns every matching document ordered newest first.
// Pagination is applied by the caller after storage verification.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter) ([]model.Document, error) {
	where, args := buildDocumentWhere(f)
	q := `SELECT ` + documentColumns + ` FROM documents ` + where + ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return items, nil
}

// Update writes title, description, categories and tags. The storage key is never touched.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	cats, err := encodeList(doc.Categories)
	if err != nil {
		return nil, err
	}
	tags, err := encodeList(doc.Tags)
	if err != nil {
		return nil, err
	}

	q := `
		UPDATE documents
		SET title = $2, description = $3, categories = $4, tags = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + documentColumns
	out, err := scanDocument(r.db.QueryRowContext(ctx, q,
		doc.ID, doc.Title, doc.Description, cats, tags, r.now(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return out, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// buildDocumentWhere builds the WHERE clause and positional args for a filter.
func buildDocumentWhere(f repository.DocumentFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conditions = append(conditions, fmt.Sprintf("categories @> jsonb_build_array($%d::text)", len(args)))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		conditions = append(conditions, fmt.Sprintf("tags @> jsonb_build_array($%d::text)", len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var (
		d          model.Document
		categories []byte
		tags       []byte
	)
	if err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.Filename,
		&d.Size,
		&d.ContentType,
		&d.StorageKey,
		&categories,
		&tags,
		&d.OwnerID,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if d.Categories, err = decodeList(categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if d.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &d, nil
}

// encodeList renders a string list as a JSONB literal. nil becomes an empty array.
func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
