package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"simpledms/internal/model"
	"simpledms/internal/repository"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db, now: utcNow}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

func (r *CategoryPostgres) List(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, name, icon, description, created_at, updated_at FROM categories ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

func (r *CategoryPostgres) Create(ctx context.Context, c *model.Category) (*model.Category, error) {
	const q = `
		INSERT INTO categories (id, name, icon, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, name, icon, description, created_at, updated_at
	`
	var out model.Category
	err := r.db.QueryRowContext(ctx, q, uuid.NewString(), c.Name, c.Icon, c.Description, r.now()).
		Scan(&out.ID, &out.Name, &out.Icon, &out.Description, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", c.Name, repository.ErrConflict)
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &out, nil
}

func (r *CategoryPostgres) DeleteByName(ctx context.Context, name string) error {
	return deleteByName(ctx, r.db, `DELETE FROM categories WHERE name = $1`, name)
}

// TagPostgres is a PostgreSQL implementation of repository.TagRepository.
type TagPostgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewTagPostgres(db *sql.DB) *TagPostgres {
	return &TagPostgres{db: db, now: utcNow}
}

var _ repository.TagRepository = (*TagPostgres)(nil)

func (r *TagPostgres) List(ctx context.Context) ([]model.Tag, error) {
	const q = `SELECT id, name, color, created_at, updated_at FROM tags ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	items := make([]model.Tag, 0)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return items, nil
}

func (r *TagPostgres) Create(ctx context.Context, t *model.Tag) (*model.Tag, error) {
	const q = `
		INSERT INTO tags (id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, name, color, created_at, updated_at
	`
	var out model.Tag
	err := r.db.QueryRowContext(ctx, q, uuid.NewString(), t.Name, t.Color, r.now()).
		Scan(&out.ID, &out.Name, &out.Color, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("tag %q: %w", t.Name, repository.ErrConflict)
		}
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	return &out, nil
}

func (r *TagPostgres) DeleteByName(ctx context.Context, name string) error {
	return deleteByName(ctx, r.db, `DELETE FROM tags WHERE name = $1`, name)
}

func deleteByName(ctx context.Context, db *sql.DB, q, name string) error {
	res, err := db.ExecContext(ctx, q, name)
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
