package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simpledms/internal/model"
	"simpledms/internal/repository"
)

func TestCategoryPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCategoryPostgres(db)
	repo.now = func() time.Time { return fixedNow }
	ctx := context.Background()
	cols := []string{"id", "name", "icon", "description", "created_at", "updated_at"}

	t.Run("list", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM categories ORDER BY name").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("1", "finance", "💰", "", fixedNow, fixedNow).
				AddRow("2", "legal", model.DefaultCategoryIcon, "contracts", fixedNow, fixedNow))

		items, err := repo.List(ctx)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "legal", items[1].Name)
	})

	t.Run("create", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO categories").
			WithArgs(sqlmock.AnyArg(), "finance", "💰", "", fixedNow).
			WillReturnRows(sqlmock.NewRows(cols).AddRow("1", "finance", "💰", "", fixedNow, fixedNow))

		c, err := repo.Create(ctx, &model.Category{Name: "finance", Icon: "💰"})

		require.NoError(t, err)
		assert.Equal(t, "1", c.ID)
	})

	t.Run("create duplicate", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO categories").
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

		_, err := repo.Create(ctx, &model.Category{Name: "finance"})

		assert.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("delete", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM categories WHERE name").
			WithArgs("finance").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteByName(ctx, "finance"))
	})

	t.Run("delete missing", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM categories WHERE name").
			WithArgs("nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteByName(ctx, "nope"), repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewTagPostgres(db)
	repo.now = func() time.Time { return fixedNow }
	ctx := context.Background()
	cols := []string{"id", "name", "color", "created_at", "updated_at"}

	mock.ExpectQuery("INSERT INTO tags").
		WithArgs(sqlmock.AnyArg(), "urgent", "#ff0000", fixedNow).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("t1", "urgent", "#ff0000", fixedNow, fixedNow))
	mock.ExpectQuery("SELECT (.+) FROM tags ORDER BY name").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("t1", "urgent", "#ff0000", fixedNow, fixedNow))
	mock.ExpectExec("DELETE FROM tags WHERE name").
		WithArgs("urgent").
		WillReturnError(errors.New("conn closed"))

	tag, err := repo.Create(ctx, &model.Tag{Name: "urgent", Color: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "t1", tag.ID)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	err = repo.DeleteByName(ctx, "urgent")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain")))
}
