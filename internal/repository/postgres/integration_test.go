//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"simpledms/internal/config"
	"simpledms/internal/database"
	"simpledms/internal/database/migration"
	"simpledms/internal/logging"
	"simpledms/internal/model"
	"simpledms/internal/repository"
)

// setupTestDB starts PostgreSQL in a container and applies the embedded migrations.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		tcpostgres.WithDatabase("simpledms_test"),
		tcpostgres.WithUsername("simpledms"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "simpledms",
		Password: "test-password",
		Name:     "simpledms_test",
		SSLMode:  "disable",
	}
	require.NoError(t, migration.Up(cfg, logging.Discard()))

	db, err := database.NewPostgres(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIntegration_Documents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewDocumentPostgres(db)

	a, err := repo.Create(ctx, &model.Document{
		Title: "Invoice", Filename: "invoice.pdf", Size: 10, ContentType: "application/pdf",
		StorageKey: "documents/u1/2024/01/01/invoice.pdf", Categories: []string{"finance"},
		Tags: []string{"2024"}, OwnerID: "u1",
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Document{
		Title: "Finance notes", Filename: "notes.txt", ContentType: "text/plain",
		StorageKey: "documents/u1/2024/01/01/notes.txt", Categories: []string{"financeteam"}, OwnerID: "u1",
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Document{
		Title: "Other", Filename: "x.txt", ContentType: "text/plain",
		StorageKey: "documents/u2/2024/01/01/x.txt", Categories: []string{"finance"}, OwnerID: "u2",
	})
	require.NoError(t, err)

	items, err := repo.List(ctx, repository.DocumentFilter{OwnerID: "u1", Category: "finance"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)

	all, err := repo.List(ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty := []string{}
	a.Title = "Invoice (paid)"
	a.Tags = empty
	updated, err := repo.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Invoice (paid)", updated.Title)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, a.StorageKey, updated.StorageKey)

	require.NoError(t, repo.Delete(ctx, a.ID))
	require.NoError(t, repo.Delete(ctx, a.ID))
	_, err = repo.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIntegration_Shares(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewSharePostgres(db)
	now := time.Now().UTC()
	docID := "6b1f6a3e-6f2c-4d7e-9c39-2f1f0f7a8e11"

	live, err := repo.Create(ctx, &model.Share{DocumentID: docID, OwnerID: "u1", LongURL: "l", ShortURL: "s", ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	dead, err := repo.Create(ctx, &model.Share{DocumentID: docID, OwnerID: "u1", LongURL: "l", ShortURL: "s", ExpiresAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	active, err := repo.ListByOwner(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, live.ID, active[0].ID)

	ids, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []string{dead.ID}, ids)

	removed, err := repo.DeleteByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, []string{live.ID}, removed)
}

func TestIntegration_CatalogConflict(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewTagPostgres(db)

	_, err := repo.Create(ctx, &model.Tag{Name: "urgent", Color: model.DefaultTagColor})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Tag{Name: "urgent", Color: "#000000"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}
