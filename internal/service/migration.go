package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"simpledms/internal/repository"
	"simpledms/internal/storage"
)

const (
	defaultMigrationBatch = 10
	migrationBatchPause   = 100 * time.Millisecond
)

// MigrationReport tallies a copy run.
type MigrationReport struct {
	Total      int      `json:"total"`
	Success    int      `json:"success"`
	Failed     int      `json:"failed"`
	FailedKeys []string `json:"failed_keys"`
}

// VerificationReport tallies a target verification run.
type VerificationReport struct {
	Total       int      `json:"total"`
	Verified    int      `json:"verified"`
	Missing     int      `json:"missing"`
	MissingKeys []string `json:"missing_keys"`
}

// MigrationService copies every document blob from one provider to another.
// It reads the metadata store but never writes it; repointing the active
// provider after a clean verification is left to the operator.
type MigrationService struct {
	source storage.Provider
	target storage.Provider
	repo   repository.DocumentRepository
	logger *slog.Logger
	pause  time.Duration
}

// NewMigrationService constructs a MigrationService.
func NewMigrationService(source, target storage.Provider, repo repository.DocumentRepository, logger *slog.Logger) *MigrationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MigrationService{
		source: source,
		target: target,
		repo:   repo,
		logger: logger.With("component", "storage_migration"),
		pause:  migrationBatchPause,
	}
}

// MigrateFile streams one blob from source to target under the same key and
// confirms it on the target. Failures are logged and reported as false.
func (m *MigrationService) MigrateFile(ctx context.Context, key string) bool {
	if err := m.copyObject(ctx, key); err != nil {
		m.logger.Error("file migration failed", "storage_key", key, "error", err)
		return false
	}
	return true
}

func (m *MigrationService) copyObject(ctx context.Context, key string) error {
	info, err := m.source.GetInfo(ctx, key)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	rc, err := m.source.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("download source: %w", err)
	}
	defer rc.Close()

	if _, err := m.target.Upload(ctx, key, rc, storage.PutObjectOptions{
		Size:        info.Size,
		ContentType: info.ContentType,
		Metadata:    info.Metadata,
	}); err != nil {
		return fmt.Errorf("upload target: %w", err)
	}

	got, err := m.target.GetInfo(ctx, key)
	if err != nil {
		return fmt.Errorf("confirm target: %w", err)
	}
	if info.Size >= 0 && got.Size != info.Size {
		return fmt.Errorf("confirm target: size %d, want %d", got.Size, info.Size)
	}
	return nil
}

// MigrateDocumentFiles copies the blob of every document, pausing briefly after
// each batchSize documents. Individual failures are tallied, not returned.
func (m *MigrationService) MigrateDocumentFiles(ctx context.Context, batchSize int) (*MigrationReport, error) {
	if batchSize <= 0 {
		batchSize = defaultMigrationBatch
	}
	docs, err := m.repo.List(ctx, repository.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	report := &MigrationReport{FailedKeys: []string{}}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Total++
		if m.MigrateFile(ctx, doc.StorageKey) {
			report.Success++
		} else {
			report.Failed++
			report.FailedKeys = append(report.FailedKeys, doc.StorageKey)
		}

		if report.Total%batchSize == 0 {
			m.logger.Info("migration progress", "processed", report.Total, "failed", report.Failed)
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(m.pause):
			}
		}
	}

	m.logger.Info("migration finished",
		"total", report.Total,
		"success", report.Success,
		"failed", report.Failed,
	)
	return report, nil
}

// VerifyMigration checks the target for every document key. Any check error counts as missing.
func (m *MigrationService) VerifyMigration(ctx context.Context) (*VerificationReport, error) {
	docs, err := m.repo.List(ctx, repository.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	report := &VerificationReport{MissingKeys: []string{}}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Total++
		_, err := m.target.GetInfo(ctx, doc.StorageKey)
		if err == nil {
			report.Verified++
			continue
		}
		if !storage.IsNotFound(err) {
			m.logger.Error("verification check failed", "storage_key", doc.StorageKey, "error", err)
		}
		report.Missing++
		report.MissingKeys = append(report.MissingKeys, doc.StorageKey)
	}
	return report, nil
}
