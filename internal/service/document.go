package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"simpledms/internal/model"
	"simpledms/internal/repository"
	"simpledms/internal/storage"
)

const (
	defaultListLimit      = 10
	defaultDownloadURLTTL = time.Hour
	fallbackContentType   = "application/octet-stream"
	msgDocumentNotFound   = "document not found"
	msgDocumentOrphaned   = "document not found in storage, metadata has been cleaned up"
	orphanSourceGet       = "get"
	orphanSourceList      = "list"
	orphanSourceSweep     = "sweep"
	metadataOriginalName  = "original-filename"
	metadataOwnerID       = "owner-id"
	storageKeyPrefix      = "documents"
	storageKeyDateLayout  = "2006/01/02"
	fallbackFilename      = "upload"
	rollbackTimeout       = 10 * time.Second
)

var (
	rollbackCleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simpledms_rollback_cleanup_failures_total",
		Help: "Blobs left behind because the rollback delete after a failed insert also failed.",
	})
	orphansRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simpledms_orphaned_documents_removed_total",
		Help: "Document records removed because their blob was missing.",
	}, []string{"source"})
)

// CreateDocumentInput carries an upload. Content may be empty but not nil.
// Size is the exact byte count, or -1 when unknown.
type CreateDocumentInput struct {
	Content     io.Reader
	Size        int64
	Filename    string
	ContentType string
	Title       string
	Description string
	Categories  []string
	Tags        []string
	OwnerID     string
}

// ListDocumentsQuery narrows and pages List. Empty Category/Tag do not filter.
type ListDocumentsQuery struct {
	OwnerID  string
	Skip     int
	Limit    int
	Category string
	Tag      string
}

// DocumentListResult is the service-level DTO for paginated documents.
// Total counts valid documents after orphan cleanup, before paging.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
	Skip  int              `json:"skip"`
	Limit int              `json:"limit"`
}

// DocumentService keeps each document's metadata record and its blob consistent.
type DocumentService interface {
	// Create uploads the content, then inserts the record. A failed insert removes the blob again.
	Create(ctx context.Context, in CreateDocumentInput) (*model.Document, error)

	// Get returns a live document. A record whose blob is gone is deleted and reported as not found.
	Get(ctx context.Context, id, ownerID string) (*model.Document, error)

	// List returns the owner's live documents, dropping orphans along the way.
	List(ctx context.Context, q ListDocumentsQuery) (*DocumentListResult, error)

	// Update applies a partial metadata update. The storage key never changes.
	Update(ctx context.Context, id, ownerID string, upd model.DocumentUpdate) (*model.Document, error)

	// Delete removes the blob, then the record, then any shares of the document.
	Delete(ctx context.Context, id, ownerID string) error

	// GenerateDownloadURL presigns the blob. A non-positive validity uses the configured default.
	GenerateDownloadURL(ctx context.Context, id, ownerID string, validity time.Duration) (string, error)

	// CleanupOrphanedDocuments deletes every record whose blob is missing and returns how many went.
	CleanupOrphanedDocuments(ctx context.Context) (int, error)
}

// DocumentOption customizes a document service.
type DocumentOption func(*documentService)

// WithDownloadURLExpiry sets the default presign validity.
func WithDownloadURLExpiry(d time.Duration) DocumentOption {
	return func(s *documentService) {
		if d > 0 {
			s.urlTTL = d
		}
	}
}

// WithDocumentClock overrides the clock used for storage key dates.
func WithDocumentClock(now func() time.Time) DocumentOption {
	return func(s *documentService) {
		if now != nil {
			s.now = now
		}
	}
}

type documentService struct {
	store  storage.Provider
	repo   repository.DocumentRepository
	shares repository.ShareRepository
	cache  *ShareCache
	logger *slog.Logger
	urlTTL time.Duration
	now    func() time.Time
}

// NewDocumentService constructs a DocumentService. shares and cache may be nil, which disables
// the share cascade on delete.
func NewDocumentService(
	store storage.Provider,
	repo repository.DocumentRepository,
	shares repository.ShareRepository,
	cache *ShareCache,
	logger *slog.Logger,
	opts ...DocumentOption,
) DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &documentService{
		store:  store,
		repo:   repo,
		shares: shares,
		cache:  cache,
		logger: logger.With("component", "document_service"),
		urlTTL: defaultDownloadURLTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *documentService) Create(ctx context.Context, in CreateDocumentInput) (*model.Document, error) {
	if in.Content == nil {
		return nil, validationError("file content is required")
	}
	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		return nil, validationError("filename is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if strings.TrimSpace(in.OwnerID) == "" {
		return nil, validationError("owner id is required")
	}
	if !validOwnerSegment(in.OwnerID) {
		return nil, validationError("owner id contains invalid characters")
	}

	key := s.storageKey(in.OwnerID, filename)
	contentType := detectContentType(filename, in.ContentType)

	if _, err := s.store.Upload(ctx, key, in.Content, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			metadataOriginalName: filename,
			metadataOwnerID:      in.OwnerID,
		},
	}); err != nil {
		return nil, storageError("upload to storage", err)
	}

	size := in.Size
	if size < 0 {
		if info, err := s.store.GetInfo(ctx, key); err == nil {
			size = info.Size
		}
	}

	doc := &model.Document{
		Title:       title,
		Description: in.Description,
		Filename:    filename,
		Size:        size,
		ContentType: contentType,
		StorageKey:  key,
		Categories:  nonNil(in.Categories),
		Tags:        nonNil(in.Tags),
		OwnerID:     in.OwnerID,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// The blob must not outlive a failed insert; a failed cleanup is logged, never returned.
		// The request context may be the reason the insert failed, so cleanup runs detached from it.
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
		defer cancel()
		if delErr := s.store.Delete(rbCtx, key); delErr != nil && !storage.IsNotFound(delErr) {
			rollbackCleanupFailures.Inc()
			s.logger.Warn("rollback delete failed",
				"event", "rollback_cleanup",
				"status", "failed",
				"storage_key", key,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("save document metadata: %w", err)
	}

	s.logger.Info("document created", "document_id", stored.ID, "storage_key", key, "size", size)
	return stored, nil
}

func (s *documentService) Get(ctx context.Context, id, ownerID string) (*model.Document, error) {
	doc, err := s.find(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	_, err = s.store.GetInfo(ctx, doc.StorageKey)
	switch {
	case err == nil:
		return doc, nil
	case storage.IsNotFound(err):
		if delErr := s.removeOrphan(ctx, doc, orphanSourceGet); delErr != nil {
			return nil, delErr
		}
		return nil, notFoundError(msgDocumentOrphaned)
	default:
		return nil, storageError("check storage", err)
	}
}

func (s *documentService) List(ctx context.Context, q ListDocumentsQuery) (*DocumentListResult, error) {
	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}

	candidates, err := s.repo.List(ctx, repository.DocumentFilter{
		OwnerID:  q.OwnerID,
		Category: q.Category,
		Tag:      q.Tag,
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	valid := make([]model.Document, 0, len(candidates))
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := &candidates[i]
		_, err := s.store.GetInfo(ctx, doc.StorageKey)
		if err != nil && storage.IsNotFound(err) {
			if delErr := s.removeOrphan(ctx, doc, orphanSourceList); delErr != nil {
				s.logger.Warn("orphan record delete failed", "document_id", doc.ID, "error", delErr)
			}
			continue
		}
		if err != nil {
			// Fail open: a check error other than not-found keeps the document visible.
			s.logger.Warn("storage check failed, keeping document",
				"document_id", doc.ID,
				"storage_key", doc.StorageKey,
				"error", err,
			)
		}
		valid = append(valid, *doc)
	}

	return &DocumentListResult{
		Items: paginate(valid, q.Skip, q.Limit),
		Total: len(valid),
		Skip:  q.Skip,
		Limit: q.Limit,
	}, nil
}

func (s *documentService) Update(ctx context.Context, id, ownerID string, upd model.DocumentUpdate) (*model.Document, error) {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		t := strings.TrimSpace(*upd.Title)
		if t == "" {
			return nil, validationError("title must not be empty")
		}
		upd.Title = &t
	}
	if upd.Empty() {
		return doc, nil
	}

	key := doc.StorageKey
	upd.Apply(doc)
	doc.StorageKey = key

	updated, err := s.repo.Update(ctx, doc)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError(msgDocumentNotFound)
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, doc.StorageKey); err != nil && !storage.IsNotFound(err) {
		return storageError("delete from storage", err)
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	s.logger.Info("document deleted", "document_id", doc.ID, "storage_key", doc.StorageKey)

	s.dropShares(ctx, doc.ID)
	return nil
}

func (s *documentService) GenerateDownloadURL(ctx context.Context, id, ownerID string, validity time.Duration) (string, error) {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	if validity <= 0 {
		validity = s.urlTTL
	}
	u, err := s.store.GenerateDownloadURL(ctx, doc.StorageKey, validity)
	if err != nil {
		return "", storageError("generate download url", err)
	}
	return u, nil
}

func (s *documentService) CleanupOrphanedDocuments(ctx context.Context) (int, error) {
	docs, err := s.repo.List(ctx, repository.DocumentFilter{})
	if err != nil {
		return 0, fmt.Errorf("scan documents: %w", err)
	}

	removed := 0
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		doc := &docs[i]
		_, err := s.store.GetInfo(ctx, doc.StorageKey)
		if err == nil {
			continue
		}
		if !storage.IsNotFound(err) {
			s.logger.Warn("storage check failed during orphan sweep", "document_id", doc.ID, "error", err)
			continue
		}
		if err := s.removeOrphan(ctx, doc, orphanSourceSweep); err != nil {
			s.logger.Warn("orphan record delete failed", "document_id", doc.ID, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// find loads a record and enforces ownership before any storage call.
func (s *documentService) find(ctx context.Context, id, ownerID string) (*model.Document, error) {
	if id == "" {
		return nil, notFoundError(msgDocumentNotFound)
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError(msgDocumentNotFound)
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	if doc.OwnerID != ownerID {
		return nil, notFoundError(msgDocumentNotFound)
	}
	return doc, nil
}

func (s *documentService) removeOrphan(ctx context.Context, doc *model.Document, source string) error {
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete orphaned record: %w", err)
	}
	orphansRemoved.WithLabelValues(source).Inc()
	s.logger.Info("orphaned document removed",
		"document_id", doc.ID,
		"storage_key", doc.StorageKey,
		"source", source,
	)
	return nil
}

func (s *documentService) dropShares(ctx context.Context, documentID string) {
	if s.shares == nil {
		return
	}
	ids, err := s.shares.DeleteByDocument(ctx, documentID)
	if err != nil {
		s.logger.Warn("share cascade failed", "document_id", documentID, "error", err)
		return
	}
	s.cache.Delete(ids...)
	if len(ids) > 0 {
		s.logger.Info("document shares removed", "document_id", documentID, "count", len(ids))
	}
}

// storageKey builds documents/{owner}/{YYYY}/{MM}/{DD}/{filename} from the current UTC date.
// Same-day uploads of the same name by the same owner share a key.
func (s *documentService) storageKey(ownerID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = fallbackFilename
	}
	return path.Join(storageKeyPrefix, ownerID, s.now().UTC().Format(storageKeyDateLayout), name)
}

// validOwnerSegment reports whether ownerID can sit in a storage key as a single path segment.
func validOwnerSegment(ownerID string) bool {
	return !strings.ContainsAny(ownerID, `/\`) && !strings.Contains(ownerID, "..")
}

// detectContentType prefers the caller's type, then the extension, then octet-stream.
func detectContentType(filename, supplied string) string {
	if ct := stripParams(supplied); ct != "" && ct != fallbackContentType {
		return ct
	}
	if ct := stripParams(mime.TypeByExtension(path.Ext(filename))); ct != "" {
		return ct
	}
	if ct := stripParams(supplied); ct != "" {
		return ct
	}
	return fallbackContentType
}

func stripParams(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func paginate(docs []model.Document, skip, limit int) []model.Document {
	if skip >= len(docs) {
		return []model.Document{}
	}
	end := skip + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[skip:end]
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
