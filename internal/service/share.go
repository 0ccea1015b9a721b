package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"simpledms/internal/model"
	"simpledms/internal/repository"
	"simpledms/internal/shortener"
	"simpledms/internal/storage"
)

// DefaultShareDays is the share lifetime used when the caller does not pick one.
const DefaultShareDays = 7

const (
	msgShareNotFound = "share not found"
	msgShareExpired  = "share link has expired"
	day              = 24 * time.Hour
)

// ShareService manages time-limited public links to documents.
type ShareService interface {
	// Create signs a download URL valid for expiresInDays and stores a share for it.
	Create(ctx context.Context, documentID, ownerID string, expiresInDays int) (*model.Share, error)

	// Get returns a live share. An expired share is deleted and reported as not found.
	Get(ctx context.Context, shareID string) (*model.Share, error)

	// List returns the owner's shares. It never deletes anything.
	List(ctx context.Context, ownerID string, includeExpired bool) ([]model.Share, error)

	// Delete removes a share owned by ownerID.
	Delete(ctx context.Context, shareID, ownerID string) error

	// CleanupExpiredShares removes every expired share and returns how many went.
	CleanupExpiredShares(ctx context.Context) (int, error)
}

// ShareOption customizes a share service.
type ShareOption func(*shareService)

// WithShareClock overrides the clock used for expiry decisions.
func WithShareClock(now func() time.Time) ShareOption {
	return func(s *shareService) {
		if now != nil {
			s.now = now
		}
	}
}

type shareService struct {
	docs      DocumentService
	store     storage.Provider
	repo      repository.ShareRepository
	shortener shortener.Shortener
	cache     *ShareCache
	logger    *slog.Logger
	now       func() time.Time
}

// NewShareService constructs a ShareService. short and cache may be nil.
func NewShareService(
	docs DocumentService,
	store storage.Provider,
	repo repository.ShareRepository,
	short shortener.Shortener,
	cache *ShareCache,
	logger *slog.Logger,
	opts ...ShareOption,
) ShareService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &shareService{
		docs:      docs,
		store:     store,
		repo:      repo,
		shortener: short,
		cache:     cache,
		logger:    logger.With("component", "share_service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *shareService) Create(ctx context.Context, documentID, ownerID string, expiresInDays int) (*model.Share, error) {
	if expiresInDays < 0 {
		return nil, validationError("expires_in_days must not be negative")
	}

	doc, err := s.docs.Get(ctx, documentID, ownerID)
	if err != nil {
		return nil, err
	}

	validity := time.Duration(expiresInDays) * day
	longURL, err := s.store.GenerateDownloadURL(ctx, doc.StorageKey, validity)
	if err != nil {
		return nil, storageError("generate share url", err)
	}

	shortURL := s.shorten(ctx, longURL)
	share, err := s.repo.Create(ctx, &model.Share{
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		LongURL:    longURL,
		ShortURL:   shortURL,
		ExpiresAt:  s.now().UTC().Add(validity),
	})
	if err != nil {
		return nil, fmt.Errorf("save share: %w", err)
	}

	s.cache.Set(share)
	s.logger.Info("share created",
		"share_id", share.ID,
		"document_id", doc.ID,
		"expires_at", share.ExpiresAt,
		"shortened", shortURL != longURL,
	)
	return share, nil
}

func (s *shareService) Get(ctx context.Context, shareID string) (*model.Share, error) {
	share, ok := s.cache.Get(shareID)
	if !ok {
		found, err := s.repo.FindByID(ctx, shareID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFoundError(msgShareNotFound)
			}
			return nil, fmt.Errorf("find share: %w", err)
		}
		share = found
	}

	if share.Expired(s.now().UTC()) {
		s.cache.Delete(share.ID)
		if err := s.repo.Delete(ctx, share.ID); err != nil {
			return nil, fmt.Errorf("delete expired share: %w", err)
		}
		return nil, notFoundError(msgShareExpired)
	}

	s.cache.Set(share)
	return share, nil
}

func (s *shareService) List(ctx context.Context, ownerID string, includeExpired bool) ([]model.Share, error) {
	var activeAfter time.Time
	if !includeExpired {
		activeAfter = s.now().UTC()
	}
	items, err := s.repo.ListByOwner(ctx, ownerID, activeAfter)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	return items, nil
}

func (s *shareService) Delete(ctx context.Context, shareID, ownerID string) error {
	share, err := s.repo.FindByID(ctx, shareID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(msgShareNotFound)
		}
		return fmt.Errorf("find share: %w", err)
	}
	if share.OwnerID != ownerID {
		return notFoundError(msgShareNotFound)
	}

	s.cache.Delete(share.ID)
	if err := s.repo.Delete(ctx, share.ID); err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	return nil
}

func (s *shareService) CleanupExpiredShares(ctx context.Context) (int, error) {
	ids, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired shares: %w", err)
	}
	s.cache.Delete(ids...)
	return len(ids), nil
}

// shorten is best effort: any failure falls back to the long URL.
func (s *shareService) shorten(ctx context.Context, longURL string) string {
	if s.shortener == nil {
		return longURL
	}
	short, err := s.shortener.Shorten(ctx, longURL)
	if err != nil {
		s.logger.Warn("url shortening failed, using long url", "error", err)
		return longURL
	}
	return short
}
