package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beeline-social/engagement-core/internal/domain"
	"github.com/beeline-social/engagement-core/internal/repository"
)

// contentService implements ContentService.
type contentService struct {
	repo repository.ContentRepository
}

// NewContentService creates a new ContentService instance.
func NewContentService(repo repository.ContentRepository) ContentService {
	return &contentService{repo: repo}
}

func (s *contentService) Create(ctx context.Context, ownerID, caption, mediaURL string) (*domain.ContentItem, error) {
	if strings.TrimSpace(caption) == "" && strings.TrimSpace(mediaURL) == "" {
		return nil, fmt.Errorf("content needs a caption or media: %w", domain.ErrInvalidOperation)
	}

	item := &domain.ContentItem{
		ContentID: uuid.NewString(),
		OwnerID:   ownerID,
		Caption:   caption,
		MediaURL:  mediaURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *contentService) Get(ctx context.Context, contentID string) (*domain.ContentItem, error) {
	return s.repo.Get(ctx, contentID)
}

func (s *contentService) Delete(ctx context.Context, contentID, actorID string) error {
	return s.repo.Delete(ctx, contentID, actorID)
}

func (s *contentService) ListByOwner(ctx context.Context, ownerID string, limit int32, cursor string) (*domain.ContentPage, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, cursor)
}
