package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"github.com/inkframe/cms-api/internal/core/domain"
	"github.com/inkframe/cms-api/internal/core/ports"
	"github.com/inkframe/cms-api/internal/metrics"
)

// TextSanitizer cleans the HTML body of text blocks before they are stored.
type TextSanitizer interface {
	Sanitize(rawHTML string) string
}

type ContentService struct {
	repo      ports.ContentRepository
	storage   ports.ObjectStorage
	notifier  ports.ContentNotifier
	sanitizer TextSanitizer
	log       zerolog.Logger
}

func NewContentService(
	repo ports.ContentRepository,
	storage ports.ObjectStorage,
	notifier ports.ContentNotifier,
	sanitizer TextSanitizer,
	log zerolog.Logger,
) *ContentService {
	return &ContentService{
		repo:      repo,
		storage:   storage,
		notifier:  notifier,
		sanitizer: sanitizer,
		log:       log,
	}
}

// Create validates and persists a new content document, then broadcasts it.
// Invalid blocks are rejected before anything is written.
func (s *ContentService) Create(ctx context.Context, in ports.CreateContentInput, creatorID string) (*domain.Content, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	// Validate what will be stored: a text body can be emptied by sanitizing.
	blocks := s.sanitizeBlocks(in.Blocks)
	if err := domain.ValidateBlocks(blocks); err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, ports.NewContent{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Slug:        slug.Make(title),
		Blocks:      blocks,
		CreatedBy:   creatorID,
	})
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}

	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create content: reload: %w", err)
	}

	metrics.ContentMutationsTotal.WithLabelValues("create").Inc()
	s.log.Info().Str("content_id", id).Str("created_by", creatorID).Int("blocks", len(content.Blocks)).Msg("content created")

	s.notifier.NotifyUpdated(content)
	return content, nil
}

// List returns one page of contents, newest first, optionally filtered by a
// case-insensitive search on title and description.
func (s *ContentService) List(ctx context.Context, page, limit int, search string) (*ports.ListContentsResult, error) {
	page, limit = normalizePage(page, limit)

	items, total, err := s.repo.List(ctx, ports.ContentListFilter{
		Search: strings.TrimSpace(search),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}

	return &ports.ListContentsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *ContentService) Get(ctx context.Context, id string) (*domain.Content, error) {
	return s.repo.FindByID(ctx, id)
}

// Update applies the provided fields, stamps the updater and broadcasts the
// new version. A provided block list replaces the stored one entirely.
func (s *ContentService) Update(ctx context.Context, id string, in ports.UpdateContentInput, updaterID string) (*domain.Content, error) {
	update := ports.ContentUpdate{UpdatedBy: updaterID}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
		}
		sl := slug.Make(title)
		update.Title = &title
		update.Slug = &sl
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		update.Description = &desc
	}
	if in.Blocks != nil {
		blocks := s.sanitizeBlocks(*in.Blocks)
		if err := domain.ValidateBlocks(blocks); err != nil {
			return nil, err
		}
		update.Blocks = &blocks
	}

	content, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	metrics.ContentMutationsTotal.WithLabelValues("update").Inc()
	s.log.Info().Str("content_id", id).Str("updated_by", updaterID).Msg("content updated")

	s.notifier.NotifyUpdated(content)
	return content, nil
}

// Remove deletes the storage objects behind image and video blocks and then
// the document itself. Storage failures are logged and never stop the
// document from being deleted.
func (s *ContentService) Remove(ctx context.Context, id string) (*domain.Content, error) {
	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, b := range content.Blocks {
		if !b.Type.HasAsset() || b.Value == "" {
			continue
		}
		if err := s.storage.Delete(ctx, b.Value); err != nil {
			metrics.AssetCleanupErrorsTotal.Inc()
			s.log.Error().Err(err).Str("content_id", id).Str("key", b.Value).Msg("failed to delete block asset")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}

	metrics.ContentMutationsTotal.WithLabelValues("delete").Inc()
	s.log.Info().Str("content_id", id).Msg("content deleted")

	s.notifier.NotifyDeleted(id)
	return content, nil
}

func (s *ContentService) ListByCreator(ctx context.Context, userID string) ([]*domain.Content, error) {
	items, err := s.repo.ListByCreator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list contents by creator: %w", err)
	}
	return items, nil
}

// sanitizeBlocks returns a copy of blocks with text bodies sanitized.
func (s *ContentService) sanitizeBlocks(blocks []domain.Block) []domain.Block {
	out := make([]domain.Block, len(blocks))
	for i, b := range blocks {
		if b.Type == domain.BlockText && s.sanitizer != nil {
			b.Value = s.sanitizer.Sanitize(b.Value)
		}
		out[i] = b
	}
	return out
}
