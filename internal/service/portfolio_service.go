package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"reforma-budgets/internal/dto"
	"reforma-budgets/internal/models"
	"reforma-budgets/internal/render"
	"reforma-budgets/internal/repository"
	"reforma-budgets/pkg/filename"
	"reforma-budgets/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrPortfolioNotFound = errors.New("portfolio item not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrNoImages          = errors.New("at least one image is required")
)

const uploadConcurrency = 4

type PortfolioStore interface {
	Create(ctx context.Context, item *models.PortfolioItem) (*models.PortfolioItem, error)
	List(ctx context.Context) ([]*models.PortfolioItem, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error)
	GetByShareID(ctx context.Context, shareID string) (*models.PortfolioItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PortfolioObjects is an object store that can map public URLs back to paths.
type PortfolioObjects interface {
	storage.ObjectStore
	PathFromURL(bucket, url string) (string, bool)
}

// ImageUpload is one image of a new portfolio item.
type ImageUpload struct {
	Name        string
	Description string
	Data        []byte
}

type CreatePortfolioInput struct {
	Title                  string
	Description            string
	ClientReferenceContact string
	Images                 []ImageUpload
}

type PortfolioService struct {
	repo   PortfolioStore
	store  PortfolioObjects
	bucket string
	now    func() time.Time
	logger *zap.Logger
}

func NewPortfolioService(repo PortfolioStore, store PortfolioObjects, bucket string, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		repo:   repo,
		store:  store,
		bucket: bucket,
		now:    time.Now,
		logger: logger,
	}
}

// Create uploads the images concurrently and stores the item with a new
// public share id. Images keep the order they were given in.
func (s *PortfolioService) Create(ctx context.Context, in CreatePortfolioInput) (*dto.PortfolioItemResponse, error) {
	title := strings.TrimSpace(sanitizeUTF8(in.Title))
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(in.Images) == 0 {
		return nil, ErrNoImages
	}
	for _, img := range in.Images {
		if _, err := render.DecodeImage(img.Data); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidImage, img.Name)
		}
	}

	itemID := uuid.New()
	stamp := s.now().UnixMilli()
	images := make([]models.PortfolioImage, len(in.Images))
	paths := make([]string, len(in.Images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, img := range in.Images {
		i, img := i, img
		g.Go(func() error {
			path := fmt.Sprintf("%s/%d-%d-%s", itemID, stamp, i, filename.SanitizeString(img.Name))
			url, err := s.store.Upload(gctx, s.bucket, path, img.Data, http.DetectContentType(img.Data))
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			paths[i] = path
			images[i] = models.PortfolioImage{
				ImageURL:    url,
				Description: optional(img.Description),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.removeObjects(ctx, paths)
		return nil, models.StorageError("failed to upload portfolio images", err)
	}

	item, err := s.repo.Create(ctx, &models.PortfolioItem{
		ID:                     itemID,
		Title:                  title,
		Description:            optional(sanitizeUTF8(in.Description)),
		ClientReferenceContact: optional(sanitizeUTF8(in.ClientReferenceContact)),
		PublicShareID:          uuid.NewString(),
		Images:                 images,
	})
	if err != nil {
		s.removeObjects(ctx, paths)
		return nil, models.PersistenceError("failed to save portfolio item", err)
	}

	s.logger.Info("Portfolio item created",
		zap.String("item_id", item.ID.String()),
		zap.Int("images", len(item.Images)),
	)

	resp := dto.NewPortfolioItemResponse(item, false)
	return &resp, nil
}

func (s *PortfolioService) List(ctx context.Context, public bool) (*dto.PortfolioListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolio: %w", err)
	}

	resp := &dto.PortfolioListResponse{Items: make([]dto.PortfolioItemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.NewPortfolioItemResponse(item, public))
	}
	return resp, nil
}

// GetShared returns the public view of an item by its share id.
func (s *PortfolioService) GetShared(ctx context.Context, shareID string) (*dto.PortfolioItemResponse, error) {
	item, err := s.repo.GetByShareID(ctx, shareID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio item: %w", err)
	}

	resp := dto.NewPortfolioItemResponse(item, true)
	return &resp, nil
}

// Delete removes the item and, best effort, its stored images.
func (s *PortfolioService) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPortfolioNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get portfolio item: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPortfolioNotFound
		}
		return fmt.Errorf("failed to delete portfolio item: %w", err)
	}

	paths := make([]string, 0, len(item.Images))
	for _, img := range item.Images {
		if path, ok := s.store.PathFromURL(s.bucket, img.ImageURL); ok {
			paths = append(paths, path)
		}
	}
	s.removeObjects(ctx, paths)

	s.logger.Info("Portfolio item deleted", zap.String("item_id", id.String()))
	return nil
}

func (s *PortfolioService) removeObjects(ctx context.Context, paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.store.Remove(context.WithoutCancel(ctx), s.bucket, path); err != nil {
			s.logger.Warn("Failed to remove portfolio image",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
