package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
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
)

var ErrInvalidImage = errors.New("file is not a supported image")

type SettingsStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.CompanySettings, error)
	Upsert(ctx context.Context, s *models.CompanySettings) (*models.CompanySettings, error)
}

// SettingsService serves the single company profile row identified by id.
type SettingsService struct {
	id     uuid.UUID
	repo   SettingsStore
	store  storage.ObjectStore
	bucket string
	now    func() time.Time
	logger *zap.Logger
}

func NewSettingsService(id uuid.UUID, repo SettingsStore, store storage.ObjectStore, logoBucket string, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		id:     id,
		repo:   repo,
		store:  store,
		bucket: logoBucket,
		now:    time.Now,
		logger: logger,
	}
}

// Current returns the saved profile, or the defaults when none was saved yet.
func (s *SettingsService) Current(ctx context.Context) (*models.CompanySettings, error) {
	settings, err := s.repo.Get(ctx, s.id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DefaultCompanySettings(s.id), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsService) Get(ctx context.Context) (*dto.CompanySettingsResponse, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	resp := dto.NewCompanySettingsResponse(settings)
	return &resp, nil
}

func (s *SettingsService) Update(ctx context.Context, req dto.CompanySettingsRequest) (*dto.CompanySettingsResponse, error) {
	saved, err := s.repo.Upsert(ctx, &models.CompanySettings{
		ID:          s.id,
		CompanyName: sanitizeUTF8(strings.TrimSpace(req.CompanyName)),
		Phone:       sanitizeUTF8(strings.TrimSpace(req.Phone)),
		Email:       sanitizeUTF8(strings.TrimSpace(req.Email)),
		CNPJ:        sanitizeUTF8(strings.TrimSpace(req.CNPJ)),
		Address:     sanitizeUTF8(strings.TrimSpace(req.Address)),
		LogoURL:     strings.TrimSpace(req.LogoURL),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update company settings: %w", err)
	}

	s.logger.Info("Company settings updated", zap.String("settings_id", s.id.String()))

	resp := dto.NewCompanySettingsResponse(saved)
	return &resp, nil
}

// UploadLogo stores a new logo image and points the profile at it.
func (s *SettingsService) UploadLogo(ctx context.Context, name string, data []byte) (*dto.CompanySettingsResponse, error) {
	if _, err := render.DecodeImage(data); err != nil {
		return nil, ErrInvalidImage
	}

	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("company_logo/%d-%s", s.now().UnixMilli(), logoFileName(name))
	url, err := s.store.Upload(ctx, s.bucket, path, data, http.DetectContentType(data))
	if err != nil {
		return nil, models.StorageError("failed to upload logo", err)
	}

	updated := *current
	updated.LogoURL = url
	saved, err := s.repo.Upsert(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update company settings: %w", err)
	}

	s.logger.Info("Company logo updated", zap.String("logo_url", url))

	resp := dto.NewCompanySettingsResponse(saved)
	return &resp, nil
}

func logoFileName(name string) string {
	clean := filename.SanitizeString(name)
	if clean == "" || clean == filepath.Ext(clean) {
		return "logo" + clean
	}
	return clean
}
