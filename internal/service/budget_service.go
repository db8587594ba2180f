package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reforma-budgets/internal/dto"
	"reforma-budgets/internal/form"
	"reforma-budgets/internal/models"
	"reforma-budgets/internal/pipeline"
	"reforma-budgets/internal/render"
	"reforma-budgets/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrDraftNotFound      = errors.New("draft not found")
	ErrBudgetNotFound     = errors.New("budget not found")
	ErrNoAttachment       = errors.New("draft has no attachment")
	ErrAttachmentTooLarge = errors.New("attachment is too large")
	ErrInvalidDate        = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidStatus      = errors.New("invalid budget status")
	ErrPipelineBusy       = errors.New("budget is already being generated for this draft")
	ErrDraftResetFailed   = errors.New("budget generated but the draft could not be reset")
)

type BudgetStore interface {
	List(ctx context.Context, status models.BudgetStatus, limit, offset int) ([]*models.Budget, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Budget, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BudgetStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PipelineRunner interface {
	Run(ctx context.Context, f *form.BudgetForm, company *models.CompanySettings) (*pipeline.Result, error)
}

type CompanyProvider interface {
	Current(ctx context.Context) (*models.CompanySettings, error)
}

type BudgetService struct {
	drafts        form.DraftStore
	budgets       BudgetStore
	runner        PipelineRunner
	company       CompanyProvider
	maxAttachment int64
	inFlight      sync.Map
	logger        *zap.Logger
}

func NewBudgetService(
	drafts form.DraftStore,
	budgets BudgetStore,
	runner PipelineRunner,
	company CompanyProvider,
	maxAttachment int64,
	logger *zap.Logger,
) *BudgetService {
	return &BudgetService{
		drafts:        drafts,
		budgets:       budgets,
		runner:        runner,
		company:       company,
		maxAttachment: maxAttachment,
		logger:        logger,
	}
}

// CreateDraft starts a new budget form with a fresh budget number.
func (s *BudgetService) CreateDraft(ctx context.Context) (*dto.DraftResponse, error) {
	f := form.New()
	if err := s.drafts.Save(ctx, f); err != nil {
		return nil, err
	}

	resp := dto.NewDraftResponse(f)
	return &resp, nil
}

func (s *BudgetService) GetDraft(ctx context.Context, id uuid.UUID) (*dto.DraftResponse, error) {
	f, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := dto.NewDraftResponse(f)
	return &resp, nil
}

// UpdateDraft applies the fields present in req.
func (s *BudgetService) UpdateDraft(ctx context.Context, id uuid.UUID, req dto.UpdateDraftRequest) (*dto.DraftResponse, error) {
	f, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	setters := []struct {
		value *string
		set   func(string)
	}{
		{req.ClientName, f.SetClientName},
		{req.Description, f.SetDescription},
		{req.AdditionalNotes, f.SetAdditionalNotes},
		{req.Duration, f.SetDuration},
		{req.ValueWithMaterial, f.SetValueWithMaterial},
		{req.ValueWithoutMaterial, f.SetValueWithoutMaterial},
		{req.ValidityDays, f.SetValidityDays},
		{req.PaymentMethod, f.SetPaymentMethod},
	}
	for _, st := range setters {
		if st.value != nil {
			st.set(sanitizeUTF8(*st.value))
		}
	}

	if req.Date != nil {
		if *req.Date == "" {
			f.ClearDate()
		} else {
			d, err := time.Parse(time.DateOnly, *req.Date)
			if err != nil {
				return nil, ErrInvalidDate
			}
			f.SetDate(d)
		}
	}

	if err := s.drafts.Save(ctx, f); err != nil {
		return nil, err
	}

	resp := dto.NewDraftResponse(f)
	return &resp, nil
}

// SetAttachment selects the material budget PDF of a draft. Non-PDF content
// types are rejected with an invalid_attachment_type error and the draft is
// not modified.
func (s *BudgetService) SetAttachment(ctx context.Context, id uuid.UUID, name, contentType string, data []byte) (*dto.DraftResponse, error) {
	f, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.maxAttachment > 0 && int64(len(data)) > s.maxAttachment {
		return nil, ErrAttachmentTooLarge
	}

	if err := f.SelectAttachment(name, contentType, data); err != nil {
		s.logger.Info("Attachment rejected",
			zap.String("draft_id", id.String()),
			zap.String("content_type", contentType),
		)
		return nil, err
	}

	if pages, err := render.PageCount(data); err != nil {
		s.logger.Warn("Selected attachment could not be read",
			zap.String("draft_id", id.String()),
			zap.Error(err),
		)
	} else {
		s.logger.Debug("Attachment selected",
			zap.String("draft_id", id.String()),
			zap.String("name", f.Attachment().Name),
			zap.Int("pages", pages),
		)
	}

	if err := s.drafts.Save(ctx, f); err != nil {
		return nil, err
	}

	resp := dto.NewDraftResponse(f)
	return &resp, nil
}

func (s *BudgetService) RemoveAttachment(ctx context.Context, id uuid.UUID) (*dto.DraftResponse, error) {
	f, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	f.RemoveAttachment()
	if err := s.drafts.Save(ctx, f); err != nil {
		return nil, err
	}

	resp := dto.NewDraftResponse(f)
	return &resp, nil
}

// GetAttachment returns the selected attachment for preview.
func (s *BudgetService) GetAttachment(ctx context.Context, id uuid.UUID) (*form.Attachment, error) {
	f, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	att := f.Attachment()
	if att == nil {
		return nil, ErrNoAttachment
	}
	return att, nil
}

// Submit runs the budget pipeline for a draft. Only one run per draft may be
// in flight. On success the draft is reset and saved under the same id; on
// failure it is left exactly as it was. When the reset draft cannot be saved
// the stale draft is deleted so its number is never submitted twice; if that
// fails too the response comes back with ErrDraftResetFailed.
func (s *BudgetService) Submit(ctx context.Context, id uuid.UUID) (*dto.SubmitDraftResponse, error) {
	if _, busy := s.inFlight.LoadOrStore(id, struct{}{}); busy {
		return nil, ErrPipelineBusy
	}
	defer s.inFlight.Delete(id)

	f, err := s.loadDraft(ctx, id)
	if err != nil {
		return nil, err
	}

	company, err := s.company.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load company settings: %w", err)
	}

	result, err := s.runner.Run(ctx, f, company)
	if err != nil {
		return nil, err
	}

	resp := &dto.SubmitDraftResponse{
		PDFURL:          result.PDFURL,
		FileName:        result.FileName,
		PageCount:       result.PageCount,
		AttachmentPages: result.AttachmentPages,
		State:           result.State.String(),
		Budget:          dto.NewBudgetResponse(result.Budget),
	}

	if err := s.drafts.Save(ctx, f); err != nil {
		// the stored draft still carries the number just used
		s.logger.Warn("Failed to save reset draft, discarding it",
			zap.String("draft_id", id.String()),
			zap.Error(err),
		)
		resp.Warning = "draft was discarded, create a new one"
		if delErr := s.drafts.Delete(ctx, id); delErr != nil {
			return resp, fmt.Errorf("%w: save: %v, delete: %v", ErrDraftResetFailed, err, delErr)
		}
		return resp, nil
	}

	next := dto.NewDraftResponse(f)
	resp.NextDraft = &next
	return resp, nil
}

func (s *BudgetService) ListBudgets(ctx context.Context, status string, limit, offset int) (*dto.BudgetListResponse, error) {
	st := models.BudgetStatus(status)
	if status != "" && !st.Valid() {
		return nil, ErrInvalidStatus
	}

	budgets, err := s.budgets.List(ctx, st, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	resp := &dto.BudgetListResponse{Budgets: make([]dto.BudgetResponse, 0, len(budgets))}
	for _, b := range budgets {
		resp.Budgets = append(resp.Budgets, dto.NewBudgetResponse(b))
	}
	return resp, nil
}

func (s *BudgetService) GetBudget(ctx context.Context, id uuid.UUID) (*dto.BudgetResponse, error) {
	b, err := s.budgets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	resp := dto.NewBudgetResponse(b)
	return &resp, nil
}

func (s *BudgetService) UpdateBudgetStatus(ctx context.Context, id uuid.UUID, status string) (*dto.BudgetResponse, error) {
	st := models.BudgetStatus(status)
	if !st.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := s.budgets.UpdateStatus(ctx, id, st); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("failed to update budget status: %w", err)
	}

	return s.GetBudget(ctx, id)
}

func (s *BudgetService) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	if err := s.budgets.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBudgetNotFound
		}
		return fmt.Errorf("failed to delete budget: %w", err)
	}

	s.logger.Info("Budget deleted", zap.String("budget_id", id.String()))
	return nil
}

func (s *BudgetService) loadDraft(ctx context.Context, id uuid.UUID) (*form.BudgetForm, error) {
	f, err := s.drafts.Get(ctx, id)
	if errors.Is(err, form.ErrDraftNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
