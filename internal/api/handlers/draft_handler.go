package handlers

import (
	"errors"

	"reforma-budgets/internal/dto"
	"reforma-budgets/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DraftHandler struct {
	budgetService *service.BudgetService
	logger        *zap.Logger
}

func NewDraftHandler(budgetService *service.BudgetService, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{
		budgetService: budgetService,
		logger:        logger,
	}
}

// CreateDraft godoc
// @Summary Start a budget form
// @Description Create a draft with a new budget number and today's date
// @Tags drafts
// @Produce json
// @Security Bearer
// @Success 201 {object} dto.DraftResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/drafts [post]
func (h *DraftHandler) CreateDraft(c *fiber.Ctx) error {
	draft, err := h.budgetService.CreateDraft(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create draft")
	}

	return c.Status(fiber.StatusCreated).JSON(draft)
}

// GetDraft godoc
// @Summary Get a budget form
// @Tags drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Security Bearer
// @Success 200 {object} dto.DraftResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/drafts/{id} [get]
func (h *DraftHandler) GetDraft(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid draft ID",
		})
	}

	draft, err := h.budgetService.GetDraft(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get draft")
	}

	return c.JSON(draft)
}

// UpdateDraft godoc
// @Summary Update budget form fields
// @Description Only the fields present in the body are changed. date is YYYY-MM-DD, "" clears it
// @Tags drafts
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param request body dto.UpdateDraftRequest true "Fields to change"
// @Security Bearer
// @Success 200 {object} dto.DraftResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/drafts/{id} [patch]
func (h *DraftHandler) UpdateDraft(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid draft ID",
		})
	}

	var req dto.UpdateDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	draft, err := h.budgetService.UpdateDraft(c.Context(), id, req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update draft")
	}

	return c.JSON(draft)
}

// SetAttachment godoc
// @Summary Select the material budget PDF
// @Description Replace the draft attachment. Only application/pdf is accepted
// @Tags drafts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Draft ID"
// @Param file formData file true "Material budget (PDF)"
// @Security Bearer
// @Success 200 {object} dto.DraftResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 415 {object} map[string]string
// @Router /api/v1/drafts/{id}/attachment [put]
func (h *DraftHandler) SetAttachment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid draft ID",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	data, err := readFormFile(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}

	draft, err := h.budgetService.SetAttachment(c.Context(), id, file.Filename, file.Header.Get("Content-Type"), data)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to attach file")
	}

	return c.JSON(draft)
}

// GetAttachment godoc
// @Summary Preview the selected attachment
// @Tags drafts
// @Produce application/pdf
// @Param id path string true "Draft ID"
// @Security Bearer
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /api/v1/drafts/{id}/attachment [get]
func (h *DraftHandler) GetAttachment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid draft ID",
		})
	}

	att, err := h.budgetService.GetAttachment(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get attachment")
	}

	c.Set(fiber.HeaderContentType, att.ContentType)
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+att.Name+`"`)
	return c.Send(att.Data)
}

// RemoveAttachment godoc
// @Summary Remove the selected attachment
// @Tags drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Security Bearer
// @Success 200 {object} dto.DraftResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/drafts/{id}/attachment [delete]
func (h *DraftHandler) RemoveAttachment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid draft ID",
		})
	}

	draft, err := h.budgetService.RemoveAttachment(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to remove attachment")
	}

	return c.JSON(draft)
}

// SubmitDraft godoc
// @Summary Generate the budget PDF
// @Description Render the form, append the attachment pages, upload the PDF and record the budget.
// @Description On success the draft is reset to a new budget number.
// @Tags drafts
// @Produce json
// @Param id path string true "Draft ID"
// @Security Bearer
// @Success 201 {object} dto.SubmitDraftResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/drafts/{id}/submit [post]
func (h *DraftHandler) SubmitDraft(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid draft ID",
		})
	}

	result, err := h.budgetService.Submit(c.Context(), id)
	if err != nil {
		if result == nil || !errors.Is(err, service.ErrDraftResetFailed) {
			return respondError(c, h.logger, err, "Failed to generate budget")
		}
		h.logger.Error("Budget generated with a stale draft left behind",
			zap.String("draft_id", id.String()),
			zap.Error(err),
		)
		result.Warning = err.Error()
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}
