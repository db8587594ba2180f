package handlers

import (
	"reforma-budgets/internal/dto"
	"reforma-budgets/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type BudgetHandler struct {
	budgetService *service.BudgetService
	logger        *zap.Logger
}

func NewBudgetHandler(budgetService *service.BudgetService, logger *zap.Logger) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		logger:        logger,
	}
}

// ListBudgets godoc
// @Summary List generated budgets
// @Description Newest first, optionally filtered by status
// @Tags budgets
// @Produce json
// @Param status query string false "Pendente or Finalizado"
// @Param limit query int false "Limit" default(50)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.BudgetListResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) ListBudgets(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	budgets, err := h.budgetService.ListBudgets(c.Context(), c.Query("status"), limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list budgets")
	}

	return c.JSON(budgets)
}

// GetBudget godoc
// @Summary Get a budget
// @Tags budgets
// @Produce json
// @Param id path string true "Budget ID"
// @Security Bearer
// @Success 200 {object} dto.BudgetResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid budget ID",
		})
	}

	budget, err := h.budgetService.GetBudget(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get budget")
	}

	return c.JSON(budget)
}

// UpdateStatus godoc
// @Summary Change a budget's status
// @Tags budgets
// @Accept json
// @Produce json
// @Param id path string true "Budget ID"
// @Param request body dto.UpdateBudgetStatusRequest true "New status"
// @Security Bearer
// @Success 200 {object} dto.BudgetResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/budgets/{id}/status [patch]
func (h *BudgetHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid budget ID",
		})
	}

	var req dto.UpdateBudgetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	budget, err := h.budgetService.UpdateBudgetStatus(c.Context(), id, req.Status)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update budget status")
	}

	return c.JSON(budget)
}

// DeleteBudget godoc
// @Summary Delete a budget record
// @Description Stored PDFs are kept
// @Tags budgets
// @Param id path string true "Budget ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid budget ID",
		})
	}

	if err := h.budgetService.DeleteBudget(c.Context(), id); err != nil {
		return respondError(c, h.logger, err, "Failed to delete budget")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
