package handlers

import (
	"reforma-budgets/internal/dto"
	"reforma-budgets/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetSettings godoc
// @Summary Get the company profile
// @Description Defaults are returned until the profile is saved once
// @Tags settings
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.CompanySettingsResponse
// @Router /api/v1/settings [get]
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.settingsService.Get(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get settings")
	}

	return c.JSON(settings)
}

// UpdateSettings godoc
// @Summary Save the company profile
// @Tags settings
// @Accept json
// @Produce json
// @Param request body dto.CompanySettingsRequest true "Company profile"
// @Security Bearer
// @Success 200 {object} dto.CompanySettingsResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/settings [put]
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req dto.CompanySettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	settings, err := h.settingsService.Update(c.Context(), req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update settings")
	}

	return c.JSON(settings)
}

// UploadLogo godoc
// @Summary Upload the company logo
// @Tags settings
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Logo (PNG, JPEG or WebP)"
// @Security Bearer
// @Success 200 {object} dto.CompanySettingsResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/settings/logo [put]
func (h *SettingsHandler) UploadLogo(c *fiber.Ctx) error {
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

	settings, err := h.settingsService.UploadLogo(c.Context(), file.Filename, data)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to upload logo")
	}

	return c.JSON(settings)
}
