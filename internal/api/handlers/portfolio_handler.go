package handlers

import (
	"reforma-budgets/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	logger           *zap.Logger
}

func NewPortfolioHandler(portfolioService *service.PortfolioService, logger *zap.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		logger:           logger,
	}
}

// CreateItem godoc
// @Summary Publish a finished job
// @Description Upload the photos of a job. image_descriptions[i] describes files[i]
// @Tags portfolio
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param client_reference_contact formData string false "Client contact, never shown publicly"
// @Param files formData file true "Images"
// @Param image_descriptions formData []string false "One description per image"
// @Security Bearer
// @Success 201 {object} dto.PortfolioItemResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/portfolio [post]
func (h *PortfolioHandler) CreateItem(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid multipart form",
		})
	}

	files := form.File["files"]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one image is required",
		})
	}
	descriptions := form.Value["image_descriptions"]

	images := make([]service.ImageUpload, 0, len(files))
	for i, file := range files {
		data, err := readFormFile(file)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Failed to open file",
			})
		}
		img := service.ImageUpload{Name: file.Filename, Data: data}
		if i < len(descriptions) {
			img.Description = descriptions[i]
		}
		images = append(images, img)
	}

	item, err := h.portfolioService.Create(c.Context(), service.CreatePortfolioInput{
		Title:                  c.FormValue("title"),
		Description:            c.FormValue("description"),
		ClientReferenceContact: c.FormValue("client_reference_contact"),
		Images:                 images,
	})
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create portfolio item")
	}

	return c.Status(fiber.StatusCreated).JSON(item)
}

// ListItems godoc
// @Summary List portfolio items
// @Tags portfolio
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.PortfolioListResponse
// @Router /api/v1/portfolio [get]
func (h *PortfolioHandler) ListItems(c *fiber.Ctx) error {
	items, err := h.portfolioService.List(c.Context(), false)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list portfolio")
	}

	return c.JSON(items)
}

// DeleteItem godoc
// @Summary Delete a portfolio item and its images
// @Tags portfolio
// @Param id path string true "Portfolio item ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/portfolio/{id} [delete]
func (h *PortfolioHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid portfolio item ID",
		})
	}

	if err := h.portfolioService.Delete(c.Context(), id); err != nil {
		return respondError(c, h.logger, err, "Failed to delete portfolio item")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PublicList godoc
// @Summary Public portfolio
// @Description Client contacts are omitted
// @Tags public
// @Produce json
// @Success 200 {object} dto.PortfolioListResponse
// @Router /public/portfolio [get]
func (h *PortfolioHandler) PublicList(c *fiber.Ctx) error {
	items, err := h.portfolioService.List(c.Context(), true)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list portfolio")
	}

	return c.JSON(items)
}

// PublicItem godoc
// @Summary Shared portfolio item
// @Tags public
// @Produce json
// @Param shareId path string true "Public share ID"
// @Success 200 {object} dto.PortfolioItemResponse
// @Failure 404 {object} map[string]string
// @Router /public/portfolio/{shareId} [get]
func (h *PortfolioHandler) PublicItem(c *fiber.Ctx) error {
	item, err := h.portfolioService.GetShared(c.Context(), c.Params("shareId"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to get portfolio item")
	}

	return c.JSON(item)
}
