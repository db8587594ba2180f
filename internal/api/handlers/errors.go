package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"reforma-budgets/internal/models"
	"reforma-budgets/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var kindStatus = map[models.ErrorKind]int{
	models.KindInvalidAttachmentType: fiber.StatusUnsupportedMediaType,
	models.KindDocumentParse:         fiber.StatusUnprocessableEntity,
	models.KindContentNotReady:       fiber.StatusInternalServerError,
	models.KindStorage:               fiber.StatusBadGateway,
	models.KindPersistence:           fiber.StatusBadGateway,
}

var sentinelStatus = []struct {
	err    error
	status int
}{
	{service.ErrDraftNotFound, fiber.StatusNotFound},
	{service.ErrBudgetNotFound, fiber.StatusNotFound},
	{service.ErrPortfolioNotFound, fiber.StatusNotFound},
	{service.ErrNoAttachment, fiber.StatusNotFound},
	{service.ErrPipelineBusy, fiber.StatusConflict},
	{service.ErrAttachmentTooLarge, fiber.StatusRequestEntityTooLarge},
	{service.ErrInvalidDate, fiber.StatusBadRequest},
	{service.ErrInvalidStatus, fiber.StatusBadRequest},
	{service.ErrTitleRequired, fiber.StatusBadRequest},
	{service.ErrNoImages, fiber.StatusBadRequest},
	{service.ErrInvalidImage, fiber.StatusBadRequest},
}

// respondError maps service and pipeline errors to a status and a JSON body.
// Anything unknown is logged and answered with a 500 carrying fallback.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, fallback string) error {
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		status := kindStatus[pe.Kind]
		if status >= fiber.StatusInternalServerError {
			logger.Error(fallback, zap.String("kind", string(pe.Kind)), zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{
			"error": pe.Message,
			"kind":  pe.Kind,
		})
	}

	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return c.Status(s.status).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Request canceled",
		})
	}

	logger.Error(fallback, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fallback,
	})
}

func parseID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(param))
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return io.ReadAll(src)
}
