package api

import (
	"time"

	"reforma-budgets/docs"
	"reforma-budgets/internal/api/handlers"
	"reforma-budgets/pkg/auth"
	"reforma-budgets/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Drafts    *handlers.DraftHandler
	Budgets   *handlers.BudgetHandler
	Settings  *handlers.SettingsHandler
	Portfolio *handlers.PortfolioHandler
}

type RouterConfig struct {
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AccessLogs   bool
}

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	cfg RouterConfig,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	if cfg.AccessLogs {
		app.Use(logger.New())
	}

	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public routes
	public := app.Group("/public")
	public.Get("/portfolio", h.Portfolio.PublicList)
	public.Get("/portfolio/:shareId", h.Portfolio.PublicItem)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	drafts := protected.Group("/drafts")
	drafts.Post("", h.Drafts.CreateDraft)
	drafts.Get("/:id", h.Drafts.GetDraft)
	drafts.Patch("/:id", h.Drafts.UpdateDraft)
	drafts.Put("/:id/attachment", h.Drafts.SetAttachment)
	drafts.Get("/:id/attachment", h.Drafts.GetAttachment)
	drafts.Delete("/:id/attachment", h.Drafts.RemoveAttachment)
	drafts.Post("/:id/submit", h.Drafts.SubmitDraft)

	budgets := protected.Group("/budgets")
	budgets.Get("", h.Budgets.ListBudgets)
	budgets.Get("/:id", h.Budgets.GetBudget)
	budgets.Patch("/:id/status", h.Budgets.UpdateStatus)
	budgets.Delete("/:id", h.Budgets.DeleteBudget)

	settings := protected.Group("/settings")
	settings.Get("", h.Settings.GetSettings)
	settings.Put("", h.Settings.UpdateSettings)
	settings.Put("/logo", h.Settings.UploadLogo)

	portfolio := protected.Group("/portfolio")
	portfolio.Post("", h.Portfolio.CreateItem)
	portfolio.Get("", h.Portfolio.ListItems)
	portfolio.Delete("/:id", h.Portfolio.DeleteItem)

	appLogger.Debug("Routes registered", zap.Int("handlers", int(app.HandlersCount())))

	return app
}
