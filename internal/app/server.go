package app

import (
	"context"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"recipebox/docs"
	"recipebox/internal/config"
	handlers "recipebox/internal/http/handler"
	"recipebox/internal/http/middleware"
	"recipebox/internal/service"
	"recipebox/internal/validation"
	"recipebox/internal/view"
)

// ServerDeps are what NewServer wires into the routes.
type ServerDeps struct {
	Recipes   service.RecipeService
	Validator *validation.Validator
	Health    func(ctx context.Context) error
	Log       *zap.Logger
	// Registry receives the HTTP metrics and backs /metrics.
	Registry *prometheus.Registry
}

// NewServer builds the Fiber app with middleware, metrics, Swagger UI and routes.
func NewServer(cfg *config.AppConfig, d ServerDeps) (*fiber.App, error) {
	views, err := view.New()
	if err != nil {
		return nil, err
	}

	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, err
	}

	limit := cfg.BodyLimitMB
	if limit <= 0 {
		limit = 10
	}
	// Immutable: form values and route params end up in cached recipes, so
	// they must not alias fasthttp's pooled buffers.
	app := fiber.New(fiber.Config{
		AppName:      "recipebox",
		BodyLimit:    limit * 1024 * 1024,
		Immutable:    true,
		ErrorHandler: handlers.ErrorHandler(),
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(d.Log))
	app.Use(otelfiber.Middleware())
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// SwaggerInfo is package state. Set it once, before any request reads it.
	docs.SwaggerInfo.Host = cfg.AppHost
	app.Get("/swagger/*", swagger.HandlerDefault)

	handlers.RegisterRoutes(app, handlers.Deps{
		Recipes:   d.Recipes,
		Views:     views,
		Validator: d.Validator,
		Log:       d.Log,
		Health:    d.Health,
	})

	return app, nil
}
