package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"go.uber.org/zap"

	"recipebox/internal/service"
	"recipebox/internal/validation"
	"recipebox/internal/view"
)

// ImagesPath is where stored pictures are served from.
const ImagesPath = "/images"

// Deps are the collaborators the routes are wired with.
type Deps struct {
	Recipes   service.RecipeService
	Views     *view.Renderer
	Validator *validation.Validator
	Log       *zap.Logger
	// Health reports whether the document store is reachable.
	Health func(ctx context.Context) error
}

// RegisterRoutes attaches pages, the JSON API and the probes to app.
func RegisterRoutes(app *fiber.App, d Deps) {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	app.Get("/health", HealthCheck(d.Health))
	app.Get("/healthz", LivenessProbe())

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(view.Static()),
		MaxAge: 3600,
	}))

	pages := &pageHandler{svc: d.Recipes, views: d.Views, validate: d.Validator, log: log}
	app.Get("/", pages.Home)
	app.Get("/recipe/new", pages.NewRecipe)
	app.Post("/recipe/new", pages.SubmitRecipeForm)
	app.Post("/recipe/new/image", pages.UploadRecipeImage)
	app.Get("/recipe/:id", pages.Recipe)
	app.Get(ImagesPath+"/*", ServeImage(d.Recipes, log))

	api := app.Group("/api")
	api.Get("/recipes", ListRecipes(d.Recipes, log))
	api.Get("/recipes/:id", GetRecipe(d.Recipes, log))
	api.Post("/recipes", CreateRecipe(d.Recipes, log))
	api.Post("/images", UploadImage(d.Recipes, log))
}

// HealthCheck godoc
// @Summary Readiness probe
// @Description Pings the document store.
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 while the process is up.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
