package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"recipebox/internal/http/middleware"
	"recipebox/internal/model"
	"recipebox/internal/service"
)

// logFailure records an upstream failure against the request it belongs to.
func logFailure(c *fiber.Ctx, log *zap.Logger, msg string, err error) {
	log.Error(msg,
		zap.String("request_id", middleware.RequestIDFromContext(c.UserContext())),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
}

// ListRecipes godoc
// @Summary List recipes
// @Description Returns every recipe in storage order.
// @Tags recipes
// @Produce json
// @Success 200 {object} service.RecipeListResult
// @Failure 500 {object} errorPayload
// @Router /api/recipes [get]
func ListRecipes(svc service.RecipeService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.List(c.UserContext())
		if err != nil {
			logFailure(c, log, "recipe_list_failed", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetRecipe godoc
// @Summary Get a recipe
// @Tags recipes
// @Produce json
// @Param id path string true "Recipe ID"
// @Success 200 {object} model.Recipe
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/recipes/{id} [get]
func GetRecipe(svc service.RecipeService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rec, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrIDRequired) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "recipe not found")
			}
			logFailure(c, log, "recipe_get_failed", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(rec)
	}
}

// UploadImage godoc
// @Summary Upload a recipe picture
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Picture"
// @Success 201 {object} model.Image
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/images [post]
func UploadImage(svc service.RecipeService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		upload, closeFn, err := imageFromRequest(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_REQUIRED", "image is required")
		}
		defer closeFn()

		img, err := svc.UploadImage(c.UserContext(), upload)
		if err != nil {
			logFailure(c, log, "image_upload_failed", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(img)
	}
}

// CreateRecipe godoc
// @Summary Create a recipe
// @Description JSON bodies reference an already uploaded picture through img_url.
// @Description Multipart bodies carry the fields plus an "image" file, which is uploaded first
// @Description and deleted again if the recipe cannot be written.
// @Tags recipes
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param recipe body model.RecipeInput false "Recipe"
// @Success 201 {object} model.Recipe
// @Failure 400 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/recipes [post]
func CreateRecipe(svc service.RecipeService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			rec *model.Recipe
			err error
		)
		if isMultipart(c) {
			in := &model.RecipeInput{
				Name:         c.FormValue("name"),
				Description:  c.FormValue("description"),
				Ingredients:  formValues(c, "ingredients"),
				Instructions: formValues(c, "instructions"),
			}
			upload, closeFn, imgErr := imageFromRequest(c)
			if imgErr != nil {
				return writeError(c, fiber.StatusBadRequest, "IMAGE_REQUIRED", "image is required")
			}
			defer closeFn()
			rec, err = svc.CreateWithImage(c.UserContext(), in, upload)
		} else {
			in := new(model.RecipeInput)
			if perr := c.BodyParser(in); perr != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
			rec, err = svc.Create(c.UserContext(), in)
		}

		if err != nil {
			var ie *service.InputError
			if errors.As(err, &ie) {
				return writeValidationError(c, ie.Fields)
			}
			logFailure(c, log, "recipe_create_failed", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ServeImage godoc
// @Summary Download a recipe picture
// @Description Streams a stored picture so image URLs stay valid without a public bucket.
// @Tags images
// @Produce octet-stream
// @Param key path string true "Object key, e.g. recipe_pictures/<uuid>.jpg"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /images/{key} [get]
func ServeImage(svc service.RecipeService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, info, err := svc.OpenImage(c.UserContext(), c.Params("*"))
		if err != nil {
			if errors.Is(err, service.ErrImageMissing) || errors.Is(err, service.ErrKeyRequired) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "image not found")
			}
			logFailure(c, log, "image_open_failed", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		ct := info.ContentType
		if ct == "" {
			ct = fiber.MIMEOctetStream
		}
		c.Set(fiber.HeaderContentType, ct)
		// Keys are random and never rewritten.
		c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
		if info.ETag != "" {
			c.Set(fiber.HeaderETag, info.ETag)
		}
		// The response closes rc once the body has been written.
		if info.Size > 0 {
			return c.SendStream(rc, int(info.Size))
		}
		return c.SendStream(rc)
	}
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}
