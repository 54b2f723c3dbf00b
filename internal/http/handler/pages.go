package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"recipebox/internal/form"
	"recipebox/internal/http/middleware"
	"recipebox/internal/model"
	"recipebox/internal/service"
	"recipebox/internal/validation"
	"recipebox/internal/view"
)

const (
	toastCookie   = "recipebox_toast"
	toastUploaded = "recipe_uploaded"

	imageRequiredMessage = "Choose an image to upload"
	imageFailedMessage   = "There was an issue uploading your picture. Try again later"
)

var errNoImage = errors.New("no image in request")

type pageHandler struct {
	svc      service.RecipeService
	views    *view.Renderer
	validate *validation.Validator
	log      *zap.Logger
}

func (h *pageHandler) render(c *fiber.Ctx, status int, fn func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

func (h *pageHandler) renderForm(c *fiber.Ctx, status int, p view.FormPage) error {
	return h.render(c, status, func(w io.Writer) error { return h.views.NewRecipe(w, p) })
}

// Home renders the recipe grid. A failed fetch renders an empty grid and is only logged.
func (h *pageHandler) Home(c *fiber.Ctx) error {
	listing := view.NewListing(nil)
	res, err := h.svc.List(c.UserContext())
	if err != nil {
		h.log.Warn("recipe_list_failed",
			zap.String("request_id", middleware.RequestIDFromContext(c.UserContext())),
			zap.Error(err),
		)
	} else {
		listing = view.NewListing(res.Items)
	}
	listing.Toast = popToast(c)
	return h.render(c, fiber.StatusOK, func(w io.Writer) error { return h.views.Home(w, listing) })
}

// NewRecipe renders an empty form; ?modal=image opens the picture modal.
func (h *pageHandler) NewRecipe(c *fiber.Ctx) error {
	f := form.New(h.svc, h.validate)
	if c.Query("modal") == "image" {
		f.OpenImageModal()
	}
	return h.renderForm(c, fiber.StatusOK, view.NewFormPage(f, nil))
}

// SubmitRecipeForm applies one form action and re-renders, or redirects home
// after a successful submit.
func (h *pageHandler) SubmitRecipeForm(c *fiber.Ctx) error {
	var (
		toast *form.Toast
		dest  string
	)
	f := h.formFromRequest(c,
		form.WithNotifier(func(t form.Toast) { toast = &t }),
		form.WithNavigator(func(p string) { dest = p }),
	)

	status := fiber.StatusOK
	action := c.FormValue("action", "submit")
	switch {
	case action == "add_ingredient":
		f.AddIngredient()
	case action == "add_instruction":
		f.AddInstruction()
	case strings.HasPrefix(action, "remove_ingredient:"):
		if err := removeAt(action, f.RemoveIngredient); err != nil && !errors.Is(err, form.ErrLastEntry) {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid entry index")
		}
	case strings.HasPrefix(action, "remove_instruction:"):
		if err := removeAt(action, f.RemoveInstruction); err != nil && !errors.Is(err, form.ErrLastEntry) {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid entry index")
		}
	case action == "open_image":
		f.OpenImageModal()
	case action == "close_image":
		f.CloseImageModal()
	case action == "submit":
		_, err := f.Submit(c.UserContext())
		switch {
		case err == nil:
			setToast(c)
			return c.Redirect(dest, fiber.StatusSeeOther)
		case errors.Is(err, form.ErrInvalid):
			status = fiber.StatusUnprocessableEntity
		default:
			logFailure(c, h.log, "recipe_submit_failed", err)
			status = fiber.StatusInternalServerError
		}
	default:
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "unknown form action")
	}

	return h.renderForm(c, status, view.NewFormPage(f, toast))
}

// UploadRecipeImage is the picture modal's submit: it uploads right away and
// re-renders the form with the picture selected.
func (h *pageHandler) UploadRecipeImage(c *fiber.Ctx) error {
	f := h.formFromRequest(c)
	f.OpenImageModal()

	page := func(status int, imageErr string) error {
		p := view.NewFormPage(f, nil)
		p.ImageError = imageErr
		return h.renderForm(c, status, p)
	}

	upload, closeFn, err := imageFromRequest(c)
	if err != nil {
		return page(fiber.StatusBadRequest, imageRequiredMessage)
	}
	defer closeFn()

	if _, err := f.ImagePicker(h.svc).Select(c.UserContext(), upload); err != nil {
		logFailure(c, h.log, "image_upload_failed", err)
		return page(fiber.StatusInternalServerError, imageFailedMessage)
	}
	return page(fiber.StatusOK, "")
}

// Recipe renders a single recipe.
func (h *pageHandler) Recipe(c *fiber.Ctx) error {
	rec, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return fiber.ErrNotFound
		}
		logFailure(c, h.log, "recipe_get_failed", err)
		return err
	}
	return h.render(c, fiber.StatusOK, func(w io.Writer) error {
		return h.views.Recipe(w, view.DetailPage{Recipe: rec})
	})
}

func (h *pageHandler) formFromRequest(c *fiber.Ctx, opts ...form.Option) *form.Form {
	f := form.New(h.svc, h.validate, opts...)
	f.Name = c.FormValue("name")
	f.Description = c.FormValue("description")
	f.Ingredients = form.NewFieldList(formValues(c, "ingredients")...)
	f.Instructions = form.NewFieldList(formValues(c, "instructions")...)
	if u := c.FormValue("img_url"); u != "" {
		f.SaveImageURL(u)
	}
	return f
}

func removeAt(action string, remove func(int) error) error {
	_, idx, _ := strings.Cut(action, ":")
	i, err := strconv.Atoi(idx)
	if err != nil {
		return form.ErrIndexOutOfRange
	}
	return remove(i)
}

// formValues returns every value posted under key, in order.
func formValues(c *fiber.Ctx, key string) []string {
	if isMultipart(c) {
		mf, err := c.MultipartForm()
		if err != nil {
			return nil
		}
		return mf.Value[key]
	}
	var out []string
	for _, v := range c.Request().PostArgs().PeekMulti(key) {
		out = append(out, string(v))
	}
	return out
}

// imageFromRequest reads the "image" file or, failing that, an
// "image_data_url" field. closeFn is non-nil whenever err is nil.
func imageFromRequest(c *fiber.Ctx) (model.ImageUpload, func(), error) {
	if isMultipart(c) {
		if fh, err := c.FormFile("image"); err == nil && fh.Size > 0 {
			f, err := fh.Open()
			if err != nil {
				return model.ImageUpload{}, nil, fmt.Errorf("open image: %w", err)
			}
			ct := fh.Header.Get("Content-Type")
			if ct == "" {
				ct = "application/octet-stream"
			}
			return model.ImageUpload{
				Reader:      f,
				Filename:    fh.Filename,
				ContentType: ct,
				Size:        fh.Size,
			}, func() { _ = f.Close() }, nil
		}
	}
	if d := c.FormValue("image_data_url"); d != "" {
		img, err := form.DecodeDataURL(d, "image")
		if err != nil {
			return model.ImageUpload{}, nil, err
		}
		return img, func() {}, nil
	}
	return model.ImageUpload{}, nil, errNoImage
}

func setToast(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     toastCookie,
		Value:    toastUploaded,
		Path:     "/",
		MaxAge:   60,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// popToast reads and clears the one-shot toast set before a redirect.
func popToast(c *fiber.Ctx) *form.Toast {
	if c.Cookies(toastCookie) != toastUploaded {
		return nil
	}
	c.ClearCookie(toastCookie)
	return &form.Toast{Description: form.SuccessMessage}
}
