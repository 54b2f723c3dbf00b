// Package view renders the server-side pages from embedded templates.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"recipebox/internal/form"
	"recipebox/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	pageHome      = "home.html"
	pageNewRecipe = "recipe_new.html"
	pageRecipe    = "recipe.html"
)

// Card is one tile of the recipe grid.
type Card struct {
	ID     string
	Name   string
	ImgURL string
	Href   string
}

// Listing is the home page grid.
type Listing struct {
	Cards []Card
	Toast *form.Toast
}

// NewListing builds one card per recipe, in the given order.
func NewListing(recipes []model.Recipe) Listing {
	cards := make([]Card, 0, len(recipes))
	for _, r := range recipes {
		cards = append(cards, Card{
			ID:     r.ID,
			Name:   r.Name,
			ImgURL: r.ImgURL,
			Href:   "/recipe/" + r.ID,
		})
	}
	return Listing{Cards: cards}
}

// FormPage is the new-recipe page.
type FormPage struct {
	Form       *form.Form
	State      form.State
	Toast      *form.Toast
	ImageError string
}

// NewFormPage snapshots f for rendering.
func NewFormPage(f *form.Form, toast *form.Toast) FormPage {
	return FormPage{Form: f, State: f.State(), Toast: toast}
}

// DetailPage is a single recipe.
type DetailPage struct {
	Recipe *model.Recipe
	Toast  *form.Toast
}

// Renderer holds the parsed pages. Safe for concurrent use.
type Renderer struct {
	pages map[string]*template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"entryKey": func(field string, i int) string {
			return fmt.Sprintf("%s[%d]", field, i)
		},
		"fieldError": func(errs map[string]string, key string) string {
			return errs[key]
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
	}
}

// New parses every page against the shared layout.
func New() (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, page := range []string{pageHome, pageNewRecipe, pageRecipe} {
		t, err := template.New(page).Funcs(funcs()).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

func (r *Renderer) render(w io.Writer, page string, data any) error {
	if err := r.pages[page].ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	return nil
}

func (r *Renderer) Home(w io.Writer, l Listing) error {
	return r.render(w, pageHome, l)
}

func (r *Renderer) NewRecipe(w io.Writer, p FormPage) error {
	return r.render(w, pageNewRecipe, p)
}

func (r *Renderer) Recipe(w io.Writer, p DetailPage) error {
	return r.render(w, pageRecipe, p)
}

// Static returns the stylesheet tree served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
