// Package form holds the recipe submission form: its field state, the flags
// that drive the page (loading overlay, image modal, selected picture) and the
// image picker that uploads a photo before the recipe itself is written.
//
// A Form is built per interaction and is not safe for concurrent use.
package form

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/model"
	"recipebox/internal/validation"
)

var (
	ErrInvalid    = errors.New("form has invalid fields")
	ErrSubmitting = errors.New("form is already submitting")
)

const (
	SuccessMessage = "Recipe uploaded successfully!"
	FailureMessage = "There was an issue uploading your recipe. Try again later"

	// HomePath is where a successful submission navigates to.
	HomePath = "/"
)

// State is the set of flags the page renders from.
type State struct {
	Loading      bool
	ImgSelected  bool
	Uploaded     bool
	ImgModalOpen bool
}

type Variant int

const (
	VariantDefault Variant = iota
	VariantDestructive
)

func (v Variant) String() string {
	if v == VariantDestructive {
		return "destructive"
	}
	return "default"
}

// Toast is a transient user notification.
type Toast struct {
	Description string
	Variant     Variant
}

// Creator writes a recipe whose image is already uploaded.
type Creator interface {
	Create(ctx context.Context, in *model.RecipeInput) (*model.Recipe, error)
}

// Uploader stores a picture and returns its URL.
type Uploader interface {
	UploadImage(ctx context.Context, img model.ImageUpload) (*model.Image, error)
}

type Option func(*Form)

// WithNotifier receives every toast the form emits.
func WithNotifier(fn func(Toast)) Option {
	return func(f *Form) { f.notify = fn }
}

// WithNavigator is called with the destination path after a successful submit.
func WithNavigator(fn func(path string)) Option {
	return func(f *Form) { f.navigate = fn }
}

// WithObserver is called with the new State after every transition.
func WithObserver(fn func(State)) Option {
	return func(f *Form) { f.observe = fn }
}

// Form is the recipe submission form.
type Form struct {
	Name         string
	Description  string
	Ingredients  *FieldList
	Instructions *FieldList
	ImgURL       string

	// Errors maps field paths to messages from the last validation.
	Errors validation.FieldErrors

	state    State
	creator  Creator
	validate *validation.Validator
	notify   func(Toast)
	navigate func(string)
	observe  func(State)
}

// New returns an empty form: one blank ingredient, one blank step, no image.
func New(creator Creator, v *validation.Validator, opts ...Option) *Form {
	f := &Form{
		Ingredients:  NewFieldList(),
		Instructions: NewFieldList(),
		creator:      creator,
		validate:     v,
		notify:       func(Toast) {},
		navigate:     func(string) {},
		observe:      func(State) {},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) State() State {
	return f.state
}

func (f *Form) transition(fn func(s *State)) {
	fn(&f.state)
	f.observe(f.state)
}

func (f *Form) OpenImageModal() {
	f.transition(func(s *State) { s.ImgModalOpen = true })
}

func (f *Form) CloseImageModal() {
	f.transition(func(s *State) { s.ImgModalOpen = false })
}

// SaveImageURL records the uploaded picture's URL. An empty url clears the selection.
func (f *Form) SaveImageURL(url string) {
	f.ImgURL = url
	f.transition(func(s *State) { s.ImgSelected = url != "" })
	if f.Errors.Has("img_url") {
		f.revalidate("img_url")
	}
}

func (f *Form) AddIngredient() {
	f.Ingredients.Append()
	f.revalidate("ingredients")
}

func (f *Form) RemoveIngredient(i int) error {
	if err := f.Ingredients.Remove(i); err != nil {
		return err
	}
	f.revalidate("ingredients")
	return nil
}

func (f *Form) AddInstruction() {
	f.Instructions.Append()
	f.revalidate("instructions")
}

func (f *Form) RemoveInstruction(i int) error {
	if err := f.Instructions.Remove(i); err != nil {
		return err
	}
	f.revalidate("instructions")
	return nil
}

// Input snapshots the current field values with surrounding whitespace trimmed.
func (f *Form) Input() *model.RecipeInput {
	in := &model.RecipeInput{
		Name:         f.Name,
		Description:  f.Description,
		Ingredients:  f.Ingredients.Values(),
		Instructions: f.Instructions.Values(),
		ImgURL:       f.ImgURL,
	}
	return in.Normalized()
}

// Validate runs the full schema and replaces Errors.
func (f *Form) Validate() bool {
	f.Errors = f.validate.Validate(f.Input())
	return len(f.Errors) == 0
}

func (f *Form) revalidate(field string) {
	if f.Errors == nil {
		f.Errors = validation.FieldErrors{}
	}
	f.Errors.Clear(field)
	for k, msg := range f.validate.Field(f.Input(), field) {
		f.Errors[k] = msg
	}
}

// Submit validates the form and writes the recipe. An invalid form returns
// ErrInvalid without contacting the store. On failure the image URL is kept so
// a retry does not upload the picture again.
func (f *Form) Submit(ctx context.Context) (*model.Recipe, error) {
	if f.state.Loading {
		return nil, ErrSubmitting
	}
	if !f.Validate() {
		return nil, ErrInvalid
	}

	f.transition(func(s *State) { s.Loading = true })
	rec, err := f.creator.Create(ctx, f.Input())
	if err != nil {
		f.transition(func(s *State) { s.Loading = false })
		f.notify(Toast{Description: FailureMessage, Variant: VariantDestructive})
		return nil, fmt.Errorf("submit recipe: %w", err)
	}

	f.transition(func(s *State) {
		s.Loading = false
		s.Uploaded = true
	})
	f.notify(Toast{Description: SuccessMessage})
	f.navigate(HomePath)
	return rec, nil
}
