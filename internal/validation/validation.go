// Package validation wraps go-playground/validator with the recipe rules and
// turns its errors into per-field, user-facing messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var lettersSpaces = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// FieldErrors maps a JSON field path (e.g. "name", "ingredients[0]") to a message.
type FieldErrors map[string]string

// Error implements error so FieldErrors can travel through error returns.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

// Has reports whether the field, or any entry below it, has an error.
func (fe FieldErrors) Has(field string) bool {
	for k := range fe {
		if k == field || strings.HasPrefix(k, field+"[") {
			return true
		}
	}
	return false
}

// Clear drops the field and every entry below it.
func (fe FieldErrors) Clear(field string) {
	for k := range fe {
		if k == field || strings.HasPrefix(k, field+"[") {
			delete(fe, k)
		}
	}
}

// Validator is safe for concurrent use; build it once and share it.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the custom recipe rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("letters_spaces", func(fl validator.FieldLevel) bool {
		return lettersSpaces.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("min_words", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(strings.Fields(fl.Field().String())) >= n
	})
	return &Validator{v: v}
}

// Validate checks s against its validate tags. A nil result means s is valid.
func (v *Validator) Validate(s any) FieldErrors {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		// Keep only the first failing rule per field, matching the order of the tag.
		if _, ok := out[field]; ok {
			continue
		}
		out[field] = message(fe)
	}
	return out
}

// Field validates a single struct field (JSON name) and returns its errors,
// including those of its list entries.
func (v *Validator) Field(s any, field string) FieldErrors {
	all := v.Validate(s)
	out := FieldErrors{}
	for k, msg := range all {
		if k == field || strings.HasPrefix(k, field+"[") {
			out[k] = msg
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "img_url" {
			return "Must select an image"
		}
		return "Required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must have at least %s %s", fe.Param(), plural(fe.Param(), "entry", "entries"))
		}
		return fmt.Sprintf("Must be at least %s %s", fe.Param(), plural(fe.Param(), "character", "characters"))
	case "letters_spaces":
		return "Can only contain letters and spaces"
	case "min_words":
		return fmt.Sprintf("Must be at least %s words", fe.Param())
	default:
		return "Invalid value"
	}
}

func plural(n, one, many string) string {
	if n == "1" {
		return one
	}
	return many
}
