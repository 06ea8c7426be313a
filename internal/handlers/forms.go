package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"blogpress/internal/slug"
)

// maxTitleLen is the longest title accepted, counted in runes.
const maxTitleLen = 255

var validate = validator.New(validator.WithRequiredStructEnabled())

// CategoryForm is the bound and trimmed admin category form.
type CategoryForm struct {
	Title string `validate:"required,max=255"`
}

// bindCategoryForm reads the form fields of a POST request.
func bindCategoryForm(r *http.Request) CategoryForm {
	return CategoryForm{Title: strings.TrimSpace(r.PostFormValue("title"))}
}

// fieldMessages maps validator tags to the messages shown under a field.
var fieldMessages = map[string]string{
	"required": "This value should not be blank.",
	"max":      fmt.Sprintf("This value is too long. It should have %d characters or less.", maxTitleLen),
}

// validateCategoryForm returns field errors keyed by form field name, or
// nil when the form is valid. The slug derived from the title must be
// non-empty and not used by any category other than exceptID. A non-nil
// error means the uniqueness lookup failed.
func validateCategoryForm(ctx context.Context, cats CategoryStore, form CategoryForm, exceptID int64) (map[string]string, error) {
	errs := map[string]string{}

	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate category form: %w", err)
		}
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			if _, seen := errs[field]; seen {
				continue
			}
			msg, ok := fieldMessages[fe.Tag()]
			if !ok {
				msg = "This value is not valid."
			}
			errs[field] = msg
		}
		return errs, nil
	}

	s := slug.Generate(form.Title)
	if s == "" {
		errs["title"] = "The title must contain at least one letter or digit."
		return errs, nil
	}

	taken, err := cats.SlugTaken(ctx, s, exceptID)
	if err != nil {
		return nil, err
	}
	if taken {
		// Slugs are derived, so a clash is reported on the title.
		errs["title"] = "This title was already used in another category."
		return errs, nil
	}

	return nil, nil
}
