package editor

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
)

// StorageScheme prefixes object keys that still have to be resolved to a
// download URL.
const StorageScheme = "storage://"

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("media_url", func(fl validator.FieldLevel) bool {
		return isMediaURL(fl.Field().String())
	})
	return v
}

// isMediaURL accepts an empty value (clears the field), an absolute web URL
// or a storage reference.
func isMediaURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	if strings.HasPrefix(s, StorageScheme) {
		return len(s) > len(StorageScheme)
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// checkFields validates fields before anything is sent to the backend.
// requireTitle is set for creates.
func (c *Coordinator) checkFields(fields models.LessonFields, requireTitle bool) error {
	if requireTitle && fields.Title == nil {
		return &app_errors.ValidationError{Field: models.FieldTitle, Reason: "is required"}
	}
	if fields.Title != nil && strings.TrimSpace(*fields.Title) == "" {
		return &app_errors.ValidationError{Field: models.FieldTitle, Reason: "must not be empty"}
	}

	if err := c.validate.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &app_errors.ValidationError{Field: fe.Field(), Reason: reason(fe)}
		}
		return &app_errors.ValidationError{Field: "fields", Reason: err.Error()}
	}
	return nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "media_url":
		return "must be an http(s) URL or a storage reference"
	}
	return "failed " + fe.Tag()
}

// normalize trims the title and URLs of the present fields.
func normalize(fields models.LessonFields) models.LessonFields {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		return models.StringPtr(strings.TrimSpace(*p))
	}
	fields.Title = trim(fields.Title)
	fields.VideoURL = trim(fields.VideoURL)
	fields.AudioURL = trim(fields.AudioURL)
	fields.PDFURL = trim(fields.PDFURL)
	fields.ImageURL = trim(fields.ImageURL)
	fields.AnswersURL = trim(fields.AnswersURL)
	return fields
}

// withDefaults fills every absent field with its empty value.
func withDefaults(fields models.LessonFields) models.LessonFields {
	return models.Lesson{}.Fields().Merge(fields)
}
