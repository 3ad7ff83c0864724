package usecase

import (
	"reflect"
	"strings"

	"wesee/internal/domain/profile"

	"github.com/go-playground/validator/v10"
)

const tagLinkedInProfile = "linkedin_profile"

// NewValidator returns a validator that reports JSON field names and knows the
// linkedin_profile tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation(tagLinkedInProfile, func(fl validator.FieldLevel) bool {
		return profile.IsProfileURL(fl.Field().String())
	})
	return v
}
