package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"wesee/internal/domain/profile"

	"github.com/go-playground/validator/v10"
)

// ValidationError carries per-field reasons for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// toValidationError converts codec and validator failures into a ValidationError.
// Other errors are returned unchanged.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fe *profile.FieldError
	if errors.As(err, &fe) {
		field := fe.Field
		if field == "" {
			field = "body"
		}
		return fieldError(field, fe.Reason)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := &ValidationError{Fields: make(map[string]string, len(verrs))}
		for _, fe := range verrs {
			out.Fields[fe.Field()] = describeTag(fe)
		}
		return out
	}
	return err
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case tagLinkedInProfile:
		return fmt.Sprintf("must be a valid LinkedIn profile URL (containing '%s')", profile.PathMarker)
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}
