package handler

import (
	"errors"

	"wesee/internal/delivery/http/middleware"
	"wesee/internal/domain/profile"
	"wesee/internal/domain/scraper"
	"wesee/internal/pkg/response"
	"wesee/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

// toAppError maps usecase and domain errors onto HTTP errors.
func toAppError(err error) error {
	var verr *usecase.ValidationError
	if errors.As(err, &verr) {
		return middleware.NewAppError(fiber.StatusBadRequest, validationMessage(verr), verr.Fields, err)
	}

	var missing *usecase.MissingProfileError
	if errors.As(err, &missing) {
		return middleware.NewAppError(fiber.StatusNotFound, missing.Error(), nil, err)
	}

	switch {
	case errors.Is(err, profile.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Profile not found", nil, err)
	case errors.Is(err, scraper.ErrNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Scraper credential not found", nil, err)
	case errors.Is(err, scraper.ErrDuplicateEmail):
		return middleware.NewAppError(fiber.StatusConflict, "Scraper email already registered", nil, err)
	}
	return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
}

func validationMessage(verr *usecase.ValidationError) string {
	if len(verr.Fields) == 1 {
		for field, reason := range verr.Fields {
			return field + " " + reason
		}
	}
	return "Validation failed"
}

func badJSON(err error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, "Request body must be a JSON object", nil, err)
}
