package handler

import (
	"errors"
	"fmt"

	"wesee/internal/delivery/http/dto"
	"wesee/internal/delivery/http/middleware"
	"wesee/internal/domain/profile"
	"wesee/internal/pkg/response"
	"wesee/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ProfileHandler struct {
	uc usecase.ProfileUsecase
}

func NewProfileHandler(uc usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/profiles", h.Get)
}

// Get looks up a stored profile by the linkedin_url query parameter.
func (h *ProfileHandler) Get(c fiber.Ctx) error {
	url, err := profileURLQuery(c)
	if err != nil {
		return err
	}

	doc, err := h.uc.Fetch(c.Context(), url)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "No data found for this LinkedIn URL in the database", nil, err)
		}
		return toAppError(err)
	}

	return response.JSON(c, fiber.StatusOK, dto.ProfileResponse{Success: true, LinkedInURL: url, Data: doc})
}

func profileURLQuery(c fiber.Ctx) (string, error) {
	url := profile.NormalizeURL(c.Query("linkedin_url"))
	if url == "" {
		return "", middleware.NewAppError(fiber.StatusBadRequest, "linkedin_url is required", nil, nil)
	}
	if !profile.IsProfileURL(url) {
		return "", middleware.NewAppError(fiber.StatusBadRequest,
			fmt.Sprintf("Invalid LinkedIn URL. Must contain '%s'", profile.PathMarker), nil, nil)
	}
	return url, nil
}
