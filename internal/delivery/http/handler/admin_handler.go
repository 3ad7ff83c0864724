package handler

import (
	"strconv"

	"wesee/internal/delivery/http/dto"
	"wesee/internal/delivery/http/middleware"
	"wesee/internal/domain/profile"
	"wesee/internal/pkg/response"
	"wesee/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

// AdminHandler manages scraper credentials and stored profiles. Mount it behind the auth middleware.
type AdminHandler struct {
	scrapers usecase.ScraperCredentialUsecase
	profiles usecase.ProfileUsecase
	log      zerolog.Logger
}

func NewAdminHandler(scrapers usecase.ScraperCredentialUsecase, profiles usecase.ProfileUsecase, l zerolog.Logger) *AdminHandler {
	return &AdminHandler{scrapers: scrapers, profiles: profiles, log: l}
}

func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/scrapers", h.ListScrapers)
	r.Post("/scrapers", h.AddScraper)
	r.Delete("/scrapers/:id", h.RemoveScraper)
	r.Put("/profiles", h.ImportProfile)
	r.Delete("/profiles", h.DeleteProfile)
}

func operator(c fiber.Ctx) string {
	op, _ := c.Locals(middleware.CtxOperatorKey).(string)
	return op
}

func (h *AdminHandler) ListScrapers(c fiber.Ctx) error {
	accounts, err := h.scrapers.List(c.Context())
	if err != nil {
		return toAppError(err)
	}
	return response.JSON(c, fiber.StatusOK, dto.NewScraperListResponse(accounts))
}

func (h *AdminHandler) AddScraper(c fiber.Ctx) error {
	var req usecase.AddScraperRequest
	if err := c.Bind().Body(&req); err != nil {
		return badJSON(err)
	}

	acc, err := h.scrapers.Add(c.Context(), req)
	if err != nil {
		return toAppError(err)
	}
	h.log.Info().Str("operator", operator(c)).Int64("scraper_id", acc.ID).Msg("admin added scraper")
	return response.JSON(c, fiber.StatusCreated, dto.NewScraperResponse(acc))
}

func (h *AdminHandler) RemoveScraper(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "id must be a positive integer", nil, err)
	}

	if err := h.scrapers.Remove(c.Context(), id); err != nil {
		return toAppError(err)
	}
	h.log.Info().Str("operator", operator(c)).Int64("scraper_id", id).Msg("admin removed scraper")
	return c.SendStatus(fiber.StatusNoContent)
}

// ImportProfile stores a profile document supplied in the request body.
func (h *AdminHandler) ImportProfile(c fiber.Ctx) error {
	doc, err := usecase.DecodeProfile(c.Body())
	if err != nil {
		return toAppError(err)
	}
	doc.LinkedInURL = profile.NormalizeURL(doc.LinkedInURL)

	id, err := h.profiles.Upsert(c.Context(), doc)
	if err != nil {
		return toAppError(err)
	}
	h.log.Info().Str("operator", operator(c)).Str("linkedin_url", doc.LinkedInURL).Msg("admin imported profile")
	return response.JSON(c, fiber.StatusOK, dto.ProfileSavedResponse{ProfileID: id, LinkedInURL: doc.LinkedInURL})
}

func (h *AdminHandler) DeleteProfile(c fiber.Ctx) error {
	url, err := profileURLQuery(c)
	if err != nil {
		return err
	}

	if err := h.profiles.Delete(c.Context(), url); err != nil {
		return toAppError(err)
	}
	h.log.Info().Str("operator", operator(c)).Str("linkedin_url", url).Msg("admin deleted profile")
	return c.SendStatus(fiber.StatusNoContent)
}
