package handler

import (
	"errors"
	"fmt"

	"wesee/internal/delivery/http/dto"
	"wesee/internal/delivery/http/middleware"
	"wesee/internal/domain/task"
	"wesee/internal/pkg/response"
	"wesee/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ScrapeHandler struct {
	dispatch usecase.TaskDispatchUsecase
	status   usecase.TaskStatusUsecase
}

func NewScrapeHandler(dispatch usecase.TaskDispatchUsecase, status usecase.TaskStatusUsecase) *ScrapeHandler {
	return &ScrapeHandler{dispatch: dispatch, status: status}
}

func (h *ScrapeHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/scrape", h.Create)
	r.Get("/scrape/status/:task_id", h.Status)
}

func (h *ScrapeHandler) Create(c fiber.Ctx) error {
	var req usecase.ScrapeRequest
	if err := c.Bind().Body(&req); err != nil {
		return badJSON(err)
	}

	rec, err := h.dispatch.DispatchScrape(c.Context(), req)
	if err != nil {
		return toAppError(err)
	}

	return response.JSON(c, fiber.StatusAccepted, dto.ScrapeTaskCreatedResponse{
		Success:   true,
		TaskID:    rec.TaskID,
		Message:   "Scraping task started. Poll status_url for the result.",
		StatusURL: c.BaseURL() + "/scrape/status/" + rec.TaskID + "/",
	})
}

func (h *ScrapeHandler) Status(c fiber.Ctx) error {
	taskID := c.Params("task_id")

	rec, err := h.status.Status(c.Context(), task.KindScrape, taskID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, fmt.Sprintf("Scrape task with ID %s not found", taskID), nil, err)
		}
		return toAppError(err)
	}

	return response.JSON(c, fiber.StatusOK, dto.NewScrapeTaskStatusResponse(rec))
}
