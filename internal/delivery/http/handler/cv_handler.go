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

type CVHandler struct {
	dispatch usecase.TaskDispatchUsecase
	status   usecase.TaskStatusUsecase
}

func NewCVHandler(dispatch usecase.TaskDispatchUsecase, status usecase.TaskStatusUsecase) *CVHandler {
	return &CVHandler{dispatch: dispatch, status: status}
}

func (h *CVHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/cv", h.Create)
	r.Get("/cv/status/:task_id", h.Status)
}

func (h *CVHandler) Create(c fiber.Ctx) error {
	var req usecase.CVRequest
	if err := c.Bind().Body(&req); err != nil {
		return badJSON(err)
	}

	rec, err := h.dispatch.DispatchCV(c.Context(), req)
	if err != nil {
		return toAppError(err)
	}

	return response.JSON(c, fiber.StatusCreated, dto.CVTaskCreatedResponse{
		TaskID:  rec.TaskID,
		Status:  string(rec.Status),
		Message: "CV creation task started successfully",
	})
}

func (h *CVHandler) Status(c fiber.Ctx) error {
	taskID := c.Params("task_id")

	rec, err := h.status.Status(c.Context(), task.KindCV, taskID)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, fmt.Sprintf("CV task with ID %s not found", taskID), nil, err)
		}
		return toAppError(err)
	}

	return response.JSON(c, fiber.StatusOK, dto.NewCVTaskStatusResponse(rec))
}
