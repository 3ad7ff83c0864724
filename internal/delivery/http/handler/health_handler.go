package handler

import (
	"context"
	"sort"
	"time"

	"wesee/internal/delivery/http/dto"
	"wesee/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// Check pings one dependency.
type Check func(ctx context.Context) error

// HealthHandler reports dependency health. Required checks turn the response into a 503;
// optional ones are reported but leave the service healthy.
type HealthHandler struct {
	required map[string]Check
	optional map[string]Check
	timeout  time.Duration
}

func NewHealthHandler(required, optional map[string]Check) *HealthHandler {
	return &HealthHandler{required: required, optional: optional, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	res := dto.HealthResponse{Status: "ok", Checks: map[string]string{}}
	for _, name := range sortedKeys(h.required) {
		if err := h.required[name](ctx); err != nil {
			res.Checks[name] = "unavailable"
			res.Status = "unavailable"
			continue
		}
		res.Checks[name] = "ok"
	}
	for _, name := range sortedKeys(h.optional) {
		if err := h.optional[name](ctx); err != nil {
			res.Checks[name] = "degraded"
			if res.Status == "ok" {
				res.Status = "degraded"
			}
			continue
		}
		res.Checks[name] = "ok"
	}

	status := fiber.StatusOK
	if res.Status == "unavailable" {
		status = fiber.StatusServiceUnavailable
	}
	return response.JSON(c, status, res)
}

func sortedKeys(m map[string]Check) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
