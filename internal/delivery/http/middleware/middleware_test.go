package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"wesee/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(NewAccessLogMiddleware(zerolog.Nop()).Middleware())
	app.Use(NewErrorMiddleware().Middleware())
	return app
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestErrorMiddleware_AppError(t *testing.T) {
	app := newTestApp()
	app.Get("/bad", func(c fiber.Ctx) error {
		return NewAppError(fiber.StatusBadRequest, "Invalid input", map[string]string{"linkedin_url": "required"}, nil)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "Invalid input", body["error"])
	assert.Equal(t, map[string]any{"linkedin_url": "required"}, body["details"])
}

func TestErrorMiddleware_HidesInternalErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/boom", func(c fiber.Ctx) error {
		return errors.New("dial tcp 10.0.0.1:5432: connection refused")
	})
	app.Get("/panic", func(c fiber.Ctx) error {
		panic("nil map")
	})

	for _, path := range []string{"/boom", "/panic"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode, path)
		body := decodeBody(t, resp.Body)
		assert.Equal(t, "internal server error", body["error"], path)
		_, hasDetails := body["details"]
		assert.False(t, hasDetails, path)
	}
}

func TestErrorMiddleware_FiberNotFound(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	_ = decodeBody(t, resp.Body)
}

func TestAccessLog_KeepsIncomingRequestID(t *testing.T) {
	app := newTestApp()
	app.Get("/ok", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest(fiber.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "rid-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "rid-123", resp.Header.Get(HeaderRequestID))
}

func TestAuthMiddleware(t *testing.T) {
	svc := jwt.NewHMACService("s3cret", time.Hour, "wesee")
	tok, err := svc.GenerateAdminToken("ops")
	require.NoError(t, err)

	app := newTestApp()
	app.Get("/admin", NewAuthMiddleware(svc).Middleware(), func(c fiber.Ctx) error {
		return c.SendString(fiber.Locals[string](c, CtxOperatorKey))
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + tok, fiber.StatusUnauthorized},
		{"garbage", "Bearer nope", fiber.StatusUnauthorized},
		{"valid", "Bearer " + tok, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.status == fiber.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "ops", string(b))
			}
		})
	}
}
