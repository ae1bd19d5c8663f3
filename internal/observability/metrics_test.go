package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/internal/observability"
)

func scrape(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMiddleware_RegistraPeticion(t *testing.T) {
	m := observability.NewMetrics()
	app := fiber.New()
	app.Get("/metrics", m.Handler())
	app.Use(m.Middleware())
	app.Get("/api/contracts/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTeapot)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/contracts/abc", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	body := scrape(t, app)
	assert.Contains(t, body, `implementacion_http_requests_total{code="418",method="GET",route="/api/contracts/:id"} 1`)
	assert.Contains(t, body, `implementacion_http_request_duration_seconds_bucket{method="GET",route="/api/contracts/:id"`)
}

func TestRejected_CuentaPorCodigo(t *testing.T) {
	m := observability.NewMetrics()
	app := fiber.New()
	app.Get("/metrics", m.Handler())

	m.Rejected("CEILING_EXCEEDED")
	m.Rejected("CEILING_EXCEEDED")
	m.Rejected("HAS_DEPENDENTS")

	body := scrape(t, app)
	assert.Contains(t, body, `implementacion_validation_rejections_total{code="CEILING_EXCEEDED"} 2`)
	assert.Contains(t, body, `implementacion_validation_rejections_total{code="HAS_DEPENDENTS"} 1`)
}

func TestMetricsNil_NoFalla(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() { m.Rejected("X") })

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
