package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/Implementacion-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Implementacion-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "implementacion-test"
)

// tokenForRole genera un JWT válido una hora con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, 60)
	require.NoError(t, err)
	return "Bearer " + tok
}

// writeGuardApp reproduce la política de escritura del router: solo admin y manager
// pueden mutar líneas de ejecución.
func writeGuardApp() *fiber.App {
	app := fiber.New()
	app.Patch("/api/document-lines/:id",
		apphttp.AuthMiddleware(testJWTSecret, testIssuer),
		apphttp.RequireRole(pkgjwt.RoleAdmin, pkgjwt.RoleManager),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"id": c.Params("id"), "role": apphttp.GetRole(c)})
		},
	)
	return app
}

func patchLine(t *testing.T, app *fiber.App, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/api/document-lines/dl-1", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// ──────────────────────────────────────────────────────────────────────────────
// Política de escritura
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_PoliticaDeEscritura(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, pkgjwt.RoleManager, testIssuer, -5)
	require.NoError(t, err)
	otherIssuer, err := pkgjwt.Generate(testJWTSecret, testUserID, pkgjwt.RoleManager, "otro-emisor", 60)
	require.NoError(t, err)
	otherSecret, err := pkgjwt.Generate("otra-clave", testUserID, pkgjwt.RoleManager, testIssuer, 60)
	require.NoError(t, err)

	cases := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"admin", tokenForRole(t, pkgjwt.RoleAdmin), http.StatusOK, `"role":"admin"`},
		{"manager", tokenForRole(t, pkgjwt.RoleManager), http.StatusOK, `"id":"dl-1"`},
		{"viewer", tokenForRole(t, pkgjwt.RoleViewer), http.StatusForbidden, "FORBIDDEN"},
		{"sin rol", tokenForRole(t, ""), http.StatusUnauthorized, "MISSING_ROLE"},
		{"sin cabecera", "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"esquema basic", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"expirado", "Bearer " + expired, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"otro emisor", "Bearer " + otherIssuer, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"otra clave", "Bearer " + otherSecret, http.StatusUnauthorized, "INVALID_TOKEN"},
	}
	app := writeGuardApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := patchLine(t, app, tc.header)
			assert.Equal(t, tc.wantCode, code)
			assert.Contains(t, body, tc.wantBody)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Claims en c.Locals
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_CargaUsuarioYRol(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret, testIssuer), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleViewer))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, pkgjwt.RoleViewer, body["role"])
}
