package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Implementacion-api/internal/interfaces/http"
	"github.com/jhoicas/Implementacion-api/internal/observability"
	pkgjwt "github.com/jhoicas/Implementacion-api/pkg/jwt"
	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type apiClient struct {
	t     *testing.T
	app   *fiber.App
	token string
}

// newAPI monta la API completa sobre el almacén en memoria con un proyecto
// "F1" contratado y una línea de presupuesto "F1-B".
func newAPI(t *testing.T) *apiClient {
	t.Helper()
	store := memory.NewStore()
	coef := decimal.RequireFromString("0.2")
	store.AddFundingProject(entity.FundingProject{
		ID: "F1", Code: "PRJ-F1", Name: "Proyecto F1", Beneficiary: "Comuna Test",
		Status: entity.FundingStatusContracted, ContributionCoefficient: &coef,
	})
	store.AddBudgetLine(entity.BudgetLine{
		ID: "F1-B", FundingProjectID: "F1", Number: "1", Chapter: "4", Name: "Obras",
		EligibleBase: decimal.RequireFromString("1000"), EligibleVAT: decimal.RequireFromString("210"),
	})

	deps := implementation.Deps{
		Tx:       store,
		Repos:    store.Repositories(),
		Log:      logger.Nop(),
		Defaults: implementation.Defaults{Currency: "RON", VATRate: decimal.RequireFromString("21")},
	}
	engine := implementation.NewEngine(logger.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ImplementationUC: implementation.NewImplementationUseCase(deps, engine),
		ContractUC:       implementation.NewContractUseCase(deps, engine),
		DocumentUC:       implementation.NewDocumentUseCase(deps, engine),
		SettlementUC:     implementation.NewSettlementUseCase(deps, engine),
		StatementUC:      implementation.NewStatementUseCase(deps, engine, nil, nil),
		JWTSecret:        testJWTSecret,
		JWTIssuer:        testIssuer,
		Metrics:          observability.NewMetrics(),
		Log:              logger.Nop(),
	})
	return &apiClient{t: t, app: app, token: tokenForRole(t, pkgjwt.RoleManager)}
}

// call envía la petición y devuelve estado y cuerpo decodificado.
func (a *apiClient) call(method, path string, body any) (int, map[string]any) {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", a.token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (a *apiClient) mustCreate(path string, body any) map[string]any {
	a.t.Helper()
	status, out := a.call(http.MethodPost, path, body)
	require.Equalf(a.t, http.StatusCreated, status, "%s: %v", path, out)
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo y mapeo de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_LineaSinPresupuesto_Retorna422(t *testing.T) {
	api := newAPI(t)

	impl := api.mustCreate("/api/implementations", map[string]any{"funding_project_id": "F1"})
	implID := impl["id"].(string)

	status, _ := api.call(http.MethodPost, "/api/implementations/"+implID+"/sync/budget", nil)
	require.Equal(t, http.StatusOK, status)

	contract := api.mustCreate("/api/implementations/"+implID+"/contracts", map[string]any{
		"contract_name": "Obras", "contract_number": "C-1", "contract_date": "2025-03-01",
	})
	contractID := contract["id"].(string)

	status, errBody := api.call(http.MethodPost, "/api/contracts/"+contractID+"/lines", map[string]any{
		"name": "sin línea de presupuesto", "base_amount": "10",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "REQUIRED_REFERENCE", errBody["code"])
}

func TestRouter_TopeDocumentoRechazado_Retorna422YCuenta(t *testing.T) {
	api := newAPI(t)

	impl := api.mustCreate("/api/implementations", map[string]any{"funding_project_id": "F1"})
	implID := impl["id"].(string)
	status, _ := api.call(http.MethodPost, "/api/implementations/"+implID+"/sync/budget", nil)
	require.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/api/implementations/"+implID+"/budget", nil)
	req.Header.Set("Authorization", api.token)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	var lines []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lines))
	resp.Body.Close()
	require.Len(t, lines, 1)
	proxyID := lines[0]["budget_proxy_line_id"].(string)

	contract := api.mustCreate("/api/implementations/"+implID+"/contracts", map[string]any{
		"contract_name": "Obras", "contract_number": "C-1", "contract_date": "2025-03-01",
	})
	contractID := contract["id"].(string)
	cl := api.mustCreate("/api/contracts/"+contractID+"/lines", map[string]any{
		"budget_proxy_line_id": proxyID, "name": "Obra", "base_amount": "100",
	})
	clLine := cl["line"].(map[string]any)
	vat := decimal.RequireFromString(clLine["vat_amount"].(string))
	assert.True(t, vat.Equal(decimal.NewFromInt(21)), "IVA automático al 21 %%: %s", vat)

	doc := api.mustCreate("/api/implementations/"+implID+"/documents", map[string]any{
		"contract_id": contractID, "document_number": "F-1", "document_date": "2025-04-01",
	})
	docID := doc["id"].(string)

	api.mustCreate("/api/documents/"+docID+"/lines?enforce_ceiling=true", map[string]any{
		"contract_line_id": clLine["id"], "elig_base_amount": "100",
	})
	status, errBody := api.call(http.MethodPost, "/api/documents/"+docID+"/lines?enforce_ceiling=true", map[string]any{
		"contract_line_id": clLine["id"], "neelig_base_amount": "0.01", "neelig_vat_amount": "0",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "CEILING_EXCEEDED", errBody["code"])

	// sin el flag la misma línea se acepta
	api.mustCreate("/api/documents/"+docID+"/lines", map[string]any{
		"contract_line_id": clLine["id"], "neelig_base_amount": "0.01", "neelig_vat_amount": "0",
	})

	mreq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mresp, err := api.app.Test(mreq, -1)
	require.NoError(t, err)
	defer mresp.Body.Close()
	raw, _ := io.ReadAll(mresp.Body)
	assert.Contains(t, string(raw), `implementacion_validation_rejections_total{code="CEILING_EXCEEDED"} 1`)
}

func TestRouter_CuerpoInvalido_Retorna400(t *testing.T) {
	api := newAPI(t)

	status, body := api.call(http.MethodPost, "/api/implementations", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", body["code"])
	assert.Contains(t, body["message"], "FundingProjectID")
}

func TestRouter_NoEncontrado_Retorna404(t *testing.T) {
	api := newAPI(t)

	status, body := api.call(http.MethodGet, "/api/contracts/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRouter_ImplementacionDuplicada_Retorna422(t *testing.T) {
	api := newAPI(t)
	api.mustCreate("/api/implementations", map[string]any{"funding_project_id": "F1"})

	status, body := api.call(http.MethodPost, "/api/implementations", map[string]any{"funding_project_id": "F1"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "DUPLICATE_REFERENCE", body["code"])

	status, body = api.call(http.MethodPost, "/api/implementations", map[string]any{"funding_project_id": "no-existe"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "REQUIRED_REFERENCE", body["code"])
}

func TestRouter_ViewerNoPuedeEscribir(t *testing.T) {
	api := newAPI(t)
	api.token = tokenForRole(t, pkgjwt.RoleViewer)

	status, body := api.call(http.MethodPost, "/api/implementations", map[string]any{"funding_project_id": "F1"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["code"])

	status, _ = api.call(http.MethodGet, "/api/implementations", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_SinToken_Retorna401(t *testing.T) {
	api := newAPI(t)
	api.token = ""

	status, body := api.call(http.MethodGet, "/api/implementations", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "MISSING_TOKEN", body["code"])
}
