package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/observability"
	"github.com/jhoicas/Implementacion-api/pkg/jwt"
	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ImplementationUC *implementation.ImplementationUseCase
	ContractUC       *implementation.ContractUseCase
	DocumentUC       *implementation.DocumentUseCase
	SettlementUC     *implementation.SettlementUseCase
	StatementUC      *implementation.StatementUseCase
	JWTSecret        string
	JWTIssuer        string
	Metrics          *observability.Metrics
	Log              *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	rs := responder{log: deps.Log, metrics: deps.Metrics}
	implHandler := NewImplementationHandler(rs, deps.ImplementationUC, deps.StatementUC)
	contractHandler := NewContractHandler(rs, deps.ContractUC)
	documentHandler := NewDocumentHandler(rs, deps.DocumentUC)
	settlementHandler := NewSettlementHandler(rs, deps.SettlementUC, deps.StatementUC)

	// Todo /api requiere Bearer Token; lectura para cualquier rol, escritura solo admin/manager.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	write := RequireRole(jwt.RoleAdmin, jwt.RoleManager)

	// Implementations
	impls := api.Group("/implementations")
	impls.Post("/", write, implHandler.Create)
	impls.Get("/", implHandler.List)
	impls.Get("/:id", implHandler.GetByID)
	impls.Patch("/:id", write, implHandler.Update)
	impls.Post("/:id/sync/budget", write, implHandler.SyncBudget)
	impls.Post("/:id/sync/acquisitions", write, implHandler.SyncAcquisitions)
	impls.Post("/:id/sync/activities", write, implHandler.SyncActivities)
	impls.Get("/:id/budget", implHandler.Budget)
	impls.Get("/:id/acquisitions", implHandler.Acquisitions)
	impls.Get("/:id/activities", implHandler.Activities)
	impls.Get("/:id/statement", implHandler.Statement)
	impls.Get("/:id/statement.xlsx", implHandler.ExportXLSX)
	impls.Post("/:id/contracts", write, contractHandler.Create)
	impls.Get("/:id/contracts", contractHandler.List)
	impls.Post("/:id/documents", write, documentHandler.Create)
	impls.Get("/:id/documents", documentHandler.List)
	impls.Get("/:id/document-lines", documentHandler.SearchLines)
	impls.Post("/:id/settlements", write, settlementHandler.Create)
	impls.Get("/:id/settlements", settlementHandler.List)

	api.Get("/budget-lines/:id", implHandler.BudgetLineDetail)

	// Contracts
	contracts := api.Group("/contracts")
	contracts.Get("/:id", contractHandler.GetByID)
	contracts.Patch("/:id", write, contractHandler.Update)
	contracts.Delete("/:id", write, contractHandler.Delete)
	contracts.Post("/:id/lines", write, contractHandler.CreateLine)

	contractLines := api.Group("/contract-lines")
	contractLines.Patch("/:id", write, contractHandler.UpdateLine)
	contractLines.Delete("/:id", write, contractHandler.DeleteLine)
	contractLines.Post("/:id/reset-vat", write, contractHandler.ResetLineVAT)

	// Documents
	documents := api.Group("/documents")
	documents.Get("/:id", documentHandler.GetByID)
	documents.Patch("/:id", write, documentHandler.Update)
	documents.Delete("/:id", write, documentHandler.Delete)
	documents.Get("/:id/ceiling", documentHandler.Ceiling)
	documents.Post("/:id/lines", write, documentHandler.CreateLine)

	documentLines := api.Group("/document-lines")
	documentLines.Patch("/:id", write, documentHandler.UpdateLine)
	documentLines.Delete("/:id", write, documentHandler.DeleteLine)
	documentLines.Post("/:id/reset-vat", write, documentHandler.ResetLineVAT)

	// Settlements
	settlements := api.Group("/settlements")
	settlements.Get("/:id", settlementHandler.GetByID)
	settlements.Patch("/:id", write, settlementHandler.Update)
	settlements.Delete("/:id", write, settlementHandler.Delete)
	settlements.Get("/:id/proposal", settlementHandler.Propose)
	settlements.Get("/:id/pdf", settlementHandler.PDF)
	settlements.Post("/:id/lines", write, settlementHandler.CreateLine)

	settlementLines := api.Group("/settlement-lines")
	settlementLines.Get("/:id", settlementHandler.GetLine)
	settlementLines.Patch("/:id", write, settlementHandler.UpdateLine)
	settlementLines.Delete("/:id", write, settlementHandler.DeleteLine)
	settlementLines.Post("/:id/reset-vat", write, settlementHandler.ResetLineVAT)
}
