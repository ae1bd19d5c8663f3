package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
)

// ImplementationHandler maneja las peticiones HTTP de implementaciones y sus vistas de presupuesto.
type ImplementationHandler struct {
	responder
	uc        *implementation.ImplementationUseCase
	statement *implementation.StatementUseCase
}

// NewImplementationHandler construye el handler.
func NewImplementationHandler(rs responder, uc *implementation.ImplementationUseCase, statement *implementation.StatementUseCase) *ImplementationHandler {
	return &ImplementationHandler{responder: rs, uc: uc, statement: statement}
}

// Create godoc
// @Summary      Crear implementación para un proyecto de financiación contratado
// @Tags         implementations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateImplementationRequest  true  "Proyecto y datos de la implementación"
// @Success      201   {object}  dto.ImplementationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/implementations [post]
func (h *ImplementationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateImplementationRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener implementación
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {object}  dto.ImplementationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/implementations/{id} [get]
func (h *ImplementationHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar implementaciones
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        state   query  string  false  "draft | in_progress | done | cancel"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.ImplementationListResponse
// @Router       /api/implementations [get]
func (h *ImplementationHandler) List(c *fiber.Ctx) error {
	limit, offset := paging(c)
	out, err := h.uc.List(c.UserContext(), c.Query("state"), limit, offset)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar implementación (el proyecto de financiación es inmutable)
// @Tags         implementations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la implementación"
// @Param        body  body  dto.UpdateImplementationRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ImplementationResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/implementations/{id} [patch]
func (h *ImplementationHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateImplementationRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// SyncBudget godoc
// @Summary      Crear las líneas de presupuesto que falten (idempotente)
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {object}  dto.SyncResponse
// @Router       /api/implementations/{id}/sync/budget [post]
func (h *ImplementationHandler) SyncBudget(c *fiber.Ctx) error {
	out, err := h.uc.SyncBudget(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// SyncAcquisitions godoc
// @Summary      Crear las líneas de adquisición que falten (idempotente)
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {object}  dto.SyncResponse
// @Router       /api/implementations/{id}/sync/acquisitions [post]
func (h *ImplementationHandler) SyncAcquisitions(c *fiber.Ctx) error {
	out, err := h.uc.SyncAcquisitions(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// SyncActivities godoc
// @Summary      Crear las líneas de actividad que falten (idempotente)
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {object}  dto.SyncResponse
// @Router       /api/implementations/{id}/sync/activities [post]
func (h *ImplementationHandler) SyncActivities(c *fiber.Ctx) error {
	out, err := h.uc.SyncActivities(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Budget godoc
// @Summary      Presupuesto de la implementación con acumulados por línea
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {array}   dto.BudgetLineResponse
// @Router       /api/implementations/{id}/budget [get]
func (h *ImplementationHandler) Budget(c *fiber.Ctx) error {
	out, err := h.uc.Budget(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// BudgetLineDetail godoc
// @Summary      Detalle de una línea de presupuesto: contratos, documentos y decontări imputados
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea de presupuesto"
// @Success      200  {object}  dto.BudgetLineDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/budget-lines/{id} [get]
func (h *ImplementationHandler) BudgetLineDetail(c *fiber.Ctx) error {
	out, err := h.uc.BudgetLineDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Acquisitions godoc
// @Summary      Adquisiciones con importes contratados
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {array}   dto.AcquisitionLineResponse
// @Router       /api/implementations/{id}/acquisitions [get]
func (h *ImplementationHandler) Acquisitions(c *fiber.Ctx) error {
	out, err := h.uc.Acquisitions(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Activities godoc
// @Summary      Actividades con fechas de sus contratos
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {array}   dto.ActivityLineResponse
// @Router       /api/implementations/{id}/activities [get]
func (h *ImplementationHandler) Activities(c *fiber.Ctx) error {
	out, err := h.uc.Activities(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Statement godoc
// @Summary      Situación completa de la implementación
// @Tags         implementations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {object}  dto.StatementResponse
// @Router       /api/implementations/{id}/statement [get]
func (h *ImplementationHandler) Statement(c *fiber.Ctx) error {
	out, err := h.statement.Statement(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// ExportXLSX godoc
// @Summary      Exportar la situación a hoja de cálculo
// @Tags         implementations
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id   path  string  true  "ID de la implementación"
// @Success      200  {file}  binary
// @Router       /api/implementations/{id}/statement.xlsx [get]
func (h *ImplementationHandler) ExportXLSX(c *fiber.Ctx) error {
	data, name, err := h.statement.ExportXLSX(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendFile(c, data, name, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

// sendFile responde con un adjunto descargable.
func sendFile(c *fiber.Ctx, data []byte, name, contentType string) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Attachment(name)
	return c.Send(data)
}
