package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

// SettlementHandler maneja decontări (solicitudes de reembolso) y sus líneas.
type SettlementHandler struct {
	responder
	uc        *implementation.SettlementUseCase
	statement *implementation.StatementUseCase
}

// NewSettlementHandler construye el handler.
func NewSettlementHandler(rs responder, uc *implementation.SettlementUseCase, statement *implementation.StatementUseCase) *SettlementHandler {
	return &SettlementHandler{responder: rs, uc: uc, statement: statement}
}

// Create godoc
// @Summary      Crear decontare
// @Tags         settlements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la implementación"
// @Param        body  body  dto.CreateSettlementRequest  true  "Cabecera"
// @Success      201   {object}  dto.SettlementResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/implementations/{id}/settlements [post]
func (h *SettlementHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSettlementRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar decontări de una implementación
// @Tags         settlements
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la implementación"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.SettlementListResponse
// @Router       /api/implementations/{id}/settlements [get]
func (h *SettlementHandler) List(c *fiber.Ctx) error {
	limit, offset := paging(c)
	out, err := h.uc.List(c.UserContext(), repository.SettlementFilter{
		ImplementationID: c.Params("id"),
		Limit:            limit,
		Offset:           offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener decontare con líneas y paneles
// @Tags         settlements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la decontare"
// @Success      200  {object}  dto.SettlementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/settlements/{id} [get]
func (h *SettlementHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar cabecera de decontare
// @Tags         settlements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la decontare"
// @Param        body  body  dto.UpdateSettlementRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.SettlementResponse
// @Router       /api/settlements/{id} [patch]
func (h *SettlementHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSettlementRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar decontare sin líneas
// @Tags         settlements
// @Security     Bearer
// @Param        id   path  string  true  "ID de la decontare"
// @Success      204
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/settlements/{id} [delete]
func (h *SettlementHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Propose godoc
// @Summary      Proponer importes elegibles para una línea de documento
// @Tags         settlements
// @Security     Bearer
// @Produce      json
// @Param        id                path   string  true  "ID de la decontare"
// @Param        document_line_id  query  string  true  "ID de la línea de documento"
// @Success      200  {object}  dto.SettlementProposalResponse
// @Router       /api/settlements/{id}/proposal [get]
func (h *SettlementHandler) Propose(c *fiber.Ctx) error {
	docLineID := c.Query("document_line_id")
	if docLineID == "" {
		return h.fail(c, &requestError{code: "VALIDATION", message: "document_line_id: required"})
	}
	out, err := h.uc.Propose(c.UserContext(), c.Params("id"), docLineID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// CreateLine godoc
// @Summary      Añadir línea de decontare contra una línea de documento
// @Tags         settlements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la decontare"
// @Param        body  body  dto.CreateSettlementLineRequest  true  "Línea"
// @Success      201   {object}  dto.SettlementLineMutationResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/settlements/{id}/lines [post]
func (h *SettlementHandler) CreateLine(c *fiber.Ctx) error {
	var in dto.CreateSettlementLineRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.CreateLine(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetLine godoc
// @Summary      Obtener línea de decontare con panel de contexto
// @Tags         settlements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea"
// @Success      200  {object}  dto.SettlementLineResponse
// @Router       /api/settlement-lines/{id} [get]
func (h *SettlementHandler) GetLine(c *fiber.Ctx) error {
	out, err := h.uc.GetLine(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// UpdateLine godoc
// @Summary      Modificar línea de decontare
// @Tags         settlements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la línea"
// @Param        body  body  dto.UpdateSettlementLineRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.SettlementLineMutationResponse
// @Router       /api/settlement-lines/{id} [patch]
func (h *SettlementHandler) UpdateLine(c *fiber.Ctx) error {
	var in dto.UpdateSettlementLineRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.UpdateLine(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// ResetLineVAT godoc
// @Summary      Volver el IVA elegible al cálculo automático
// @Tags         settlements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea"
// @Success      200  {object}  dto.SettlementLineMutationResponse
// @Router       /api/settlement-lines/{id}/reset-vat [post]
func (h *SettlementHandler) ResetLineVAT(c *fiber.Ctx) error {
	out, err := h.uc.ResetLineVAT(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// DeleteLine godoc
// @Summary      Eliminar línea de decontare
// @Tags         settlements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea"
// @Success      200  {object}  dto.RecalculatedResponse
// @Router       /api/settlement-lines/{id} [delete]
func (h *SettlementHandler) DeleteLine(c *fiber.Ctx) error {
	out, err := h.uc.DeleteLine(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Descargar la decontare en PDF
// @Tags         settlements
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la decontare"
// @Success      200  {file}  binary
// @Router       /api/settlements/{id}/pdf [get]
func (h *SettlementHandler) PDF(c *fiber.Ctx) error {
	data, name, err := h.statement.SettlementPDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return sendFile(c, data, name, "application/pdf")
}
