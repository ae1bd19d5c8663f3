package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

// ContractHandler maneja contratos y líneas de contrato.
type ContractHandler struct {
	responder
	uc *implementation.ContractUseCase
}

// NewContractHandler construye el handler.
func NewContractHandler(rs responder, uc *implementation.ContractUseCase) *ContractHandler {
	return &ContractHandler{responder: rs, uc: uc}
}

// Create godoc
// @Summary      Crear contrato en una implementación
// @Tags         contracts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la implementación"
// @Param        body  body  dto.CreateContractRequest  true  "Cabecera del contrato"
// @Success      201   {object}  dto.ContractResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/implementations/{id}/contracts [post]
func (h *ContractHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateContractRequest
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
// @Summary      Listar contratos de una implementación
// @Tags         contracts
// @Security     Bearer
// @Produce      json
// @Param        id           path   string  true   "ID de la implementación"
// @Param        award_state  query  string  false  "Estado de adjudicación"
// @Param        q            query  string  false  "Texto en nombre, número o proveedor"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ContractListResponse
// @Router       /api/implementations/{id}/contracts [get]
func (h *ContractHandler) List(c *fiber.Ctx) error {
	limit, offset := paging(c)
	out, err := h.uc.List(c.UserContext(), repository.ContractFilter{
		ImplementationID: c.Params("id"),
		AwardState:       c.Query("award_state"),
		Search:           c.Query("q"),
		Limit:            limit,
		Offset:           offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener contrato con líneas y totales
// @Tags         contracts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del contrato"
// @Success      200  {object}  dto.ContractResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id} [get]
func (h *ContractHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar cabecera de contrato
// @Tags         contracts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del contrato"
// @Param        body  body  dto.UpdateContractRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ContractResponse
// @Router       /api/contracts/{id} [patch]
func (h *ContractHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateContractRequest
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
// @Summary      Eliminar contrato sin líneas ni documentos
// @Tags         contracts
// @Security     Bearer
// @Param        id   path  string  true  "ID del contrato"
// @Success      204
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id} [delete]
func (h *ContractHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateLine godoc
// @Summary      Añadir línea de contrato imputada a una línea de presupuesto
// @Tags         contracts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del contrato"
// @Param        body  body  dto.CreateContractLineRequest  true  "Línea"
// @Success      201   {object}  dto.ContractLineMutationResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/contracts/{id}/lines [post]
func (h *ContractHandler) CreateLine(c *fiber.Ctx) error {
	var in dto.CreateContractLineRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.CreateLine(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateLine godoc
// @Summary      Modificar línea de contrato
// @Tags         contracts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la línea"
// @Param        body  body  dto.UpdateContractLineRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.ContractLineMutationResponse
// @Router       /api/contract-lines/{id} [patch]
func (h *ContractHandler) UpdateLine(c *fiber.Ctx) error {
	var in dto.UpdateContractLineRequest
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
// @Summary      Volver el IVA de la línea al cálculo automático
// @Tags         contracts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea"
// @Success      200  {object}  dto.ContractLineMutationResponse
// @Router       /api/contract-lines/{id}/reset-vat [post]
func (h *ContractHandler) ResetLineVAT(c *fiber.Ctx) error {
	out, err := h.uc.ResetLineVAT(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// DeleteLine godoc
// @Summary      Eliminar línea de contrato sin líneas de documento
// @Tags         contracts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la línea"
// @Success      200  {object}  dto.RecalculatedResponse
// @Router       /api/contract-lines/{id} [delete]
func (h *ContractHandler) DeleteLine(c *fiber.Ctx) error {
	out, err := h.uc.DeleteLine(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}
