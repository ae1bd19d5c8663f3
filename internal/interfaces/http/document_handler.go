package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

// DocumentHandler maneja documentos justificativos y sus líneas.
// Las mutaciones aceptan ?enforce_ceiling=true para rechazar excesos sobre el contrato.
type DocumentHandler struct {
	responder
	uc *implementation.DocumentUseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(rs responder, uc *implementation.DocumentUseCase) *DocumentHandler {
	return &DocumentHandler{responder: rs, uc: uc}
}

func enforceCeiling(c *fiber.Ctx) bool {
	return c.QueryBool("enforce_ceiling", false)
}

// Create godoc
// @Summary      Registrar documento justificativo
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path   string  true   "ID de la implementación"
// @Param        enforce_ceiling  query  bool    false  "Rechazar si supera el contrato"
// @Param        body             body   dto.CreateDocumentRequest  true  "Documento"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/implementations/{id}/documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateDocumentRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), c.Params("id"), in, enforceCeiling(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar documentos de una implementación
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id           path   string  true   "ID de la implementación"
// @Param        contract_id  query  string  false  "Filtrar por contrato"
// @Param        type         query  string  false  "Tipo de documento"
// @Param        q            query  string  false  "Texto en número, emisor o notas"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/implementations/{id}/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	limit, offset := paging(c)
	out, err := h.uc.List(c.UserContext(), repository.DocumentFilter{
		ImplementationID: c.Params("id"),
		ContractID:       c.Query("contract_id"),
		Type:             c.Query("type"),
		Search:           c.Query("q"),
		Limit:            limit,
		Offset:           offset,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// SearchLines godoc
// @Summary      Buscar líneas de documento candidatas a decontare
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID de la implementación"
// @Param        q      query  string  false  "Número, emisor, notas o línea de contrato"
// @Param        limit  query  int     false  "Límite"  default(20)
// @Success      200  {array}  dto.DocumentLineResponse
// @Router       /api/implementations/{id}/document-lines [get]
func (h *DocumentHandler) SearchLines(c *fiber.Ctx) error {
	limit, _ := paging(c)
	out, err := h.uc.SearchLines(c.UserContext(), repository.DocumentLineFilter{
		ImplementationID: c.Params("id"),
		Search:           c.Query("q"),
		Limit:            limit,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener documento con líneas
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar cabecera de documento
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path   string  true   "ID del documento"
// @Param        enforce_ceiling  query  bool    false  "Rechazar si supera el contrato"
// @Param        body             body   dto.UpdateDocumentRequest  true  "Campos a modificar"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/documents/{id} [patch]
func (h *DocumentHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateDocumentRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Update(c.UserContext(), c.Params("id"), in, enforceCeiling(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar documento sin líneas
// @Tags         documents
// @Security     Bearer
// @Param        id   path  string  true  "ID del documento"
// @Success      204
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Ceiling godoc
// @Summary      Comparación documento contra contrato por línea
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentCeilingResponse
// @Router       /api/documents/{id}/ceiling [get]
func (h *DocumentHandler) Ceiling(c *fiber.Ctx) error {
	out, err := h.uc.Ceiling(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// CreateLine godoc
// @Summary      Añadir línea de documento contra una línea de contrato
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path   string  true   "ID del documento"
// @Param        enforce_ceiling  query  bool    false  "Rechazar si supera el contrato"
// @Param        body             body   dto.CreateDocumentLineRequest  true  "Línea"
// @Success      201  {object}  dto.DocumentLineMutationResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/lines [post]
func (h *DocumentHandler) CreateLine(c *fiber.Ctx) error {
	var in dto.CreateDocumentLineRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.CreateLine(c.UserContext(), c.Params("id"), in, enforceCeiling(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateLine godoc
// @Summary      Modificar línea de documento
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id               path   string  true   "ID de la línea"
// @Param        enforce_ceiling  query  bool    false  "Rechazar si supera el contrato"
// @Param        body             body   dto.UpdateDocumentLineRequest  true  "Campos a modificar"
// @Success      200  {object}  dto.DocumentLineMutationResponse
// @Router       /api/document-lines/{id} [patch]
func (h *DocumentHandler) UpdateLine(c *fiber.Ctx) error {
	var in dto.UpdateDocumentLineRequest
	if err := bind(c, &in); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.UpdateLine(c.UserContext(), c.Params("id"), in, enforceCeiling(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// ResetLineVAT godoc
// @Summary      Volver el IVA de la línea al cálculo automático
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id               path   string  true   "ID de la línea"
// @Param        enforce_ceiling  query  bool    false  "Rechazar si supera el contrato"
// @Success      200  {object}  dto.DocumentLineMutationResponse
// @Router       /api/document-lines/{id}/reset-vat [post]
func (h *DocumentHandler) ResetLineVAT(c *fiber.Ctx) error {
	out, err := h.uc.ResetLineVAT(c.UserContext(), c.Params("id"), enforceCeiling(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}

// DeleteLine godoc
// @Summary      Eliminar línea de documento sin decontări
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id               path   string  true   "ID de la línea"
// @Param        enforce_ceiling  query  bool    false  "Revalidar el tope del documento"
// @Success      200  {object}  dto.DocumentLineMutationResponse
// @Router       /api/document-lines/{id} [delete]
func (h *DocumentHandler) DeleteLine(c *fiber.Ctx) error {
	out, err := h.uc.DeleteLine(c.UserContext(), c.Params("id"), enforceCeiling(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(out)
}
