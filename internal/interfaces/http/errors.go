package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/observability"
	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

var validate = validator.New()

// responder traduce errores de los casos de uso a respuestas HTTP.
type responder struct {
	log     *logger.Logger
	metrics *observability.Metrics
}

// fail ValidationError → 422 {code, message}; cuerpo inválido y ErrInvalidInput → 400;
// ErrNotFound → 404; ErrUnauthorized → 401; ErrForbidden → 403; el resto → 500.
func (r responder) fail(c *fiber.Ctx, err error) error {
	if ve, ok := domain.AsValidationError(err); ok {
		r.metrics.Rejected(ve.Code)
		r.log.Warn().Str("code", ve.Code).Str("path", c.Path()).Msg(ve.Message)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: ve.Code, Message: ve.Message})
	}
	var re *requestError
	switch {
	case errors.As(err, &re):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: re.code, Message: re.message})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	}
	r.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// requestError cuerpo ilegible o rechazado por el validador (400).
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

// bind parsea el cuerpo JSON y valida las etiquetas `validate` del DTO.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &requestError{code: "INVALID_BODY", message: "cuerpo inválido: " + err.Error()}
	}
	if err := validate.Struct(out); err != nil {
		return &requestError{code: "VALIDATION", message: validationMessage(err)}
	}
	return nil
}

// validationMessage "campo: regla" por cada campo rechazado.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fe.Field()+": "+rule)
	}
	return strings.Join(parts, "; ")
}

// paging lee limit/offset con los mismos límites que el resto de la API.
func paging(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
