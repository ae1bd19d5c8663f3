package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	// ErrValidation agrupa todas las violaciones de reglas de negocio (ver ValidationError).
	ErrValidation = errors.New("error de validación")
)

// Códigos de ValidationError. El código es estable; el mensaje es para el usuario.
const (
	CodeRequiredReference       = "REQUIRED_REFERENCE"
	CodeCrossImplementation     = "CROSS_IMPLEMENTATION"
	CodeContractMismatch        = "CONTRACT_MISMATCH"
	CodeDuplicateReference      = "DUPLICATE_REFERENCE"
	CodeCeilingExceeded         = "CEILING_EXCEEDED"
	CodeNonReimbursableExceeded = "NON_REIMBURSABLE_EXCEEDED"
	CodeVATRateOutOfRange       = "VAT_RATE_OUT_OF_RANGE"
	CodeHasDependents           = "HAS_DEPENDENTS"
	CodeFundingNotContracted    = "FUNDING_NOT_CONTRACTED"
	CodeImmutableField          = "IMMUTABLE_FIELD"
	CodeInvalidInput            = "INVALID_INPUT"
)

// ValidationError es el único tipo de error de negocio: referencia faltante, mezcla de
// implementaciones, duplicados, topes superados o borrado con dependientes.
// El mensaje identifica la entidad y los valores numéricos implicados.
type ValidationError struct {
	Code    string
	Message string
}

// NewValidationError construye un ValidationError con mensaje formateado.
func NewValidationError(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

// Is permite errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AsValidationError extrae el ValidationError de una cadena de errores.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
