package implementation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(entity.DateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError(domain.CodeInvalidInput, "fecha inválida en %s: %q", field, s)
	}
	return t, nil
}

// parseOptionalDate cadena vacía = sin fecha.
func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(entity.DateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func requireRef(value, what string) error {
	if value == "" {
		return domain.NewValidationError(domain.CodeRequiredReference, "falta la referencia obligatoria: %s", what)
	}
	return nil
}

func hasDependents(what, id string, n int, dependents string) error {
	return domain.NewValidationError(domain.CodeHasDependents,
		"no se puede eliminar %s %s: tiene %d %s", what, id, n, dependents)
}

// rateOrDefault devuelve la tasa pedida validada o la tasa por defecto.
func rateOrDefault(rate *decimal.Decimal, def decimal.Decimal) (decimal.Decimal, error) {
	if rate == nil {
		return def, nil
	}
	if err := entity.ValidateVATRate(*rate); err != nil {
		return decimal.Zero, err
	}
	return *rate, nil
}

// lockImplementation bloquea la implementación dentro de la transacción; ErrNotFound si no existe.
func lockImplementation(ctx context.Context, r Repositories, id string) (*entity.Implementation, error) {
	impl, err := r.Implementations.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bloquear implementación: %w", err)
	}
	if impl == nil {
		return nil, domain.ErrNotFound
	}
	return impl, nil
}
