package repository

import (
	"context"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// ImplementationFilter filtro de listado de implementaciones.
type ImplementationFilter struct {
	State  string
	Limit  int
	Offset int
}

// ImplementationRepository puerto de persistencia para Implementation.
type ImplementationRepository interface {
	Create(ctx context.Context, impl *entity.Implementation) error
	Update(ctx context.Context, impl *entity.Implementation) error
	GetByID(ctx context.Context, id string) (*entity.Implementation, error)
	GetByFundingProject(ctx context.Context, fundingProjectID string) (*entity.Implementation, error)
	List(ctx context.Context, f ImplementationFilter) ([]*entity.Implementation, error)
	// Lock bloquea la fila de la implementación hasta el fin de la transacción (SELECT FOR UPDATE).
	// Serializa las mutaciones de una misma implementación.
	Lock(ctx context.Context, id string) (*entity.Implementation, error)
}

// BudgetProxyRepository puerto de persistencia para las líneas de presupuesto de la implementación.
type BudgetProxyRepository interface {
	Create(ctx context.Context, line *entity.BudgetProxyLine) error
	GetByID(ctx context.Context, id string) (*entity.BudgetProxyLine, error)
	ListByImplementation(ctx context.Context, implementationID string) ([]*entity.BudgetProxyLine, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.BudgetProxyLine, error)
}

// AcquisitionProxyRepository puerto de persistencia para las adquisiciones de la implementación.
type AcquisitionProxyRepository interface {
	Create(ctx context.Context, line *entity.AcquisitionProxyLine) error
	ListByImplementation(ctx context.Context, implementationID string) ([]*entity.AcquisitionProxyLine, error)
}

// ActivityProxyRepository puerto de persistencia para las actividades de la implementación.
type ActivityProxyRepository interface {
	Create(ctx context.Context, line *entity.ActivityProxyLine) error
	ListByImplementation(ctx context.Context, implementationID string) ([]*entity.ActivityProxyLine, error)
}
