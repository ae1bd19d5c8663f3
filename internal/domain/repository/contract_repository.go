package repository

import (
	"context"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// ContractFilter filtro de listado de contratos de una implementación.
type ContractFilter struct {
	ImplementationID string
	AwardState       string
	Search           string // nombre, número o proveedor
	Limit            int
	Offset           int
}

// ContractRepository puerto de persistencia para Contract.
type ContractRepository interface {
	Create(ctx context.Context, c *entity.Contract) error
	Update(ctx context.Context, c *entity.Contract) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Contract, error)
	List(ctx context.Context, f ContractFilter) ([]*entity.Contract, error)
}

// ContractLineRepository puerto de persistencia para ContractLine.
type ContractLineRepository interface {
	Create(ctx context.Context, l *entity.ContractLine) error
	Update(ctx context.Context, l *entity.ContractLine) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.ContractLine, error)
	// GetByContractAndBudget devuelve la línea de un contrato para una línea de presupuesto (o nil).
	GetByContractAndBudget(ctx context.Context, contractID, budgetProxyLineID string) (*entity.ContractLine, error)
	ListByContract(ctx context.Context, contractID string) ([]*entity.ContractLine, error)
	ListByContracts(ctx context.Context, contractIDs []string) ([]*entity.ContractLine, error)
	// ListByBudgetProxyLines barrido agrupado: líneas de contratos de las implementaciones dadas
	// imputadas a las líneas de presupuesto dadas.
	ListByBudgetProxyLines(ctx context.Context, implementationIDs, budgetProxyLineIDs []string) ([]*entity.ContractLine, error)
	CountByContract(ctx context.Context, contractID string) (int, error)
}
