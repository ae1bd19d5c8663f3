package repository

import (
	"context"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// SettlementFilter filtro de listado de decontări.
type SettlementFilter struct {
	ImplementationID string
	Limit            int
	Offset           int
}

// SettlementRepository puerto de persistencia para Settlement.
type SettlementRepository interface {
	Create(ctx context.Context, s *entity.Settlement) error
	Update(ctx context.Context, s *entity.Settlement) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Settlement, error)
	List(ctx context.Context, f SettlementFilter) ([]*entity.Settlement, error)
}

// SettlementLineRepository puerto de persistencia para SettlementLine.
type SettlementLineRepository interface {
	Create(ctx context.Context, l *entity.SettlementLine) error
	Update(ctx context.Context, l *entity.SettlementLine) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.SettlementLine, error)
	ListBySettlement(ctx context.Context, settlementID string) ([]*entity.SettlementLine, error)
	// ListByDocumentLines líneas de decontare de la implementación sobre las líneas de documento dadas.
	ListByDocumentLines(ctx context.Context, implementationID string, documentLineIDs []string) ([]entity.SettlementLineRef, error)
	// ListByBudgetProxyLines barrido agrupado por línea de presupuesto (vía documento y contrato).
	ListByBudgetProxyLines(ctx context.Context, implementationIDs, budgetProxyLineIDs []string) ([]entity.SettlementLineRef, error)
	CountBySettlement(ctx context.Context, settlementID string) (int, error)
	CountByDocumentLine(ctx context.Context, documentLineID string) (int, error)
}
