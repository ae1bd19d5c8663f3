package implementation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

// Repositories conjunto de repositorios atados a una misma conexión o transacción.
type Repositories struct {
	Funding         repository.FundingRepository
	Implementations repository.ImplementationRepository
	BudgetLines     repository.BudgetProxyRepository
	Acquisitions    repository.AcquisitionProxyRepository
	Activities      repository.ActivityProxyRepository
	Contracts       repository.ContractRepository
	ContractLines   repository.ContractLineRepository
	Documents       repository.DocumentRepository
	DocumentLines   repository.DocumentLineRepository
	Settlements     repository.SettlementRepository
	SettlementLines repository.SettlementLineRepository
}

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
// Si fn devuelve error se hace rollback y ningún cambio queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repositories) error) error
}

// Defaults valores por defecto de configuración, pasados explícitamente a los casos de uso.
type Defaults struct {
	Currency string
	VATRate  decimal.Decimal
}

// Deps dependencias comunes de los casos de uso de la implementación.
// Repos se usa para lecturas fuera de transacción.
type Deps struct {
	Tx       TxRunner
	Repos    Repositories
	Log      *logger.Logger
	Defaults Defaults
}

func (d Deps) logger() *logger.Logger {
	if d.Log == nil {
		return logger.Nop()
	}
	return d.Log
}

// StatementExporter genera la hoja de cálculo con la situación completa de una implementación.
type StatementExporter interface {
	ExportStatement(ctx context.Context, st *dto.StatementResponse) ([]byte, error)
}

// SettlementPDFGenerator genera el PDF de una decontare con sus líneas y paneles.
type SettlementPDFGenerator interface {
	GenerateSettlementPDF(ctx context.Context, impl *dto.ImplementationResponse, s *dto.SettlementResponse) ([]byte, error)
}
