package repository

import (
	"context"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// DocumentFilter filtro de listado de documentos.
type DocumentFilter struct {
	ImplementationID string
	ContractID       string
	Type             string
	Search           string // número, emisor o notas
	Limit            int
	Offset           int
}

// DocumentRepository puerto de persistencia para Document.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	Update(ctx context.Context, doc *entity.Document) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	List(ctx context.Context, f DocumentFilter) ([]*entity.Document, error)
}

// DocumentLineFilter búsqueda de líneas de documento de una implementación.
type DocumentLineFilter struct {
	ImplementationID string
	Search           string // número de documento, emisor, notas o nombre de la línea de contrato
	Limit            int
}

// DocumentLineRepository puerto de persistencia para DocumentLine.
type DocumentLineRepository interface {
	Create(ctx context.Context, l *entity.DocumentLine) error
	Update(ctx context.Context, l *entity.DocumentLine) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.DocumentLine, error)
	// GetRef devuelve la línea con sus claves resueltas (implementación, documento, contrato, presupuesto).
	GetRef(ctx context.Context, id string) (*entity.DocumentLineRef, error)
	ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentLine, error)
	// ListByContract líneas de todos los documentos de un contrato dentro de una implementación.
	ListByContract(ctx context.Context, implementationID, contractID string) ([]entity.DocumentLineRef, error)
	ListRefsByIDs(ctx context.Context, ids []string) ([]entity.DocumentLineRef, error)
	// ListByBudgetProxyLines barrido agrupado por línea de presupuesto (vía línea de contrato).
	ListByBudgetProxyLines(ctx context.Context, implementationIDs, budgetProxyLineIDs []string) ([]entity.DocumentLineRef, error)
	Search(ctx context.Context, f DocumentLineFilter) ([]entity.DocumentLineRef, error)
	CountByDocument(ctx context.Context, documentID string) (int, error)
	CountByContractLine(ctx context.Context, contractLineID string) (int, error)
}
