package repository

import (
	"context"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// FundingRepository puerto de solo lectura sobre los datos maestros de la financiación
// (proyecto, presupuesto aprobado, actividades y adquisiciones).
type FundingRepository interface {
	GetProject(ctx context.Context, id string) (*entity.FundingProject, error)
	GetBudgetLine(ctx context.Context, id string) (*entity.BudgetLine, error)
	ListBudgetLines(ctx context.Context, fundingProjectID string) ([]*entity.BudgetLine, error)
	// ListBudgetLinesByIDs devuelve las líneas maestras pedidas (orden no garantizado).
	ListBudgetLinesByIDs(ctx context.Context, ids []string) ([]*entity.BudgetLine, error)
	GetActivity(ctx context.Context, id string) (*entity.Activity, error)
	ListActivities(ctx context.Context, fundingProjectID string) ([]*entity.Activity, error)
	GetAcquisition(ctx context.Context, id string) (*entity.Acquisition, error)
	ListAcquisitions(ctx context.Context, fundingProjectID string) ([]*entity.Acquisition, error)
}
