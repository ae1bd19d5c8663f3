package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

var _ repository.FundingRepository = (*FundingRepo)(nil)

// FundingRepo lectura de los datos maestros de la financiación.
type FundingRepo struct {
	q Querier
}

// NewFundingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFundingRepository(q Querier) *FundingRepo {
	return &FundingRepo{q: q}
}

// GetProject obtiene un proyecto de financiación por ID.
func (r *FundingRepo) GetProject(ctx context.Context, id string) (*entity.FundingProject, error) {
	const query = `
		SELECT id, code, name, beneficiary, beneficiary_tax_id, status,
		       contribution_coefficient, contribution_value, signing_date, end_date
		FROM funding_projects WHERE id = $1`
	var p entity.FundingProject
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Code, &p.Name, &p.Beneficiary, &p.BeneficiaryTaxID, &p.Status,
		&p.ContributionCoefficient, &p.ContributionValue, &p.SigningDate, &p.EndDate,
	)
	out, err := notFoundOnNoRows(&p, err)
	if err != nil {
		return nil, fmt.Errorf("get funding project: %w", err)
	}
	return out, nil
}

const budgetLineColumns = `id, funding_project_id, number, chapter, subchapter, name,
	eligible_base, eligible_vat, non_eligible_base, non_eligible_vat`

func scanBudgetLine(row pgx.Row) (*entity.BudgetLine, error) {
	var l entity.BudgetLine
	err := row.Scan(&l.ID, &l.FundingProjectID, &l.Number, &l.Chapter, &l.Subchapter, &l.Name,
		&l.EligibleBase, &l.EligibleVAT, &l.NonEligibleBase, &l.NonEligibleVAT)
	return &l, err
}

// GetBudgetLine obtiene una línea del presupuesto aprobado.
func (r *FundingRepo) GetBudgetLine(ctx context.Context, id string) (*entity.BudgetLine, error) {
	l, err := notFoundOnNoRows(scanBudgetLine(r.q.QueryRow(ctx,
		`SELECT `+budgetLineColumns+` FROM funding_budget_lines WHERE id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get funding budget line: %w", err)
	}
	return l, nil
}

// ListBudgetLines presupuesto aprobado del proyecto en su orden de presentación.
func (r *FundingRepo) ListBudgetLines(ctx context.Context, fundingProjectID string) ([]*entity.BudgetLine, error) {
	rows, err := r.q.Query(ctx, `SELECT `+budgetLineColumns+`
		FROM funding_budget_lines WHERE funding_project_id = $1 ORDER BY position, id`, fundingProjectID)
	if err != nil {
		return nil, fmt.Errorf("list funding budget lines: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.BudgetLine, error) { return scanBudgetLine(row) })
}

// ListBudgetLinesByIDs líneas maestras pedidas.
func (r *FundingRepo) ListBudgetLinesByIDs(ctx context.Context, ids []string) ([]*entity.BudgetLine, error) {
	if len(ids) == 0 {
		return []*entity.BudgetLine{}, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+budgetLineColumns+`
		FROM funding_budget_lines WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list funding budget lines by ids: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.BudgetLine, error) { return scanBudgetLine(row) })
}

const activityColumns = `id, funding_project_id, sequence, name, date_start, date_end`

func scanActivity(row pgx.Row) (*entity.Activity, error) {
	var a entity.Activity
	err := row.Scan(&a.ID, &a.FundingProjectID, &a.Sequence, &a.Name, &a.DateStart, &a.DateEnd)
	return &a, err
}

// GetActivity obtiene una actividad de la financiación.
func (r *FundingRepo) GetActivity(ctx context.Context, id string) (*entity.Activity, error) {
	a, err := notFoundOnNoRows(scanActivity(r.q.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM funding_activities WHERE id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get funding activity: %w", err)
	}
	return a, nil
}

// ListActivities actividades del proyecto por secuencia.
func (r *FundingRepo) ListActivities(ctx context.Context, fundingProjectID string) ([]*entity.Activity, error) {
	rows, err := r.q.Query(ctx, `SELECT `+activityColumns+`
		FROM funding_activities WHERE funding_project_id = $1 ORDER BY sequence, id`, fundingProjectID)
	if err != nil {
		return nil, fmt.Errorf("list funding activities: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.Activity, error) { return scanActivity(row) })
}

const acquisitionColumns = `id, funding_project_id, sequence, code, name, date_start, date_end, base, vat`

func scanAcquisition(row pgx.Row) (*entity.Acquisition, error) {
	var a entity.Acquisition
	err := row.Scan(&a.ID, &a.FundingProjectID, &a.Sequence, &a.Code, &a.Name, &a.DateStart, &a.DateEnd, &a.Base, &a.VAT)
	return &a, err
}

// GetAcquisition obtiene una adquisición de la financiación.
func (r *FundingRepo) GetAcquisition(ctx context.Context, id string) (*entity.Acquisition, error) {
	a, err := notFoundOnNoRows(scanAcquisition(r.q.QueryRow(ctx,
		`SELECT `+acquisitionColumns+` FROM funding_acquisitions WHERE id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get funding acquisition: %w", err)
	}
	return a, nil
}

// ListAcquisitions adquisiciones del proyecto por secuencia.
func (r *FundingRepo) ListAcquisitions(ctx context.Context, fundingProjectID string) ([]*entity.Acquisition, error) {
	rows, err := r.q.Query(ctx, `SELECT `+acquisitionColumns+`
		FROM funding_acquisitions WHERE funding_project_id = $1 ORDER BY sequence, id`, fundingProjectID)
	if err != nil {
		return nil, fmt.Errorf("list funding acquisitions: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.Acquisition, error) { return scanAcquisition(row) })
}
