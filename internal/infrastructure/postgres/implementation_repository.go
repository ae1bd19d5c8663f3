package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

var (
	_ repository.ImplementationRepository   = (*ImplementationRepo)(nil)
	_ repository.BudgetProxyRepository      = (*BudgetProxyRepo)(nil)
	_ repository.AcquisitionProxyRepository = (*AcquisitionProxyRepo)(nil)
	_ repository.ActivityProxyRepository    = (*ActivityProxyRepo)(nil)
)

// ImplementationRepo implementación de ImplementationRepository (usable con pool o tx).
type ImplementationRepo struct {
	q Querier
}

// NewImplementationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewImplementationRepository(q Querier) *ImplementationRepo {
	return &ImplementationRepo{q: q}
}

const implementationColumns = `id, funding_project_id, responsible_user_id, start_date, end_date,
	description, state, currency, currency_places, created_at, updated_at`

func scanImplementation(row pgx.Row) (*entity.Implementation, error) {
	var impl entity.Implementation
	var responsible *string
	err := row.Scan(&impl.ID, &impl.FundingProjectID, &responsible, &impl.StartDate, &impl.EndDate,
		&impl.Description, &impl.State, &impl.Currency.Code, &impl.Currency.Places, &impl.CreatedAt, &impl.UpdatedAt)
	impl.ResponsibleUserID = derefStr(responsible)
	return &impl, err
}

// Create persiste la implementación. La unicidad por proyecto la garantiza uq_implementations_funding.
func (r *ImplementationRepo) Create(ctx context.Context, impl *entity.Implementation) error {
	const query = `
		INSERT INTO implementations (id, funding_project_id, responsible_user_id, start_date, end_date,
		                             description, state, currency, currency_places, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		impl.ID, impl.FundingProjectID, nullIfEmpty(impl.ResponsibleUserID), dateOrNil(impl.StartDate), dateOrNil(impl.EndDate),
		impl.Description, impl.State, impl.Currency.Code, impl.Currency.Places, impl.CreatedAt, impl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert implementation: %w",
			duplicate(err, "ya existe una implementación para el proyecto de financiación %s", impl.FundingProjectID))
	}
	return nil
}

// Update actualiza los campos editables; funding_project_id no se toca.
func (r *ImplementationRepo) Update(ctx context.Context, impl *entity.Implementation) error {
	const query = `
		UPDATE implementations
		SET responsible_user_id = $2,
		    start_date          = $3,
		    end_date            = $4,
		    description         = $5,
		    state               = $6,
		    updated_at          = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, impl.ID, nullIfEmpty(impl.ResponsibleUserID),
		dateOrNil(impl.StartDate), dateOrNil(impl.EndDate), impl.Description, impl.State, impl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update implementation: %w", err)
	}
	return nil
}

// GetByID obtiene una implementación por ID.
func (r *ImplementationRepo) GetByID(ctx context.Context, id string) (*entity.Implementation, error) {
	if !isUUID(id) {
		return nil, nil
	}
	impl, err := notFoundOnNoRows(scanImplementation(r.q.QueryRow(ctx,
		`SELECT `+implementationColumns+` FROM implementations WHERE id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get implementation: %w", err)
	}
	return impl, nil
}

// GetByFundingProject implementación del proyecto de financiación, si existe.
func (r *ImplementationRepo) GetByFundingProject(ctx context.Context, fundingProjectID string) (*entity.Implementation, error) {
	impl, err := notFoundOnNoRows(scanImplementation(r.q.QueryRow(ctx,
		`SELECT `+implementationColumns+` FROM implementations WHERE funding_project_id = $1`, fundingProjectID)))
	if err != nil {
		return nil, fmt.Errorf("get implementation by funding project: %w", err)
	}
	return impl, nil
}

// List implementaciones ordenadas por fecha de creación.
func (r *ImplementationRepo) List(ctx context.Context, f repository.ImplementationFilter) ([]*entity.Implementation, error) {
	var w where
	if f.State != "" {
		w.add("state = ?", f.State)
	}
	page, pageArgs := limitOffset(f.Limit, f.Offset)
	query, args := w.bind(`SELECT `+implementationColumns+` FROM implementations`, " ORDER BY created_at, id"+page, pageArgs...)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list implementations: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.Implementation, error) { return scanImplementation(row) })
}

// Lock SELECT ... FOR UPDATE sobre la fila de la implementación; solo tiene efecto dentro de una tx.
func (r *ImplementationRepo) Lock(ctx context.Context, id string) (*entity.Implementation, error) {
	if !isUUID(id) {
		return nil, nil
	}
	impl, err := notFoundOnNoRows(scanImplementation(r.q.QueryRow(ctx,
		`SELECT `+implementationColumns+` FROM implementations WHERE id = $1 FOR UPDATE`, id)))
	if err != nil {
		return nil, fmt.Errorf("lock implementation: %w", err)
	}
	return impl, nil
}

// ── Líneas reflejadas de la financiación ────────────────────────────────────

// BudgetProxyRepo líneas de presupuesto de la implementación.
type BudgetProxyRepo struct {
	q Querier
}

// NewBudgetProxyRepository construye el adaptador.
func NewBudgetProxyRepository(q Querier) *BudgetProxyRepo {
	return &BudgetProxyRepo{q: q}
}

// orden del presupuesto maestro
const budgetProxySelect = `
	SELECT p.id, p.implementation_id, p.funding_budget_line_id, p.created_at
	FROM implementation_budget_lines p
	JOIN funding_budget_lines b ON b.id = p.funding_budget_line_id`

func scanBudgetProxy(row pgx.Row) (*entity.BudgetProxyLine, error) {
	var p entity.BudgetProxyLine
	err := row.Scan(&p.ID, &p.ImplementationID, &p.FundingBudgetLineID, &p.CreatedAt)
	return &p, err
}

// Create persiste la línea; (implementación, línea maestra) es única.
func (r *BudgetProxyRepo) Create(ctx context.Context, line *entity.BudgetProxyLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO implementation_budget_lines (id, implementation_id, funding_budget_line_id, created_at)
		VALUES ($1, $2, $3, $4)`, line.ID, line.ImplementationID, line.FundingBudgetLineID, line.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert budget proxy line: %w",
			duplicate(err, "la línea de presupuesto %s ya está en la implementación %s", line.FundingBudgetLineID, line.ImplementationID))
	}
	return nil
}

// GetByID obtiene una línea de presupuesto de la implementación.
func (r *BudgetProxyRepo) GetByID(ctx context.Context, id string) (*entity.BudgetProxyLine, error) {
	if !isUUID(id) {
		return nil, nil
	}
	p, err := notFoundOnNoRows(scanBudgetProxy(r.q.QueryRow(ctx, budgetProxySelect+` WHERE p.id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get budget proxy line: %w", err)
	}
	return p, nil
}

// ListByImplementation líneas de la implementación en el orden del presupuesto maestro.
func (r *BudgetProxyRepo) ListByImplementation(ctx context.Context, implementationID string) ([]*entity.BudgetProxyLine, error) {
	rows, err := r.q.Query(ctx, budgetProxySelect+`
		WHERE p.implementation_id = $1 ORDER BY b.position, b.id`, implementationID)
	if err != nil {
		return nil, fmt.Errorf("list budget proxy lines: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.BudgetProxyLine, error) { return scanBudgetProxy(row) })
}

// ListByIDs líneas pedidas.
func (r *BudgetProxyRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.BudgetProxyLine, error) {
	if len(ids) == 0 {
		return []*entity.BudgetProxyLine{}, nil
	}
	rows, err := r.q.Query(ctx, budgetProxySelect+`
		WHERE p.id = ANY($1::uuid[]) ORDER BY b.position, b.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list budget proxy lines by ids: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.BudgetProxyLine, error) { return scanBudgetProxy(row) })
}

// AcquisitionProxyRepo adquisiciones de la implementación.
type AcquisitionProxyRepo struct {
	q Querier
}

// NewAcquisitionProxyRepository construye el adaptador.
func NewAcquisitionProxyRepository(q Querier) *AcquisitionProxyRepo {
	return &AcquisitionProxyRepo{q: q}
}

func (r *AcquisitionProxyRepo) Create(ctx context.Context, line *entity.AcquisitionProxyLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO implementation_acquisitions (id, implementation_id, funding_acquisition_id, created_at)
		VALUES ($1, $2, $3, $4)`, line.ID, line.ImplementationID, line.FundingAcquisitionID, line.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert acquisition proxy line: %w",
			duplicate(err, "la adquisición %s ya está en la implementación %s", line.FundingAcquisitionID, line.ImplementationID))
	}
	return nil
}

func (r *AcquisitionProxyRepo) ListByImplementation(ctx context.Context, implementationID string) ([]*entity.AcquisitionProxyLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.implementation_id, p.funding_acquisition_id, p.created_at
		FROM implementation_acquisitions p
		JOIN funding_acquisitions a ON a.id = p.funding_acquisition_id
		WHERE p.implementation_id = $1
		ORDER BY a.sequence, a.id`, implementationID)
	if err != nil {
		return nil, fmt.Errorf("list acquisition proxy lines: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.AcquisitionProxyLine, error) {
		var p entity.AcquisitionProxyLine
		err := row.Scan(&p.ID, &p.ImplementationID, &p.FundingAcquisitionID, &p.CreatedAt)
		return &p, err
	})
}

// ActivityProxyRepo actividades de la implementación.
type ActivityProxyRepo struct {
	q Querier
}

// NewActivityProxyRepository construye el adaptador.
func NewActivityProxyRepository(q Querier) *ActivityProxyRepo {
	return &ActivityProxyRepo{q: q}
}

func (r *ActivityProxyRepo) Create(ctx context.Context, line *entity.ActivityProxyLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO implementation_activities (id, implementation_id, funding_activity_id, created_at)
		VALUES ($1, $2, $3, $4)`, line.ID, line.ImplementationID, line.FundingActivityID, line.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity proxy line: %w",
			duplicate(err, "la actividad %s ya está en la implementación %s", line.FundingActivityID, line.ImplementationID))
	}
	return nil
}

func (r *ActivityProxyRepo) ListByImplementation(ctx context.Context, implementationID string) ([]*entity.ActivityProxyLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.implementation_id, p.funding_activity_id, p.created_at
		FROM implementation_activities p
		JOIN funding_activities a ON a.id = p.funding_activity_id
		WHERE p.implementation_id = $1
		ORDER BY a.sequence, a.id`, implementationID)
	if err != nil {
		return nil, fmt.Errorf("list activity proxy lines: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.ActivityProxyLine, error) {
		var p entity.ActivityProxyLine
		err := row.Scan(&p.ID, &p.ImplementationID, &p.FundingActivityID, &p.CreatedAt)
		return &p, err
	})
}
