package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
)

var (
	_ repository.ContractRepository     = (*ContractRepo)(nil)
	_ repository.ContractLineRepository = (*ContractLineRepo)(nil)
)

// ContractRepo implementación de ContractRepository (usable con pool o tx).
type ContractRepo struct {
	q Querier
}

// NewContractRepository construye el adaptador. Pasar pool o tx (Querier).
func NewContractRepository(q Querier) *ContractRepo {
	return &ContractRepo{q: q}
}

const contractColumns = `id, implementation_id, name, number, date, type, award_state, procedure_type,
	seap_number, seap_date, supplier_name, start_date, end_date, activity_id, acquisition_id, created_at, updated_at`

func scanContract(row pgx.Row) (*entity.Contract, error) {
	var c entity.Contract
	var seapNumber, supplier, activityID, acquisitionID *string
	err := row.Scan(&c.ID, &c.ImplementationID, &c.Name, &c.Number, &c.Date, &c.Type, &c.AwardState, &c.ProcedureType,
		&seapNumber, &c.SEAPDate, &supplier, &c.StartDate, &c.EndDate, &activityID, &acquisitionID, &c.CreatedAt, &c.UpdatedAt)
	c.SEAPNumber = derefStr(seapNumber)
	c.SupplierName = derefStr(supplier)
	c.ActivityID = derefStr(activityID)
	c.AcquisitionID = derefStr(acquisitionID)
	return &c, err
}

// Create persiste la cabecera del contrato.
func (r *ContractRepo) Create(ctx context.Context, c *entity.Contract) error {
	const query = `
		INSERT INTO contracts (id, implementation_id, name, number, date, type, award_state, procedure_type,
		                       seap_number, seap_date, supplier_name, start_date, end_date, activity_id, acquisition_id,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.ImplementationID, c.Name, c.Number, c.Date, c.Type, c.AwardState, c.ProcedureType,
		nullIfEmpty(c.SEAPNumber), dateOrNil(c.SEAPDate), nullIfEmpty(c.SupplierName), dateOrNil(c.StartDate), dateOrNil(c.EndDate),
		nullIfEmpty(c.ActivityID), nullIfEmpty(c.AcquisitionID), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

// Update reescribe la cabecera; la implementación no cambia.
func (r *ContractRepo) Update(ctx context.Context, c *entity.Contract) error {
	const query = `
		UPDATE contracts
		SET name           = $2,
		    number         = $3,
		    date           = $4,
		    type           = $5,
		    award_state    = $6,
		    procedure_type = $7,
		    seap_number    = $8,
		    seap_date      = $9,
		    supplier_name  = $10,
		    start_date     = $11,
		    end_date       = $12,
		    activity_id    = $13,
		    acquisition_id = $14,
		    updated_at     = $15
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, c.Number, c.Date, c.Type, c.AwardState, c.ProcedureType,
		nullIfEmpty(c.SEAPNumber), dateOrNil(c.SEAPDate), nullIfEmpty(c.SupplierName), dateOrNil(c.StartDate), dateOrNil(c.EndDate),
		nullIfEmpty(c.ActivityID), nullIfEmpty(c.AcquisitionID), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	return nil
}

// Delete borra el contrato. Las claves foráneas impiden borrar uno todavía referenciado.
func (r *ContractRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError(domain.CodeHasDependents, "el contrato %s tiene líneas o documentos", id)
		}
		return fmt.Errorf("delete contract: %w", err)
	}
	return nil
}

// GetByID obtiene un contrato por ID.
func (r *ContractRepo) GetByID(ctx context.Context, id string) (*entity.Contract, error) {
	if !isUUID(id) {
		return nil, nil
	}
	c, err := notFoundOnNoRows(scanContract(r.q.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

// List contratos filtrados, por fecha y número.
func (r *ContractRepo) List(ctx context.Context, f repository.ContractFilter) ([]*entity.Contract, error) {
	var w where
	if f.ImplementationID != "" {
		if !isUUID(f.ImplementationID) {
			return []*entity.Contract{}, nil
		}
		w.add("implementation_id = ?", f.ImplementationID)
	}
	if f.AwardState != "" {
		w.add("award_state = ?", f.AwardState)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add("(name ILIKE ? OR number ILIKE ? OR supplier_name ILIKE ?)", p, p, p)
	}
	page, pageArgs := limitOffset(f.Limit, f.Offset)
	query, args := w.bind(`SELECT `+contractColumns+` FROM contracts`, " ORDER BY created_at, id"+page, pageArgs...)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.Contract, error) { return scanContract(row) })
}

// ── Líneas de contrato ──────────────────────────────────────────────────────

// ContractLineRepo implementación de ContractLineRepository.
type ContractLineRepo struct {
	q Querier
}

// NewContractLineRepository construye el adaptador.
func NewContractLineRepository(q Querier) *ContractLineRepo {
	return &ContractLineRepo{q: q}
}

const contractLineColumns = `l.id, l.contract_id, l.budget_proxy_line_id, l.name, l.vat_rate,
	l.base_amount, l.vat_amount, l.vat_manual, l.created_at, l.updated_at`

func scanContractLine(row pgx.Row) (*entity.ContractLine, error) {
	var l entity.ContractLine
	err := row.Scan(&l.ID, &l.ContractID, &l.BudgetProxyLineID, &l.Name, &l.VATRate,
		&l.Amount.Base, &l.Amount.VAT, &l.Amount.VATManual, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (r *ContractLineRepo) list(ctx context.Context, what, cond string, args ...any) ([]*entity.ContractLine, error) {
	rows, err := r.q.Query(ctx, `SELECT `+contractLineColumns+`
		FROM contract_lines l JOIN contracts c ON c.id = l.contract_id
		WHERE `+cond+` ORDER BY l.created_at, l.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.ContractLine, error) { return scanContractLine(row) })
}

// Create persiste la línea; uq_contract_lines_budget impide repetir la línea de presupuesto.
func (r *ContractLineRepo) Create(ctx context.Context, l *entity.ContractLine) error {
	const query = `
		INSERT INTO contract_lines (id, contract_id, budget_proxy_line_id, name, vat_rate,
		                            base_amount, vat_amount, vat_manual, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, l.ID, l.ContractID, l.BudgetProxyLineID, l.Name, l.VATRate,
		l.Amount.Base, l.Amount.VAT, l.Amount.VATManual, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert contract line: %w",
			duplicate(err, "el contrato %s ya tiene una línea para la línea de presupuesto %s", l.ContractID, l.BudgetProxyLineID))
	}
	return nil
}

// Update reescribe importes, tasa, nombre y línea de presupuesto.
func (r *ContractLineRepo) Update(ctx context.Context, l *entity.ContractLine) error {
	const query = `
		UPDATE contract_lines
		SET budget_proxy_line_id = $2,
		    name                 = $3,
		    vat_rate             = $4,
		    base_amount          = $5,
		    vat_amount           = $6,
		    vat_manual           = $7,
		    updated_at           = $8
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, l.ID, l.BudgetProxyLineID, l.Name, l.VATRate,
		l.Amount.Base, l.Amount.VAT, l.Amount.VATManual, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update contract line: %w",
			duplicate(err, "el contrato %s ya tiene una línea para la línea de presupuesto %s", l.ContractID, l.BudgetProxyLineID))
	}
	return nil
}

// Delete borra la línea.
func (r *ContractLineRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM contract_lines WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError(domain.CodeHasDependents, "la línea de contrato %s tiene líneas de documento", id)
		}
		return fmt.Errorf("delete contract line: %w", err)
	}
	return nil
}

// GetByID obtiene una línea de contrato.
func (r *ContractLineRepo) GetByID(ctx context.Context, id string) (*entity.ContractLine, error) {
	if !isUUID(id) {
		return nil, nil
	}
	l, err := notFoundOnNoRows(scanContractLine(r.q.QueryRow(ctx,
		`SELECT `+contractLineColumns+` FROM contract_lines l WHERE l.id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get contract line: %w", err)
	}
	return l, nil
}

// GetByContractAndBudget línea del contrato para la línea de presupuesto, o nil.
func (r *ContractLineRepo) GetByContractAndBudget(ctx context.Context, contractID, budgetProxyLineID string) (*entity.ContractLine, error) {
	l, err := notFoundOnNoRows(scanContractLine(r.q.QueryRow(ctx,
		`SELECT `+contractLineColumns+` FROM contract_lines l
		 WHERE l.contract_id = $1 AND l.budget_proxy_line_id = $2`, contractID, budgetProxyLineID)))
	if err != nil {
		return nil, fmt.Errorf("get contract line by budget: %w", err)
	}
	return l, nil
}

func (r *ContractLineRepo) ListByContract(ctx context.Context, contractID string) ([]*entity.ContractLine, error) {
	return r.list(ctx, "list contract lines", "l.contract_id = $1", contractID)
}

func (r *ContractLineRepo) ListByContracts(ctx context.Context, contractIDs []string) ([]*entity.ContractLine, error) {
	if len(contractIDs) == 0 {
		return []*entity.ContractLine{}, nil
	}
	return r.list(ctx, "list contract lines by contracts", "l.contract_id = ANY($1::uuid[])", contractIDs)
}

// ListByBudgetProxyLines barrido agrupado de líneas de contrato por línea de presupuesto.
func (r *ContractLineRepo) ListByBudgetProxyLines(ctx context.Context, implementationIDs, budgetProxyLineIDs []string) ([]*entity.ContractLine, error) {
	if len(implementationIDs) == 0 || len(budgetProxyLineIDs) == 0 {
		return []*entity.ContractLine{}, nil
	}
	return r.list(ctx, "scan contract lines by budget",
		"c.implementation_id = ANY($1::uuid[]) AND l.budget_proxy_line_id = ANY($2::uuid[])",
		implementationIDs, budgetProxyLineIDs)
}

func (r *ContractLineRepo) CountByContract(ctx context.Context, contractID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM contract_lines WHERE contract_id = $1`, contractID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contract lines: %w", err)
	}
	return n, nil
}
