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
	_ repository.SettlementRepository     = (*SettlementRepo)(nil)
	_ repository.SettlementLineRepository = (*SettlementLineRepo)(nil)
)

// SettlementRepo implementación de SettlementRepository.
type SettlementRepo struct {
	q Querier
}

// NewSettlementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSettlementRepository(q Querier) *SettlementRepo {
	return &SettlementRepo{q: q}
}

const settlementColumns = `id, implementation_id, number, date, notes, created_at, updated_at`

func scanSettlement(row pgx.Row) (*entity.Settlement, error) {
	var s entity.Settlement
	var notes *string
	err := row.Scan(&s.ID, &s.ImplementationID, &s.Number, &s.Date, &notes, &s.CreatedAt, &s.UpdatedAt)
	s.Notes = derefStr(notes)
	return &s, err
}

func (r *SettlementRepo) Create(ctx context.Context, s *entity.Settlement) error {
	const query = `
		INSERT INTO settlements (id, implementation_id, number, date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.q.Exec(ctx, query, s.ID, s.ImplementationID, s.Number, s.Date, nullIfEmpty(s.Notes), s.CreatedAt, s.UpdatedAt); err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

func (r *SettlementRepo) Update(ctx context.Context, s *entity.Settlement) error {
	const query = `
		UPDATE settlements
		SET number     = $2,
		    date       = $3,
		    notes      = $4,
		    updated_at = $5
		WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, s.ID, s.Number, s.Date, nullIfEmpty(s.Notes), s.UpdatedAt); err != nil {
		return fmt.Errorf("update settlement: %w", err)
	}
	return nil
}

func (r *SettlementRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM settlements WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError(domain.CodeHasDependents, "la decontare %s tiene líneas", id)
		}
		return fmt.Errorf("delete settlement: %w", err)
	}
	return nil
}

// GetByID obtiene una decontare por ID.
func (r *SettlementRepo) GetByID(ctx context.Context, id string) (*entity.Settlement, error) {
	if !isUUID(id) {
		return nil, nil
	}
	s, err := notFoundOnNoRows(scanSettlement(r.q.QueryRow(ctx, `SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	return s, nil
}

// List decontări de la implementación en orden de alta.
func (r *SettlementRepo) List(ctx context.Context, f repository.SettlementFilter) ([]*entity.Settlement, error) {
	var w where
	if f.ImplementationID != "" {
		if !isUUID(f.ImplementationID) {
			return []*entity.Settlement{}, nil
		}
		w.add("implementation_id = ?", f.ImplementationID)
	}
	page, pageArgs := limitOffset(f.Limit, f.Offset)
	query, args := w.bind(`SELECT `+settlementColumns+` FROM settlements`, " ORDER BY created_at, id"+page, pageArgs...)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.Settlement, error) { return scanSettlement(row) })
}

// ── Líneas de decontare ─────────────────────────────────────────────────────

// SettlementLineRepo implementación de SettlementLineRepository.
type SettlementLineRepo struct {
	q Querier
}

// NewSettlementLineRepository construye el adaptador.
func NewSettlementLineRepository(q Querier) *SettlementLineRepo {
	return &SettlementLineRepo{q: q}
}

const settlementLineColumns = `l.id, l.settlement_id, l.document_line_id, l.vat_rate,
	l.elig_base, l.elig_vat, l.elig_vat_manual, l.created_at, l.updated_at`

// settlementLineRefSelect resuelve la línea de presupuesto vía línea de documento y línea de contrato.
const settlementLineRefSelect = `SELECT ` + settlementLineColumns + `, s.implementation_id, cl.budget_proxy_line_id
	FROM settlement_lines l
	JOIN settlements s     ON s.id = l.settlement_id
	JOIN document_lines dl ON dl.id = l.document_line_id
	JOIN contract_lines cl ON cl.id = dl.contract_line_id`

func settlementLineDest(l *entity.SettlementLine, extra ...any) []any {
	return append([]any{&l.ID, &l.SettlementID, &l.DocumentLineID, &l.VATRate,
		&l.Amount.Base, &l.Amount.VAT, &l.Amount.VATManual, &l.CreatedAt, &l.UpdatedAt}, extra...)
}

func scanSettlementLine(row pgx.Row) (*entity.SettlementLine, error) {
	var l entity.SettlementLine
	err := row.Scan(settlementLineDest(&l)...)
	return &l, err
}

func scanSettlementLineRef(row pgx.Row) (entity.SettlementLineRef, error) {
	l := &entity.SettlementLine{}
	ref := entity.SettlementLineRef{Line: l}
	err := row.Scan(settlementLineDest(l, &ref.ImplementationID, &ref.BudgetProxyLineID)...)
	ref.DocumentLineID = l.DocumentLineID
	return ref, err
}

func (r *SettlementLineRepo) refs(ctx context.Context, what string, w *where) ([]entity.SettlementLineRef, error) {
	query, args := w.bind(settlementLineRefSelect, " ORDER BY l.created_at, l.id")
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return collect(rows, func(row pgx.Rows) (entity.SettlementLineRef, error) { return scanSettlementLineRef(row) })
}

func (r *SettlementLineRepo) Create(ctx context.Context, l *entity.SettlementLine) error {
	const query = `
		INSERT INTO settlement_lines (id, settlement_id, document_line_id, vat_rate,
		                              elig_base, elig_vat, elig_vat_manual, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query, l.ID, l.SettlementID, l.DocumentLineID, l.VATRate,
		l.Amount.Base, l.Amount.VAT, l.Amount.VATManual, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert settlement line: %w", err)
	}
	return nil
}

func (r *SettlementLineRepo) Update(ctx context.Context, l *entity.SettlementLine) error {
	const query = `
		UPDATE settlement_lines
		SET document_line_id = $2,
		    vat_rate         = $3,
		    elig_base        = $4,
		    elig_vat         = $5,
		    elig_vat_manual  = $6,
		    updated_at       = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, l.ID, l.DocumentLineID, l.VATRate,
		l.Amount.Base, l.Amount.VAT, l.Amount.VATManual, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update settlement line: %w", err)
	}
	return nil
}

func (r *SettlementLineRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM settlement_lines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete settlement line: %w", err)
	}
	return nil
}

// GetByID obtiene una línea de decontare.
func (r *SettlementLineRepo) GetByID(ctx context.Context, id string) (*entity.SettlementLine, error) {
	if !isUUID(id) {
		return nil, nil
	}
	l, err := notFoundOnNoRows(scanSettlementLine(r.q.QueryRow(ctx,
		`SELECT `+settlementLineColumns+` FROM settlement_lines l WHERE l.id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get settlement line: %w", err)
	}
	return l, nil
}

func (r *SettlementLineRepo) ListBySettlement(ctx context.Context, settlementID string) ([]*entity.SettlementLine, error) {
	rows, err := r.q.Query(ctx, `SELECT `+settlementLineColumns+`
		FROM settlement_lines l WHERE l.settlement_id = $1 ORDER BY l.created_at, l.id`, settlementID)
	if err != nil {
		return nil, fmt.Errorf("list settlement lines: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.SettlementLine, error) { return scanSettlementLine(row) })
}

// ListByDocumentLines líneas de decontare de la implementación sobre las líneas de documento dadas.
func (r *SettlementLineRepo) ListByDocumentLines(ctx context.Context, implementationID string, documentLineIDs []string) ([]entity.SettlementLineRef, error) {
	if len(documentLineIDs) == 0 {
		return []entity.SettlementLineRef{}, nil
	}
	var w where
	w.add("s.implementation_id = ?", implementationID)
	w.add("l.document_line_id = ANY(?::uuid[])", documentLineIDs)
	return r.refs(ctx, "list settlement lines by document lines", &w)
}

// ListByBudgetProxyLines barrido agrupado por línea de presupuesto.
func (r *SettlementLineRepo) ListByBudgetProxyLines(ctx context.Context, implementationIDs, budgetProxyLineIDs []string) ([]entity.SettlementLineRef, error) {
	if len(implementationIDs) == 0 || len(budgetProxyLineIDs) == 0 {
		return []entity.SettlementLineRef{}, nil
	}
	var w where
	w.add("s.implementation_id = ANY(?::uuid[])", implementationIDs)
	w.add("cl.budget_proxy_line_id = ANY(?::uuid[])", budgetProxyLineIDs)
	return r.refs(ctx, "scan settlement lines by budget", &w)
}

func (r *SettlementLineRepo) CountBySettlement(ctx context.Context, settlementID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM settlement_lines WHERE settlement_id = $1`, settlementID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count settlement lines: %w", err)
	}
	return n, nil
}

func (r *SettlementLineRepo) CountByDocumentLine(ctx context.Context, documentLineID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM settlement_lines WHERE document_line_id = $1`, documentLineID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count settlement lines by document line: %w", err)
	}
	return n, nil
}
