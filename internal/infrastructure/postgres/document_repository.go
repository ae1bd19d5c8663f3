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
	_ repository.DocumentRepository     = (*DocumentRepo)(nil)
	_ repository.DocumentLineRepository = (*DocumentLineRepo)(nil)
)

// DocumentRepo implementación de DocumentRepository.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, implementation_id, contract_id, type, number, date, issuer_name, notes, created_at, updated_at`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	var issuer, notes *string
	err := row.Scan(&d.ID, &d.ImplementationID, &d.ContractID, &d.Type, &d.Number, &d.Date,
		&issuer, &notes, &d.CreatedAt, &d.UpdatedAt)
	d.IssuerName = derefStr(issuer)
	d.Notes = derefStr(notes)
	return &d, err
}

// Create persiste la cabecera del documento.
func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	const query = `
		INSERT INTO documents (id, implementation_id, contract_id, type, number, date, issuer_name, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, d.ID, d.ImplementationID, d.ContractID, d.Type, d.Number, d.Date,
		nullIfEmpty(d.IssuerName), nullIfEmpty(d.Notes), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Update reescribe la cabecera, contrato incluido.
func (r *DocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	const query = `
		UPDATE documents
		SET contract_id = $2,
		    type        = $3,
		    number      = $4,
		    date        = $5,
		    issuer_name = $6,
		    notes       = $7,
		    updated_at  = $8
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, d.ID, d.ContractID, d.Type, d.Number, d.Date,
		nullIfEmpty(d.IssuerName), nullIfEmpty(d.Notes), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError(domain.CodeHasDependents, "el documento %s tiene líneas", id)
		}
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// GetByID obtiene un documento por ID.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	if !isUUID(id) {
		return nil, nil
	}
	d, err := notFoundOnNoRows(scanDocument(r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// List documentos filtrados en orden de alta.
func (r *DocumentRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	var w where
	if f.ImplementationID != "" {
		if !isUUID(f.ImplementationID) {
			return []*entity.Document{}, nil
		}
		w.add("implementation_id = ?", f.ImplementationID)
	}
	if f.ContractID != "" {
		if !isUUID(f.ContractID) {
			return []*entity.Document{}, nil
		}
		w.add("contract_id = ?", f.ContractID)
	}
	if f.Type != "" {
		w.add("type = ?", f.Type)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add("(number ILIKE ? OR issuer_name ILIKE ? OR notes ILIKE ?)", p, p, p)
	}
	page, pageArgs := limitOffset(f.Limit, f.Offset)
	query, args := w.bind(`SELECT `+documentColumns+` FROM documents`, " ORDER BY created_at, id"+page, pageArgs...)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.Document, error) { return scanDocument(row) })
}

// ── Líneas de documento ─────────────────────────────────────────────────────

// DocumentLineRepo implementación de DocumentLineRepository.
type DocumentLineRepo struct {
	q Querier
}

// NewDocumentLineRepository construye el adaptador.
func NewDocumentLineRepository(q Querier) *DocumentLineRepo {
	return &DocumentLineRepo{q: q}
}

const documentLineColumns = `l.id, l.document_id, l.contract_line_id, l.vat_rate,
	l.elig_base, l.elig_vat, l.elig_vat_manual, l.neelig_base, l.neelig_vat, l.neelig_vat_manual,
	l.notes, l.created_at, l.updated_at`

// documentLineRefSelect resuelve las claves de la línea a través de documento y línea de contrato.
const documentLineRefSelect = `SELECT ` + documentLineColumns + `, d.implementation_id, d.id, d.contract_id, cl.budget_proxy_line_id
	FROM document_lines l
	JOIN documents d       ON d.id = l.document_id
	JOIN contract_lines cl ON cl.id = l.contract_line_id`

// documentLineRow destino de escaneo; notes es NULL-able.
type documentLineRow struct {
	l     entity.DocumentLine
	notes *string
}

func (s *documentLineRow) dest(extra ...any) []any {
	l := &s.l
	return append([]any{&l.ID, &l.DocumentID, &l.ContractLineID, &l.VATRate,
		&l.Eligible.Base, &l.Eligible.VAT, &l.Eligible.VATManual,
		&l.NonEligible.Base, &l.NonEligible.VAT, &l.NonEligible.VATManual,
		&s.notes, &l.CreatedAt, &l.UpdatedAt}, extra...)
}

func (s *documentLineRow) line() *entity.DocumentLine {
	s.l.Notes = derefStr(s.notes)
	return &s.l
}

func scanDocumentLine(row pgx.Row) (*entity.DocumentLine, error) {
	var s documentLineRow
	err := row.Scan(s.dest()...)
	return s.line(), err
}

func scanDocumentLineRef(row pgx.Row) (entity.DocumentLineRef, error) {
	var s documentLineRow
	var ref entity.DocumentLineRef
	err := row.Scan(s.dest(&ref.ImplementationID, &ref.DocumentID, &ref.ContractID, &ref.BudgetProxyLineID)...)
	ref.Line = s.line()
	return ref, err
}

func (r *DocumentLineRepo) refs(ctx context.Context, what string, w *where, page string, pageArgs ...any) ([]entity.DocumentLineRef, error) {
	query, args := w.bind(documentLineRefSelect, " ORDER BY l.created_at, l.id"+page, pageArgs...)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return collect(rows, func(row pgx.Rows) (entity.DocumentLineRef, error) { return scanDocumentLineRef(row) })
}

func (r *DocumentLineRepo) Create(ctx context.Context, l *entity.DocumentLine) error {
	const query = `
		INSERT INTO document_lines (id, document_id, contract_line_id, vat_rate,
		                            elig_base, elig_vat, elig_vat_manual, neelig_base, neelig_vat, neelig_vat_manual,
		                            notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query, l.ID, l.DocumentID, l.ContractLineID, l.VATRate,
		l.Eligible.Base, l.Eligible.VAT, l.Eligible.VATManual,
		l.NonEligible.Base, l.NonEligible.VAT, l.NonEligible.VATManual,
		nullIfEmpty(l.Notes), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document line: %w", err)
	}
	return nil
}

func (r *DocumentLineRepo) Update(ctx context.Context, l *entity.DocumentLine) error {
	const query = `
		UPDATE document_lines
		SET contract_line_id  = $2,
		    vat_rate          = $3,
		    elig_base         = $4,
		    elig_vat          = $5,
		    elig_vat_manual   = $6,
		    neelig_base       = $7,
		    neelig_vat        = $8,
		    neelig_vat_manual = $9,
		    notes             = $10,
		    updated_at        = $11
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, l.ID, l.ContractLineID, l.VATRate,
		l.Eligible.Base, l.Eligible.VAT, l.Eligible.VATManual,
		l.NonEligible.Base, l.NonEligible.VAT, l.NonEligible.VATManual,
		nullIfEmpty(l.Notes), l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update document line: %w", err)
	}
	return nil
}

func (r *DocumentLineRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM document_lines WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewValidationError(domain.CodeHasDependents, "la línea de documento %s tiene líneas de decontare", id)
		}
		return fmt.Errorf("delete document line: %w", err)
	}
	return nil
}

// GetByID obtiene una línea de documento.
func (r *DocumentLineRepo) GetByID(ctx context.Context, id string) (*entity.DocumentLine, error) {
	if !isUUID(id) {
		return nil, nil
	}
	l, err := notFoundOnNoRows(scanDocumentLine(r.q.QueryRow(ctx,
		`SELECT `+documentLineColumns+` FROM document_lines l WHERE l.id = $1`, id)))
	if err != nil {
		return nil, fmt.Errorf("get document line: %w", err)
	}
	return l, nil
}

// GetRef línea con implementación, documento, contrato y línea de presupuesto resueltos.
func (r *DocumentLineRepo) GetRef(ctx context.Context, id string) (*entity.DocumentLineRef, error) {
	if !isUUID(id) {
		return nil, nil
	}
	ref, err := scanDocumentLineRef(r.q.QueryRow(ctx, documentLineRefSelect+` WHERE l.id = $1`, id))
	out, err := notFoundOnNoRows(&ref, err)
	if err != nil {
		return nil, fmt.Errorf("get document line ref: %w", err)
	}
	return out, nil
}

func (r *DocumentLineRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.DocumentLine, error) {
	rows, err := r.q.Query(ctx, `SELECT `+documentLineColumns+`
		FROM document_lines l WHERE l.document_id = $1 ORDER BY l.created_at, l.id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document lines: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (*entity.DocumentLine, error) { return scanDocumentLine(row) })
}

// ListByContract líneas de todos los documentos del contrato en la implementación.
func (r *DocumentLineRepo) ListByContract(ctx context.Context, implementationID, contractID string) ([]entity.DocumentLineRef, error) {
	var w where
	w.add("d.implementation_id = ?", implementationID)
	w.add("d.contract_id = ?", contractID)
	return r.refs(ctx, "list document lines by contract", &w, "")
}

func (r *DocumentLineRepo) ListRefsByIDs(ctx context.Context, ids []string) ([]entity.DocumentLineRef, error) {
	if len(ids) == 0 {
		return []entity.DocumentLineRef{}, nil
	}
	var w where
	w.add("l.id = ANY(?::uuid[])", ids)
	return r.refs(ctx, "list document line refs", &w, "")
}

// ListByBudgetProxyLines barrido agrupado por línea de presupuesto vía la línea de contrato.
func (r *DocumentLineRepo) ListByBudgetProxyLines(ctx context.Context, implementationIDs, budgetProxyLineIDs []string) ([]entity.DocumentLineRef, error) {
	if len(implementationIDs) == 0 || len(budgetProxyLineIDs) == 0 {
		return []entity.DocumentLineRef{}, nil
	}
	var w where
	w.add("d.implementation_id = ANY(?::uuid[])", implementationIDs)
	w.add("cl.budget_proxy_line_id = ANY(?::uuid[])", budgetProxyLineIDs)
	return r.refs(ctx, "scan document lines by budget", &w, "")
}

// Search busca por número o emisor del documento, notas de la línea o nombre de la línea de contrato.
func (r *DocumentLineRepo) Search(ctx context.Context, f repository.DocumentLineFilter) ([]entity.DocumentLineRef, error) {
	var w where
	if f.ImplementationID != "" {
		if !isUUID(f.ImplementationID) {
			return []entity.DocumentLineRef{}, nil
		}
		w.add("d.implementation_id = ?", f.ImplementationID)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		w.add("(d.number ILIKE ? OR d.issuer_name ILIKE ? OR l.notes ILIKE ? OR cl.name ILIKE ?)", p, p, p, p)
	}
	page, pageArgs := limitOffset(f.Limit, 0)
	return r.refs(ctx, "search document lines", &w, page, pageArgs...)
}

func (r *DocumentLineRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM document_lines WHERE document_id = $1`, documentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count document lines: %w", err)
	}
	return n, nil
}

func (r *DocumentLineRepo) CountByContractLine(ctx context.Context, contractLineID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM document_lines WHERE contract_line_id = $1`, contractLineID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count document lines by contract line: %w", err)
	}
	return n, nil
}
