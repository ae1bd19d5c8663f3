package implementation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/execution"
	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

// Engine motor de agregación: ejecuta los barridos agrupados contra los repositorios
// y delega el cálculo en el paquete execution. Siempre trabaja sobre los repositorios que
// recibe, de modo que dentro de una transacción ve los cambios aún no confirmados.
type Engine struct {
	graph *execution.Graph
	log   *logger.Logger
}

// NewEngine construye el motor con el grafo de dependencias de la ejecución.
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{graph: execution.ExecutionGraph(), log: log}
}

// Change describe una mutación: campos tocados y claves afectadas (valores antiguos y nuevos).
type Change struct {
	ImplementationID   string
	Fields             []execution.Field
	BudgetProxyLineIDs []string
	DocumentLineIDs    []string
}

// Recalculated valores recalculados para el cierre de una mutación.
type Recalculated struct {
	Nodes  []execution.Node
	Budget map[string]entity.BudgetRollup
	Panels map[string]execution.SettlementPanels
}

// scope implementación y financiación de una pasada.
type scope struct {
	impl    *entity.Implementation
	funding *entity.FundingProject
}

func (s scope) coefficient() *decimal.Decimal {
	if s.funding == nil {
		return nil
	}
	return s.funding.ContributionCoefficient
}

func (s scope) nonReimbursableCoef() decimal.Decimal {
	return entity.NonReimbursableCoefficient(s.coefficient())
}

func loadScope(ctx context.Context, r Repositories, implementationID string) (scope, error) {
	impl, err := r.Implementations.GetByID(ctx, implementationID)
	if err != nil {
		return scope{}, fmt.Errorf("cargar implementación: %w", err)
	}
	if impl == nil {
		return scope{}, domain.ErrNotFound
	}
	funding, err := r.Funding.GetProject(ctx, impl.FundingProjectID)
	if err != nil {
		return scope{}, fmt.Errorf("cargar financiación: %w", err)
	}
	return scope{impl: impl, funding: funding}, nil
}

// BudgetRollups calcula los acumulados de las líneas de presupuesto dadas con exactamente tres
// barridos agrupados. Devuelve también las líneas maestras por ID de línea maestra.
func (e *Engine) BudgetRollups(ctx context.Context, r Repositories, proxies []*entity.BudgetProxyLine) (map[string]entity.BudgetRollup, map[string]*entity.BudgetLine, error) {
	if len(proxies) == 0 {
		return map[string]entity.BudgetRollup{}, map[string]*entity.BudgetLine{}, nil
	}

	implIDs := uniqueStrings(len(proxies), func(i int) string { return proxies[i].ImplementationID })
	proxyIDs := uniqueStrings(len(proxies), func(i int) string { return proxies[i].ID })
	masterIDs := uniqueStrings(len(proxies), func(i int) string { return proxies[i].FundingBudgetLineID })

	coefs := make(map[string]*decimal.Decimal, len(implIDs))
	for _, id := range implIDs {
		sc, err := loadScope(ctx, r, id)
		if err != nil {
			return nil, nil, err
		}
		coefs[id] = sc.coefficient()
	}

	masters, err := loadMasters(ctx, r, masterIDs)
	if err != nil {
		return nil, nil, err
	}

	contractLines, err := r.ContractLines.ListByBudgetProxyLines(ctx, implIDs, proxyIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("barrido de líneas de contrato: %w", err)
	}
	documentLines, err := r.DocumentLines.ListByBudgetProxyLines(ctx, implIDs, proxyIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("barrido de líneas de documento: %w", err)
	}
	settlementLines, err := r.SettlementLines.ListByBudgetProxyLines(ctx, implIDs, proxyIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("barrido de líneas de decontare: %w", err)
	}

	targets := make([]execution.BudgetTarget, 0, len(proxies))
	for _, p := range proxies {
		targets = append(targets, execution.BudgetTarget{
			Proxy:       p,
			Master:      masters[p.FundingBudgetLineID],
			Coefficient: coefs[p.ImplementationID],
		})
	}
	return execution.AccumulateBudgetRollups(targets, contractLines, documentLines, settlementLines), masters, nil
}

// PanelContext datos auxiliares devueltos junto a los paneles para componer respuestas.
type PanelContext struct {
	DocumentLines map[string]entity.DocumentLineRef
	NonReimbCoef  decimal.Decimal
}

// SettlementPanels calcula los paneles de las líneas de decontare de una implementación con dos
// consultas agrupadas (por línea de documento y por línea de presupuesto) para toda la pasada.
func (e *Engine) SettlementPanels(ctx context.Context, r Repositories, implementationID string, lines []*entity.SettlementLine) (map[string]execution.SettlementPanels, PanelContext, error) {
	sc, err := loadScope(ctx, r, implementationID)
	if err != nil {
		return nil, PanelContext{}, err
	}
	pc := PanelContext{DocumentLines: map[string]entity.DocumentLineRef{}, NonReimbCoef: sc.nonReimbursableCoef()}
	if len(lines) == 0 {
		return map[string]execution.SettlementPanels{}, pc, nil
	}

	docLineIDs := uniqueStrings(len(lines), func(i int) string { return lines[i].DocumentLineID })
	refs, err := r.DocumentLines.ListRefsByIDs(ctx, docLineIDs)
	if err != nil {
		return nil, pc, fmt.Errorf("cargar líneas de documento: %w", err)
	}
	for _, ref := range refs {
		pc.DocumentLines[ref.Line.ID] = ref
	}

	proxyIDs := uniqueStrings(len(refs), func(i int) string { return refs[i].BudgetProxyLineID })
	proxies, err := r.BudgetLines.ListByIDs(ctx, proxyIDs)
	if err != nil {
		return nil, pc, fmt.Errorf("cargar líneas de presupuesto: %w", err)
	}
	masterByProxy := make(map[string]string, len(proxies))
	for _, p := range proxies {
		masterByProxy[p.ID] = p.FundingBudgetLineID
	}
	masters, err := loadMasters(ctx, r, uniqueStrings(len(proxies), func(i int) string { return proxies[i].FundingBudgetLineID }))
	if err != nil {
		return nil, pc, err
	}

	byDoc, err := r.SettlementLines.ListByDocumentLines(ctx, implementationID, docLineIDs)
	if err != nil {
		return nil, pc, fmt.Errorf("agrupado por línea de documento: %w", err)
	}
	byBudget, err := r.SettlementLines.ListByBudgetProxyLines(ctx, []string{implementationID}, proxyIDs)
	if err != nil {
		return nil, pc, fmt.Errorf("agrupado por línea de presupuesto: %w", err)
	}
	groups := execution.SettledGroups{
		ByDocumentLine: execution.GroupSettlementLines(byDoc).ByDocumentLine,
		ByBudgetLine:   execution.GroupSettlementLines(byBudget).ByBudgetLine,
	}

	subjects := make([]execution.PanelSubject, 0, len(lines))
	for _, l := range lines {
		ref := pc.DocumentLines[l.DocumentLineID]
		subjects = append(subjects, execution.PanelSubject{
			LineID:              l.ID,
			DocumentLine:        ref.Line,
			BudgetProxyLineID:   ref.BudgetProxyLineID,
			Master:              masters[masterByProxy[ref.BudgetProxyLineID]],
			NonReimbursableCoef: pc.NonReimbCoef,
		})
	}
	return execution.ComputeSettlementPanels(subjects, groups), pc, nil
}

// Recalculate resuelve el cierre de los cambios en el grafo y recalcula solo lo afectado,
// agrupado por implementación.
func (e *Engine) Recalculate(ctx context.Context, r Repositories, changes ...Change) (*Recalculated, error) {
	out := &Recalculated{
		Budget: map[string]entity.BudgetRollup{},
		Panels: map[string]execution.SettlementPanels{},
	}
	var fields []execution.Field
	byImpl := map[string]*Change{}
	var order []string
	for i := range changes {
		ch := changes[i]
		fields = append(fields, ch.Fields...)
		acc, ok := byImpl[ch.ImplementationID]
		if !ok {
			acc = &Change{ImplementationID: ch.ImplementationID}
			byImpl[ch.ImplementationID] = acc
			order = append(order, ch.ImplementationID)
		}
		acc.Fields = append(acc.Fields, ch.Fields...)
		acc.BudgetProxyLineIDs = append(acc.BudgetProxyLineIDs, ch.BudgetProxyLineIDs...)
		acc.DocumentLineIDs = append(acc.DocumentLineIDs, ch.DocumentLineIDs...)
	}
	out.Nodes = e.graph.Downstream(fields...)

	for _, implID := range order {
		ch := byImpl[implID]
		proxyIDs := compact(ch.BudgetProxyLineIDs)
		docLineIDs := compact(ch.DocumentLineIDs)

		if e.graph.Affects(execution.NodeBudgetRollups, ch.Fields...) && len(proxyIDs) > 0 {
			proxies, err := r.BudgetLines.ListByIDs(ctx, proxyIDs)
			if err != nil {
				return nil, fmt.Errorf("cargar líneas de presupuesto: %w", err)
			}
			rollups, _, err := e.BudgetRollups(ctx, r, proxies)
			if err != nil {
				return nil, err
			}
			for id, ru := range rollups {
				out.Budget[id] = ru
			}
		}

		if e.graph.Affects(execution.NodeSettlementPanels, ch.Fields...) && (len(proxyIDs) > 0 || len(docLineIDs) > 0) {
			lines, err := affectedSettlementLines(ctx, r, implID, docLineIDs, proxyIDs)
			if err != nil {
				return nil, err
			}
			panels, _, err := e.SettlementPanels(ctx, r, implID, lines)
			if err != nil {
				return nil, err
			}
			for id, p := range panels {
				out.Panels[id] = p
			}
		}
	}
	e.log.Debug().
		Int("nodes", len(out.Nodes)).
		Int("budget_lines", len(out.Budget)).
		Int("settlement_lines", len(out.Panels)).
		Msg("recálculo de la ejecución")
	return out, nil
}

func affectedSettlementLines(ctx context.Context, r Repositories, implID string, docLineIDs, proxyIDs []string) ([]*entity.SettlementLine, error) {
	seen := map[string]bool{}
	var lines []*entity.SettlementLine
	add := func(refs []entity.SettlementLineRef) {
		for _, ref := range refs {
			if !seen[ref.Line.ID] {
				seen[ref.Line.ID] = true
				lines = append(lines, ref.Line)
			}
		}
	}
	if len(docLineIDs) > 0 {
		refs, err := r.SettlementLines.ListByDocumentLines(ctx, implID, docLineIDs)
		if err != nil {
			return nil, fmt.Errorf("líneas de decontare por documento: %w", err)
		}
		add(refs)
	}
	if len(proxyIDs) > 0 {
		refs, err := r.SettlementLines.ListByBudgetProxyLines(ctx, []string{implID}, proxyIDs)
		if err != nil {
			return nil, fmt.Errorf("líneas de decontare por presupuesto: %w", err)
		}
		add(refs)
	}
	return lines, nil
}

// DocumentCeiling calcula las sumas del control documento vs contrato.
func (e *Engine) DocumentCeiling(ctx context.Context, r Repositories, doc *entity.Document) (execution.DocumentCeiling, error) {
	refs, err := r.DocumentLines.ListByContract(ctx, doc.ImplementationID, doc.ContractID)
	if err != nil {
		return execution.DocumentCeiling{}, fmt.Errorf("líneas de documento del contrato: %w", err)
	}
	var current, other []*entity.DocumentLine
	for _, ref := range refs {
		if ref.DocumentID == doc.ID {
			current = append(current, ref.Line)
		} else {
			other = append(other, ref.Line)
		}
	}
	contractLines, err := r.ContractLines.ListByContract(ctx, doc.ContractID)
	if err != nil {
		return execution.DocumentCeiling{}, fmt.Errorf("líneas de contrato: %w", err)
	}
	return execution.NewDocumentCeiling(current, other, contractLines), nil
}

// EnforceDocumentCeiling rechaza si el total documentado del contrato supera su valor.
func (e *Engine) EnforceDocumentCeiling(ctx context.Context, r Repositories, doc *entity.Document) (execution.DocumentCeiling, error) {
	c, err := e.DocumentCeiling(ctx, r, doc)
	if err != nil {
		return c, err
	}
	e.log.Debug().
		Str("document_id", doc.ID).
		Str("contract_id", doc.ContractID).
		Str("current_total", c.Current.StringFixed(2)).
		Str("other_total", c.Other.StringFixed(2)).
		Str("grand_total", c.Grand.StringFixed(2)).
		Str("contract_total", c.ContractTotal.StringFixed(2)).
		Msg("control documento vs contrato")
	if !c.Exceeded() {
		return c, nil
	}
	contract, err := r.Contracts.GetByID(ctx, doc.ContractID)
	if err != nil {
		return c, fmt.Errorf("cargar contrato: %w", err)
	}
	contractName := doc.ContractID
	if contract != nil {
		contractName = contract.DisplayName()
	}
	e.log.Warn().
		Str("document_id", doc.ID).
		Str("contract_id", doc.ContractID).
		Str("grand_total", c.Grand.StringFixed(2)).
		Str("contract_total", c.ContractTotal.StringFixed(2)).
		Msg("documentos por encima del valor del contrato")
	grand, contractTotal := c.Grand.StringFixed(2), c.ContractTotal.StringFixed(2)
	if grand == contractTotal {
		// el exceso está por debajo del céntimo: se muestran los valores sin redondear
		grand, contractTotal = c.Grand.String(), c.ContractTotal.String()
	}
	return c, domain.NewValidationError(domain.CodeCeilingExceeded,
		"los documentos superan el valor del contrato %s (implementación %s): documento %s, total documento %s, otros documentos %s, total documentado %s, total contrato %s",
		contractName, doc.ImplementationID, doc.DisplayName(),
		c.Current.StringFixed(2), c.Other.StringFixed(2), grand, contractTotal)
}

// EnforceNonReimbursable rechaza si lo solicitado sobre la línea de documento (esta línea más las
// demás de la implementación) supera la parte no reembolsable, en base o en IVA.
func (e *Engine) EnforceNonReimbursable(ctx context.Context, r Repositories, implementationID string, line *entity.SettlementLine, ref entity.DocumentLineRef, coef decimal.Decimal) error {
	siblings, err := r.SettlementLines.ListByDocumentLines(ctx, implementationID, []string{ref.Line.ID})
	if err != nil {
		return fmt.Errorf("líneas de decontare de la línea de documento: %w", err)
	}
	others := make([]*entity.SettlementLine, 0, len(siblings))
	for _, s := range siblings {
		others = append(others, s.Line)
	}
	c := execution.NewNonReimbursableCeiling(ref.Line, coef, line.Amount, others, line.ID)
	e.log.Debug().
		Str("document_line_id", ref.Line.ID).
		Str("sum_base", c.SumBase.StringFixed(2)).
		Str("max_base", c.MaxBase.StringFixed(2)).
		Str("sum_vat", c.SumVAT.StringFixed(2)).
		Str("max_vat", c.MaxVAT.StringFixed(2)).
		Msg("control decontare vs no reembolsable")

	switch {
	case c.BaseExceeded():
		e.log.Warn().Str("document_line_id", ref.Line.ID).Msg("base decontada por encima de lo no reembolsable")
		return domain.NewValidationError(domain.CodeNonReimbursableExceeded,
			"la base decontada sobre la línea de documento %s (%s) supera el máximo no reembolsable %s (elegible %s × coeficiente %s)",
			ref.Line.ID, c.SumBase.StringFixed(2), c.MaxBase.StringFixed(2), ref.Line.Eligible.Base.StringFixed(2), coef.String())
	case c.VATExceeded():
		e.log.Warn().Str("document_line_id", ref.Line.ID).Msg("IVA decontado por encima de lo no reembolsable")
		return domain.NewValidationError(domain.CodeNonReimbursableExceeded,
			"el IVA decontado sobre la línea de documento %s (%s) supera el máximo no reembolsable %s (elegible %s × coeficiente %s)",
			ref.Line.ID, c.SumVAT.StringFixed(2), c.MaxVAT.StringFixed(2), ref.Line.Eligible.VAT.StringFixed(2), coef.String())
	}
	return nil
}

// EnforceSettledWithinDocumentLine rechaza la edición de una línea de documento cuando lo ya
// decontado sobre ella deja de caber en su máximo no reembolsable.
func (e *Engine) EnforceSettledWithinDocumentLine(ctx context.Context, r Repositories, implementationID string, docLine *entity.DocumentLine) error {
	settled, err := r.SettlementLines.ListByDocumentLines(ctx, implementationID, []string{docLine.ID})
	if err != nil {
		return fmt.Errorf("líneas de decontare de la línea de documento: %w", err)
	}
	if len(settled) == 0 {
		return nil
	}
	sc, err := loadScope(ctx, r, implementationID)
	if err != nil {
		return err
	}
	coef := sc.nonReimbursableCoef()
	lines := make([]*entity.SettlementLine, 0, len(settled))
	for _, s := range settled {
		lines = append(lines, s.Line)
	}
	c := execution.NewNonReimbursableCeiling(docLine, coef, entity.TaxedAmount{}, lines, "")
	if !c.BaseExceeded() && !c.VATExceeded() {
		return nil
	}
	e.log.Warn().
		Str("document_line_id", docLine.ID).
		Str("sum_base", c.SumBase.StringFixed(2)).
		Str("max_base", c.MaxBase.StringFixed(2)).
		Str("sum_vat", c.SumVAT.StringFixed(2)).
		Str("max_vat", c.MaxVAT.StringFixed(2)).
		Msg("edición de línea de documento por debajo de lo decontado")
	return domain.NewValidationError(domain.CodeNonReimbursableExceeded,
		"la línea de documento %s ya tiene decontado base %s e IVA %s; el nuevo elegible (%s + %s) × coeficiente %s solo admite base %s e IVA %s",
		docLine.ID, c.SumBase.StringFixed(2), c.SumVAT.StringFixed(2),
		docLine.Eligible.Base.StringFixed(2), docLine.Eligible.VAT.StringFixed(2), coef.String(),
		c.MaxBase.StringFixed(2), c.MaxVAT.StringFixed(2))
}

func loadMasters(ctx context.Context, r Repositories, ids []string) (map[string]*entity.BudgetLine, error) {
	out := make(map[string]*entity.BudgetLine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	lines, err := r.Funding.ListBudgetLinesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("cargar presupuesto de la financiación: %w", err)
	}
	for _, l := range lines {
		out[l.ID] = l
	}
	return out, nil
}

// uniqueStrings valores no vacíos y sin repetir, en orden de aparición.
func uniqueStrings(n int, at func(i int) string) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s := at(i)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func compact(ids []string) []string {
	return uniqueStrings(len(ids), func(i int) string { return ids[i] })
}

// ProposalPanels paneles de una línea de decontare aún no persistida sobre la línea de documento
// dada. Nada se descuenta del acumulado.
func (e *Engine) ProposalPanels(ctx context.Context, r Repositories, implementationID string, ref entity.DocumentLineRef) (execution.SettlementPanels, decimal.Decimal, error) {
	sc, err := loadScope(ctx, r, implementationID)
	if err != nil {
		return execution.SettlementPanels{}, decimal.Zero, err
	}
	coef := sc.nonReimbursableCoef()
	subject := execution.PanelSubject{
		DocumentLine:        ref.Line,
		BudgetProxyLineID:   ref.BudgetProxyLineID,
		NonReimbursableCoef: coef,
	}
	var proxyIDs []string
	if ref.BudgetProxyLineID != "" {
		proxy, err := r.BudgetLines.GetByID(ctx, ref.BudgetProxyLineID)
		if err != nil {
			return execution.SettlementPanels{}, coef, fmt.Errorf("cargar línea de presupuesto: %w", err)
		}
		if proxy != nil {
			masters, err := loadMasters(ctx, r, []string{proxy.FundingBudgetLineID})
			if err != nil {
				return execution.SettlementPanels{}, coef, err
			}
			subject.Master = masters[proxy.FundingBudgetLineID]
			proxyIDs = []string{proxy.ID}
		}
	}

	byDoc, err := r.SettlementLines.ListByDocumentLines(ctx, implementationID, []string{ref.Line.ID})
	if err != nil {
		return execution.SettlementPanels{}, coef, fmt.Errorf("agrupado por línea de documento: %w", err)
	}
	var byBudget []entity.SettlementLineRef
	if len(proxyIDs) > 0 {
		if byBudget, err = r.SettlementLines.ListByBudgetProxyLines(ctx, []string{implementationID}, proxyIDs); err != nil {
			return execution.SettlementPanels{}, coef, fmt.Errorf("agrupado por línea de presupuesto: %w", err)
		}
	}
	return execution.SettlementPanels{
		Document: execution.DocumentPanelFor(subject, execution.GroupSettlementLines(byDoc).ByDocumentLine[ref.Line.ID]),
		Budget:   execution.BudgetPanelFor(subject, execution.GroupSettlementLines(byBudget).ByBudgetLine[ref.BudgetProxyLineID]),
	}, coef, nil
}
