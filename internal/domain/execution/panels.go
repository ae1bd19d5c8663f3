package execution

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// SettlementPanels paneles de documento y de presupuesto de una línea de decontare.
type SettlementPanels struct {
	Document entity.DocumentPanel
	Budget   entity.BudgetPanel
}

// PanelSubject línea de decontare cuyos paneles se calculan. LineID vacío indica una línea aún
// no persistida (propuesta): nada se descuenta del acumulado.
type PanelSubject struct {
	LineID            string
	DocumentLine      *entity.DocumentLine
	BudgetProxyLineID string
	Master            *entity.BudgetLine
	// NonReimbursableCoef max(0, 1 − coeficiente de aporte) de la implementación.
	NonReimbursableCoef decimal.Decimal
}

// SettledGroups resultado de las dos consultas agrupadas de una implementación:
// líneas de decontare por línea de documento y por línea de presupuesto.
type SettledGroups struct {
	ByDocumentLine map[string][]*entity.SettlementLine
	ByBudgetLine   map[string][]*entity.SettlementLine
}

// GroupSettlementLines agrupa las líneas de decontare por línea de documento y de presupuesto.
func GroupSettlementLines(refs []entity.SettlementLineRef) SettledGroups {
	g := SettledGroups{
		ByDocumentLine: make(map[string][]*entity.SettlementLine),
		ByBudgetLine:   make(map[string][]*entity.SettlementLine),
	}
	for _, r := range refs {
		g.ByDocumentLine[r.DocumentLineID] = append(g.ByDocumentLine[r.DocumentLineID], r.Line)
		if r.BudgetProxyLineID != "" {
			g.ByBudgetLine[r.BudgetProxyLineID] = append(g.ByBudgetLine[r.BudgetProxyLineID], r.Line)
		}
	}
	return g
}

// ComputeSettlementPanels calcula los paneles de todas las líneas de una pasada usando los mismos
// grupos, de modo que el coste no depende del número de líneas.
func ComputeSettlementPanels(subjects []PanelSubject, groups SettledGroups) map[string]SettlementPanels {
	out := make(map[string]SettlementPanels, len(subjects))
	for _, s := range subjects {
		out[s.LineID] = SettlementPanels{
			Document: DocumentPanelFor(s, groups.ByDocumentLine[documentLineID(s)]),
			Budget:   BudgetPanelFor(s, groups.ByBudgetLine[s.BudgetProxyLineID]),
		}
	}
	return out
}

// DocumentPanelFor panel de documento: elegible de la línea de documento, parte no reembolsable,
// acumulado solicitado por otras líneas y diferencia pendiente.
func DocumentPanelFor(s PanelSubject, group []*entity.SettlementLine) entity.DocumentPanel {
	eligBase, eligVAT := decimal.Zero, decimal.Zero
	if s.DocumentLine != nil {
		eligBase = s.DocumentLine.Eligible.Base
		eligVAT = s.DocumentLine.Eligible.VAT
	}
	nrBase := eligBase.Mul(s.NonReimbursableCoef)
	nrVAT := eligVAT.Mul(s.NonReimbursableCoef)
	settledBase, settledVAT := sumExcluding(group, s.LineID)
	return entity.DocumentPanel{
		EligibleBase:        eligBase,
		EligibleVAT:         eligVAT,
		NonReimbursableBase: nrBase,
		NonReimbursableVAT:  nrVAT,
		SettledBase:         settledBase,
		SettledVAT:          settledVAT,
		RemainingBase:       nrBase.Sub(settledBase),
		RemainingVAT:        nrVAT.Sub(settledVAT),
	}
}

// BudgetPanelFor panel de presupuesto: plan elegible de la línea maestra, parte no reembolsable,
// acumulado solicitado sobre la misma línea de presupuesto y diferencia pendiente.
func BudgetPanelFor(s PanelSubject, group []*entity.SettlementLine) entity.BudgetPanel {
	eligBase, eligVAT := decimal.Zero, decimal.Zero
	if s.Master != nil {
		eligBase = s.Master.EligibleBase
		eligVAT = s.Master.EligibleVAT
	}
	nrBase := eligBase.Mul(s.NonReimbursableCoef)
	nrVAT := eligVAT.Mul(s.NonReimbursableCoef)
	settledBase, settledVAT := decimal.Zero, decimal.Zero
	if s.BudgetProxyLineID != "" {
		settledBase, settledVAT = sumExcluding(group, s.LineID)
	}
	remBase := nrBase.Sub(settledBase)
	remVAT := nrVAT.Sub(settledVAT)
	return entity.BudgetPanel{
		EligibleBase:        eligBase,
		EligibleVAT:         eligVAT,
		NonReimbursableBase: nrBase,
		NonReimbursableVAT:  nrVAT,
		SettledBase:         settledBase,
		SettledVAT:          settledVAT,
		SettledTotal:        settledBase.Add(settledVAT),
		RemainingBase:       remBase,
		RemainingVAT:        remVAT,
		RemainingTotal:      remBase.Add(remVAT),
	}
}

// ProposeSettlementAmount importe propuesto al elegir una línea de documento: lo pendiente del
// panel de documento, nunca negativo, con el IVA en modo automático.
func ProposeSettlementAmount(p entity.DocumentPanel) entity.TaxedAmount {
	return entity.TaxedAmount{
		Base: decimal.Max(decimal.Zero, p.RemainingBase),
		VAT:  decimal.Max(decimal.Zero, p.RemainingVAT),
	}
}

func sumExcluding(lines []*entity.SettlementLine, ownID string) (decimal.Decimal, decimal.Decimal) {
	base, vat := decimal.Zero, decimal.Zero
	for _, l := range lines {
		if ownID != "" && l.ID == ownID {
			continue
		}
		base = base.Add(l.Amount.Base)
		vat = vat.Add(l.Amount.VAT)
	}
	return base, vat
}

func documentLineID(s PanelSubject) string {
	if s.DocumentLine == nil {
		return ""
	}
	return s.DocumentLine.ID
}
