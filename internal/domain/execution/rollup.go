// Package execution contiene los cálculos puros de la ejecución financiera: acumulados por
// línea de presupuesto, paneles de decontare, topes y el grafo de dependencias entre campos
// calculados. No accede a persistencia; recibe los resultados de los barridos agrupados.
package execution

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// BudgetTarget línea de presupuesto a recalcular con su línea maestra y el coeficiente de aporte
// de la financiación. Master nil equivale a un plan a cero.
type BudgetTarget struct {
	Proxy       *entity.BudgetProxyLine
	Master      *entity.BudgetLine
	Coefficient *decimal.Decimal
}

type budgetAcc struct {
	contractBase   decimal.Decimal
	contractVAT    decimal.Decimal
	docsEligible   decimal.Decimal
	docsNonElig    decimal.Decimal
	settledBaseVAT decimal.Decimal
}

// AccumulateBudgetRollups calcula los acumulados de cada línea objetivo a partir de los tres
// barridos agrupados (líneas de contrato, de documento y de decontare). Solo se suman las líneas
// cuya clave de presupuesto está en el conjunto objetivo. Las líneas sin implementación quedan a cero.
func AccumulateBudgetRollups(
	targets []BudgetTarget,
	contractLines []*entity.ContractLine,
	documentLines []entity.DocumentLineRef,
	settlementLines []entity.SettlementLineRef,
) map[string]entity.BudgetRollup {
	acc := make(map[string]*budgetAcc, len(targets))
	for _, t := range targets {
		if t.Proxy == nil || t.Proxy.ImplementationID == "" {
			continue
		}
		acc[t.Proxy.ID] = &budgetAcc{
			contractBase: decimal.Zero, contractVAT: decimal.Zero,
			docsEligible: decimal.Zero, docsNonElig: decimal.Zero,
			settledBaseVAT: decimal.Zero,
		}
	}

	for _, cl := range contractLines {
		if a, ok := acc[cl.BudgetProxyLineID]; ok {
			a.contractBase = a.contractBase.Add(cl.Amount.Base)
			a.contractVAT = a.contractVAT.Add(cl.Amount.VAT)
		}
	}
	for _, ref := range documentLines {
		if a, ok := acc[ref.BudgetProxyLineID]; ok {
			a.docsEligible = a.docsEligible.Add(ref.Line.EligibleTotal())
			a.docsNonElig = a.docsNonElig.Add(ref.Line.NonEligibleTotal())
		}
	}
	for _, ref := range settlementLines {
		if a, ok := acc[ref.BudgetProxyLineID]; ok {
			a.settledBaseVAT = a.settledBaseVAT.Add(ref.Line.Amount.Total())
		}
	}

	out := make(map[string]entity.BudgetRollup, len(targets))
	for _, t := range targets {
		if t.Proxy == nil {
			continue
		}
		a, ok := acc[t.Proxy.ID]
		if !ok {
			out[t.Proxy.ID] = entity.ZeroBudgetRollup()
			continue
		}
		out[t.Proxy.ID] = a.rollup(t)
	}
	return out
}

func (a *budgetAcc) rollup(t BudgetTarget) entity.BudgetRollup {
	planned, eligible := decimal.Zero, decimal.Zero
	if t.Master != nil {
		planned = t.Master.PlannedTotal()
		eligible = t.Master.EligibleTotal()
	}
	docsTotal := a.docsEligible.Add(a.docsNonElig)
	nonReimb := eligible.Mul(entity.NonReimbursableCoefficient(t.Coefficient))
	return entity.BudgetRollup{
		ContractBase:                a.contractBase,
		ContractVAT:                 a.contractVAT,
		ContractTotal:               a.contractBase.Add(a.contractVAT),
		DocumentsEligible:           a.docsEligible,
		DocumentsNonEligible:        a.docsNonElig,
		DocumentsTotal:              docsTotal,
		Balance:                     planned.Sub(docsTotal),
		NonReimbursableTotal:        nonReimb,
		SettledTotal:                a.settledBaseVAT,
		NonReimbursableMinusSettled: nonReimb.Sub(a.settledBaseVAT),
	}
}
