package execution_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/execution"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: esperado %s, obtenido %s", msg, want, got.String())
}

func taxed(base, vat string) entity.TaxedAmount {
	return entity.TaxedAmount{Base: d(base), VAT: d(vat)}
}

// ──────────────────────────────────────────────────────────────────────────────
// Acumulados por línea de presupuesto
// ──────────────────────────────────────────────────────────────────────────────

func budgetFixture() (execution.BudgetTarget, execution.BudgetTarget) {
	coef := d("0.2")
	b := execution.BudgetTarget{
		Proxy: &entity.BudgetProxyLine{ID: "pB", ImplementationID: "impl"},
		Master: &entity.BudgetLine{
			ID: "mB", EligibleBase: d("1000"), EligibleVAT: d("210"),
			NonEligibleBase: d("100"), NonEligibleVAT: d("21"),
		},
		Coefficient: &coef,
	}
	c := execution.BudgetTarget{
		Proxy:       &entity.BudgetProxyLine{ID: "pC", ImplementationID: "impl"},
		Master:      &entity.BudgetLine{ID: "mC", EligibleBase: d("500"), EligibleVAT: d("0")},
		Coefficient: &coef,
	}
	return b, c
}

func TestAccumulateBudgetRollups_SumaLosTresBarridos(t *testing.T) {
	b, c := budgetFixture()

	contractLines := []*entity.ContractLine{
		{ID: "cl1", BudgetProxyLineID: "pB", Amount: taxed("1000", "210")},
		{ID: "cl2", BudgetProxyLineID: "pB", Amount: taxed("200", "42")},
		{ID: "cl3", BudgetProxyLineID: "otro", Amount: taxed("999", "0")},
	}
	docLines := []entity.DocumentLineRef{
		{BudgetProxyLineID: "pB", Line: &entity.DocumentLine{Eligible: taxed("1000", "210"), NonEligible: taxed("50", "10.5")}},
	}
	settled := []entity.SettlementLineRef{
		{BudgetProxyLineID: "pB", Line: &entity.SettlementLine{Amount: taxed("700", "147")}},
	}

	out := execution.AccumulateBudgetRollups([]execution.BudgetTarget{b, c}, contractLines, docLines, settled)
	require.Len(t, out, 2)

	rb := out["pB"]
	assertDec(t, "1200", rb.ContractBase, "contract_base_total")
	assertDec(t, "252", rb.ContractVAT, "contract_vat_total")
	assertDec(t, "1452", rb.ContractTotal, "contract_total")
	assertDec(t, "1210", rb.DocumentsEligible, "documents_elig_total")
	assertDec(t, "60.5", rb.DocumentsNonEligible, "documents_neelig_total")
	assertDec(t, "1270.5", rb.DocumentsTotal, "documents_total")
	// plan = 1210 + 121 = 1331
	assertDec(t, "60.5", rb.Balance, "sold_total")
	assertDec(t, "968", rb.NonReimbursableTotal, "neramb_total")
	assertDec(t, "847", rb.SettledTotal, "settlements_total")
	assertDec(t, "121", rb.NonReimbursableMinusSettled, "neramb_minus_settled")

	rc := out["pC"]
	assertDec(t, "0", rc.ContractTotal, "sin líneas de contrato")
	assertDec(t, "500", rc.Balance, "saldo igual al plan")
	assertDec(t, "400", rc.NonReimbursableTotal, "500 × 0.8")
}

func TestAccumulateBudgetRollups_SinImplementacionQuedaACero(t *testing.T) {
	b, _ := budgetFixture()
	b.Proxy.ImplementationID = ""

	out := execution.AccumulateBudgetRollups(
		[]execution.BudgetTarget{b},
		[]*entity.ContractLine{{BudgetProxyLineID: "pB", Amount: taxed("10", "2")}},
		nil, nil,
	)
	assert.Equal(t, entity.ZeroBudgetRollup(), out["pB"])
}

func TestAccumulateBudgetRollups_CoeficienteNoDefinido(t *testing.T) {
	b, _ := budgetFixture()
	b.Coefficient = nil

	out := execution.AccumulateBudgetRollups([]execution.BudgetTarget{b}, nil, nil, nil)
	assertDec(t, "1210", out["pB"].NonReimbursableTotal, "coeficiente nil se trata como 0")
}

func TestAccumulateBudgetRollups_CoeficienteMayorQueUno(t *testing.T) {
	b, _ := budgetFixture()
	coef := d("1.5")
	b.Coefficient = &coef

	out := execution.AccumulateBudgetRollups([]execution.BudgetTarget{b}, nil, nil, nil)
	assertDec(t, "0", out["pB"].NonReimbursableTotal, "max(0, 1 − coef)")
}

// ──────────────────────────────────────────────────────────────────────────────
// Paneles de decontare
// ──────────────────────────────────────────────────────────────────────────────

func TestComputeSettlementPanels_ExcluyeLaPropiaLinea(t *testing.T) {
	docLine := &entity.DocumentLine{ID: "dl1", Eligible: taxed("1000", "210")}
	master := &entity.BudgetLine{EligibleBase: d("2000"), EligibleVAT: d("420")}
	own := &entity.SettlementLine{ID: "s1", DocumentLineID: "dl1", Amount: taxed("300", "63")}
	other := &entity.SettlementLine{ID: "s2", DocumentLineID: "dl1", Amount: taxed("100", "21")}
	otherDoc := &entity.SettlementLine{ID: "s3", DocumentLineID: "dl2", Amount: taxed("500", "105")}

	groups := execution.GroupSettlementLines([]entity.SettlementLineRef{
		{Line: own, DocumentLineID: "dl1", BudgetProxyLineID: "pB"},
		{Line: other, DocumentLineID: "dl1", BudgetProxyLineID: "pB"},
		{Line: otherDoc, DocumentLineID: "dl2", BudgetProxyLineID: "pB"},
	})
	subject := execution.PanelSubject{
		LineID: "s1", DocumentLine: docLine, BudgetProxyLineID: "pB", Master: master,
		NonReimbursableCoef: d("0.8"),
	}

	out := execution.ComputeSettlementPanels([]execution.PanelSubject{subject}, groups)
	p := out["s1"]

	assertDec(t, "1000", p.Document.EligibleBase, "doc_elig_base")
	assertDec(t, "800", p.Document.NonReimbursableBase, "doc_neramb_base")
	assertDec(t, "168", p.Document.NonReimbursableVAT, "doc_neramb_vat")
	assertDec(t, "100", p.Document.SettledBase, "doc_settled_base sin la propia línea")
	assertDec(t, "21", p.Document.SettledVAT, "doc_settled_vat")
	assertDec(t, "700", p.Document.RemainingBase, "doc_diff_base")
	assertDec(t, "147", p.Document.RemainingVAT, "doc_diff_vat")

	assertDec(t, "2000", p.Budget.EligibleBase, "budget_elig_base viene del plan")
	assertDec(t, "1600", p.Budget.NonReimbursableBase, "budget_neramb_base")
	assertDec(t, "600", p.Budget.SettledBase, "budget_settled_base: s2 + s3")
	assertDec(t, "126", p.Budget.SettledVAT, "budget_settled_vat")
	assertDec(t, "726", p.Budget.SettledTotal, "budget_settled_total")
	assertDec(t, "1000", p.Budget.RemainingBase, "budget_diff_base")
	assertDec(t, "210", p.Budget.RemainingVAT, "budget_diff_vat")
	assertDec(t, "1210", p.Budget.RemainingTotal, "budget_diff_total")
}

func TestComputeSettlementPanels_PropuestaNoDescuentaNada(t *testing.T) {
	docLine := &entity.DocumentLine{ID: "dl1", Eligible: taxed("1000", "210")}
	existing := &entity.SettlementLine{ID: "s1", DocumentLineID: "dl1", Amount: taxed("300", "63")}
	groups := execution.GroupSettlementLines([]entity.SettlementLineRef{
		{Line: existing, DocumentLineID: "dl1", BudgetProxyLineID: "pB"},
	})

	p := execution.DocumentPanelFor(execution.PanelSubject{
		DocumentLine: docLine, BudgetProxyLineID: "pB", NonReimbursableCoef: d("0.8"),
	}, groups.ByDocumentLine["dl1"])

	assertDec(t, "300", p.SettledBase, "una línea nueva ve todo lo solicitado")
	assertDec(t, "500", p.RemainingBase, "800 − 300")
}

func TestProposeSettlementAmount_NuncaNegativo(t *testing.T) {
	got := execution.ProposeSettlementAmount(entity.DocumentPanel{RemainingBase: d("-5"), RemainingVAT: d("12.5")})
	assertDec(t, "0", got.Base, "base acotada a cero")
	assertDec(t, "12.5", got.VAT, "IVA pendiente")
	assert.False(t, got.VATManual, "la propuesta deja el IVA en automático")
}

// ──────────────────────────────────────────────────────────────────────────────
// Topes
// ──────────────────────────────────────────────────────────────────────────────

func TestDocumentCeiling_LimiteConTolerancia(t *testing.T) {
	contract := []*entity.ContractLine{{Amount: taxed("1000", "210")}}
	other := []*entity.DocumentLine{{Eligible: taxed("500", "105")}}

	exacto := execution.NewDocumentCeiling([]*entity.DocumentLine{{Eligible: taxed("500", "105")}}, other, contract)
	assertDec(t, "1210", exacto.Grand, "grand_total")
	assert.False(t, exacto.Exceeded(), "igual al total del contrato es válido")

	dentro := execution.NewDocumentCeiling([]*entity.DocumentLine{{Eligible: taxed("500", "105.0001")}}, other, contract)
	assert.False(t, dentro.Exceeded(), "dentro de la tolerancia")

	fuera := execution.NewDocumentCeiling([]*entity.DocumentLine{{Eligible: taxed("500", "105.01")}}, other, contract)
	assert.True(t, fuera.Exceeded(), "1210.01 supera 1210")
}

func TestNonReimbursableCeiling_BaseEIVAPorSeparado(t *testing.T) {
	docLine := &entity.DocumentLine{Eligible: taxed("1000", "210")}
	coef := d("0.8")

	rechazo := execution.NewNonReimbursableCeiling(docLine, coef, taxed("900", "189"), nil, "")
	assert.True(t, rechazo.BaseExceeded(), "900 > 800")
	assert.True(t, rechazo.VATExceeded(), "189 > 168")

	ok := execution.NewNonReimbursableCeiling(docLine, coef, taxed("700", "147"), nil, "")
	assert.False(t, ok.BaseExceeded())
	assert.False(t, ok.VATExceeded())

	soloIVA := execution.NewNonReimbursableCeiling(docLine, coef, taxed("100", "100"),
		[]*entity.SettlementLine{{ID: "x", Amount: taxed("700", "100")}}, "")
	assert.False(t, soloIVA.BaseExceeded(), "base 800 dentro del máximo")
	assert.True(t, soloIVA.VATExceeded(), "IVA 200 supera 168")
}

func TestNonReimbursableCeiling_ExcluyeLaPropiaLinea(t *testing.T) {
	docLine := &entity.DocumentLine{Eligible: taxed("1000", "210")}
	siblings := []*entity.SettlementLine{{ID: "s1", Amount: taxed("800", "168")}}

	c := execution.NewNonReimbursableCeiling(docLine, d("0.8"), taxed("800", "168"), siblings, "s1")
	assert.False(t, c.BaseExceeded(), "editar la misma línea no cuenta su valor anterior")
}

// ──────────────────────────────────────────────────────────────────────────────
// Grafo de dependencias
// ──────────────────────────────────────────────────────────────────────────────

func TestExecutionGraph_Cierre(t *testing.T) {
	g := execution.ExecutionGraph()

	nodes := g.Downstream(execution.FieldContractLineAmount)
	assert.Contains(t, nodes, execution.NodeContractTotals)
	assert.Contains(t, nodes, execution.NodeBudgetRollups)
	assert.Contains(t, nodes, execution.NodeDocumentCeiling, "transitivo vía contract.totals")
	assert.NotContains(t, nodes, execution.NodeSettlementPanels)

	assert.True(t, g.Affects(execution.NodeSettlementPanels, execution.FieldDocumentLineAmount))
	assert.False(t, g.Affects(execution.NodeBudgetRollups, execution.FieldContractDates))
	assert.Empty(t, g.Downstream())
}

// ──────────────────────────────────────────────────────────────────────────────
// Adquisiciones y actividades
// ──────────────────────────────────────────────────────────────────────────────

func TestAcquisitionContractedYActivityDates(t *testing.T) {
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	dec := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	contracts := []*entity.Contract{
		{ID: "c1", AcquisitionID: "a1", ActivityID: "act1", StartDate: &mar, EndDate: &dec},
		{ID: "c2", AcquisitionID: "a1", ActivityID: "act1", StartDate: &jan},
		{ID: "c3"},
	}
	lines := []*entity.ContractLine{
		{ContractID: "c1", Amount: taxed("100", "21")},
		{ContractID: "c2", Amount: taxed("50", "0")},
		{ContractID: "c3", Amount: taxed("999", "0")},
	}

	acq := execution.AcquisitionContracted(contracts, lines)
	assertDec(t, "150", acq["a1"].Base, "base contratada")
	assertDec(t, "171", acq["a1"].Total, "total contratado")

	dates := execution.ActivityDateBounds(contracts)
	require.NotNil(t, dates["act1"].Start)
	assert.Equal(t, jan, *dates["act1"].Start)
	assert.Equal(t, dec, *dates["act1"].End)
}
