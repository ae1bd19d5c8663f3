package implementation_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/application/implementation"
	"github.com/jhoicas/Implementacion-api/internal/domain"
	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
	"github.com/jhoicas/Implementacion-api/internal/domain/repository"
	"github.com/jhoicas/Implementacion-api/internal/infrastructure/memory"
	"github.com/jhoicas/Implementacion-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func sp(s string) *string { return &s }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: esperado %s, obtenido %s", msg, want, got.String())
}

// requireCode exige un ValidationError con el código dado.
func requireCode(t *testing.T, err error, code string) *domain.ValidationError {
	t.Helper()
	require.Error(t, err)
	ve, ok := domain.AsValidationError(err)
	require.Truef(t, ok, "se esperaba ValidationError, obtenido %T: %v", err, err)
	assert.Equal(t, code, ve.Code, ve.Message)
	return ve
}

type fixture struct {
	store       *memory.Store
	impls       *implementation.ImplementationUseCase
	contracts   *implementation.ContractUseCase
	documents   *implementation.DocumentUseCase
	settlements *implementation.SettlementUseCase
	statement   *implementation.StatementUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	deps := implementation.Deps{
		Tx:       store,
		Repos:    store.Repositories(),
		Log:      logger.Nop(),
		Defaults: implementation.Defaults{Currency: "RON", VATRate: d("21")},
	}
	engine := implementation.NewEngine(logger.Nop())
	return &fixture{
		store:       store,
		impls:       implementation.NewImplementationUseCase(deps, engine),
		contracts:   implementation.NewContractUseCase(deps, engine),
		documents:   implementation.NewDocumentUseCase(deps, engine),
		settlements: implementation.NewSettlementUseCase(deps, engine),
		statement:   implementation.NewStatementUseCase(deps, engine, nil, nil),
	}
}

// seedFunding carga un proyecto con coeficiente de aporte 0.2 y dos líneas de presupuesto:
// B (1000 + 210 elegible, 100 + 21 no elegible) y C (500 elegible sin IVA).
func (f *fixture) seedFunding(id, status string) {
	coef := d("0.2")
	signed := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	f.store.AddFundingProject(entity.FundingProject{
		ID: id, Code: "PRJ-" + id, Name: "Proyecto " + id,
		Beneficiary: "Comuna Test", BeneficiaryTaxID: "RO123",
		Status: status, ContributionCoefficient: &coef, ContributionValue: d("242"),
		SigningDate: &signed, EndDate: &end,
	})
	f.store.AddBudgetLine(entity.BudgetLine{
		ID: id + "-B", FundingProjectID: id, Number: "1", Chapter: "4", Name: "Obras",
		EligibleBase: d("1000"), EligibleVAT: d("210"), NonEligibleBase: d("100"), NonEligibleVAT: d("21"),
	})
	f.store.AddBudgetLine(entity.BudgetLine{
		ID: id + "-C", FundingProjectID: id, Number: "2", Chapter: "5", Name: "Publicidad",
		EligibleBase: d("500"), EligibleVAT: d("0"),
	})
}

// newImplementation crea y sincroniza una implementación; devuelve su ID y las líneas B y C.
func (f *fixture) newImplementation(t *testing.T, fundingID string) (string, string, string) {
	t.Helper()
	ctx := context.Background()
	f.seedFunding(fundingID, entity.FundingStatusContracted)
	impl, err := f.impls.Create(ctx, dto.CreateImplementationRequest{FundingProjectID: fundingID})
	require.NoError(t, err)
	_, err = f.impls.SyncBudget(ctx, impl.ID)
	require.NoError(t, err)
	lines, err := f.impls.Budget(ctx, impl.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	return impl.ID, lines[0].BudgetProxyLineID, lines[1].BudgetProxyLineID
}

func (f *fixture) newContract(t *testing.T, implID, number string) string {
	t.Helper()
	c, err := f.contracts.Create(context.Background(), implID, dto.CreateContractRequest{
		Name: "Contrato " + number, Number: number, Date: "2025-03-01", SupplierName: "ACME",
	})
	require.NoError(t, err)
	return c.ID
}

func (f *fixture) newContractLine(t *testing.T, contractID, proxyID, base string) string {
	t.Helper()
	out, err := f.contracts.CreateLine(context.Background(), contractID, dto.CreateContractLineRequest{
		BudgetProxyLineID: proxyID, Name: "Línea " + base, BaseAmount: d(base),
	})
	require.NoError(t, err)
	return out.Line.ID
}

func (f *fixture) newDocument(t *testing.T, implID, contractID, number string) string {
	t.Helper()
	doc, err := f.documents.Create(context.Background(), implID, dto.CreateDocumentRequest{
		ContractID: contractID, Number: number, Date: "2025-04-02", IssuerName: "ACME",
	}, false)
	require.NoError(t, err)
	return doc.ID
}

func (f *fixture) newSettlement(t *testing.T, implID, number string) string {
	t.Helper()
	s, err := f.settlements.Create(context.Background(), implID, dto.CreateSettlementRequest{Number: number, Date: "2025-06-30"})
	require.NoError(t, err)
	return s.ID
}

// execution escenario completo sobre la línea B: dos contratos (1000 y 200 de base), un documento
// con 1000 + 210 elegible y 50 + 10.5 no elegible.
type execution struct {
	implID, proxyB, proxyC   string
	contractID, contractLine string
	docID, docLine           string
	settlementID             string
}

func (f *fixture) execution(t *testing.T) execution {
	t.Helper()
	var e execution
	e.implID, e.proxyB, e.proxyC = f.newImplementation(t, "F1")
	e.contractID = f.newContract(t, e.implID, "C-1")
	e.contractLine = f.newContractLine(t, e.contractID, e.proxyB, "1000")
	c2 := f.newContract(t, e.implID, "C-2")
	f.newContractLine(t, c2, e.proxyB, "200")

	e.docID = f.newDocument(t, e.implID, e.contractID, "F-7")
	out, err := f.documents.CreateLine(context.Background(), e.docID, dto.CreateDocumentLineRequest{
		ContractLineID: e.contractLine, EligBaseAmount: d("1000"), NeeligBaseAmount: d("50"),
	}, false)
	require.NoError(t, err)
	e.docLine = out.Line.ID
	e.settlementID = f.newSettlement(t, e.implID, "D-1")
	return e
}

func budgetLine(t *testing.T, f *fixture, implID, proxyID string) dto.BudgetLineResponse {
	t.Helper()
	lines, err := f.impls.Budget(context.Background(), implID)
	require.NoError(t, err)
	for _, l := range lines {
		if l.BudgetProxyLineID == proxyID {
			return l
		}
	}
	t.Fatalf("línea de presupuesto %s no encontrada", proxyID)
	return dto.BudgetLineResponse{}
}

// ──────────────────────────────────────────────────────────────────────────────
// Implementación
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_SoloProyectosContratados(t *testing.T) {
	f := newFixture(t)
	f.seedFunding("F1", "draft")

	_, err := f.impls.Create(context.Background(), dto.CreateImplementationRequest{FundingProjectID: "F1"})
	requireCode(t, err, domain.CodeFundingNotContracted)
}

func TestCreate_ProyectoInexistente(t *testing.T) {
	f := newFixture(t)

	_, err := f.impls.Create(context.Background(), dto.CreateImplementationRequest{FundingProjectID: "nope"})
	requireCode(t, err, domain.CodeRequiredReference)

	_, err = f.impls.Create(context.Background(), dto.CreateImplementationRequest{})
	requireCode(t, err, domain.CodeRequiredReference)
}

func TestCreate_UnaImplementacionPorProyecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFunding("F1", entity.FundingStatusContracted)

	impl, err := f.impls.Create(ctx, dto.CreateImplementationRequest{FundingProjectID: "F1"})
	require.NoError(t, err)
	assert.Equal(t, entity.ImplementationStateDraft, impl.State)
	assert.Equal(t, "RON", impl.Currency)
	assert.Equal(t, "2025-01-15", impl.StartDate, "fecha de inicio tomada de la firma")
	assert.Equal(t, "2026-12-31", impl.EndDate)
	assert.Equal(t, "Proyecto F1", impl.Name)
	assert.Equal(t, "RO123", impl.BeneficiaryTaxID)

	_, err = f.impls.Create(ctx, dto.CreateImplementationRequest{FundingProjectID: "F1"})
	requireCode(t, err, domain.CodeDuplicateReference)
}

func TestUpdate_ProyectoInmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	implID, _, _ := f.newImplementation(t, "F1")
	f.seedFunding("F2", entity.FundingStatusContracted)

	_, err := f.impls.Update(ctx, implID, dto.UpdateImplementationRequest{FundingProjectID: sp("F2")})
	requireCode(t, err, domain.CodeImmutableField)

	out, err := f.impls.Update(ctx, implID, dto.UpdateImplementationRequest{
		FundingProjectID: sp("F1"), State: sp(entity.ImplementationStateInProgress), Description: sp("fase 1"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ImplementationStateInProgress, out.State)
	assert.Equal(t, "fase 1", out.Description)
}

func TestSyncBudget_Idempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFunding("F1", entity.FundingStatusContracted)
	impl, err := f.impls.Create(ctx, dto.CreateImplementationRequest{FundingProjectID: "F1"})
	require.NoError(t, err)

	first, err := f.impls.SyncBudget(ctx, impl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := f.impls.SyncBudget(ctx, impl.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Empty(t, second.CreatedIDs)

	lines, err := f.impls.Budget(ctx, impl.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Obras", lines[0].Name)
	assertDec(t, "1331", lines[0].PlannedTotal, "total planificado")
	assertDec(t, "1331", lines[0].SoldTotal, "sin documentos el saldo es el plan")
}

func TestSyncAcquisitionsYActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	implID, proxyB, _ := f.newImplementation(t, "F1")
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	f.store.AddAcquisition(entity.Acquisition{ID: "acq1", FundingProjectID: "F1", Sequence: 1, Code: "A1", Name: "Obras", Base: d("1000"), VAT: d("210")})
	f.store.AddActivity(entity.Activity{ID: "act1", FundingProjectID: "F1", Sequence: 1, Name: "Ejecución", DateStart: &start})

	res, err := f.impls.SyncAcquisitions(ctx, implID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	res, err = f.impls.SyncActivities(ctx, implID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	c, err := f.contracts.Create(ctx, implID, dto.CreateContractRequest{
		Name: "Obra", Number: "C-9", Date: "2025-03-01", StartDate: "2025-03-10", EndDate: "2025-09-30",
		ActivityID: "act1", AcquisitionID: "acq1",
	})
	require.NoError(t, err)
	f.newContractLine(t, c.ID, proxyB, "400")

	acqs, err := f.impls.Acquisitions(ctx, implID)
	require.NoError(t, err)
	require.Len(t, acqs, 1)
	assertDec(t, "400", acqs[0].ContractedBase, "base contratada")
	assertDec(t, "84", acqs[0].ContractedVAT, "IVA contratado")
	assertDec(t, "1000", acqs[0].PlannedBase, "base planificada")

	acts, err := f.impls.Activities(ctx, implID)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "2025-03-10", acts[0].ContractStart)
	assert.Equal(t, "2025-09-30", acts[0].ContractEnd)
	assert.Equal(t, "2025-02-01", acts[0].PlannedStart)
}

func TestContract_ActividadDeOtroProyecto(t *testing.T) {
	f := newFixture(t)
	implID, _, _ := f.newImplementation(t, "F1")
	f.seedFunding("F2", entity.FundingStatusContracted)
	f.store.AddActivity(entity.Activity{ID: "ajena", FundingProjectID: "F2", Name: "Otra"})

	_, err := f.contracts.Create(context.Background(), implID, dto.CreateContractRequest{
		Name: "X", Number: "1", Date: "2025-03-01", ActivityID: "ajena",
	})
	requireCode(t, err, domain.CodeCrossImplementation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Acumulados del motor
// ──────────────────────────────────────────────────────────────────────────────

func TestEscenario_AcumuladosYTopeNoReembolsable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	b := budgetLine(t, f, e.implID, e.proxyB)
	assertDec(t, "1200", b.ContractBaseTotal, "contract_base_total")
	assertDec(t, "252", b.ContractVATTotal, "contract_vat_total")
	assertDec(t, "1452", b.ContractTotal, "contract_total")
	assertDec(t, "1210", b.DocumentsEligibleTotal, "documents_elig_total")
	assertDec(t, "60.5", b.DocumentsNonEligibleTotal, "documents_neelig_total")
	assertDec(t, "1270.5", b.DocumentsTotal, "documents_total")
	assertDec(t, "60.5", b.SoldTotal, "sold_total")
	assertDec(t, "968", b.NonReimbursableTotal, "neramb_total")

	// máximo no reembolsable: 800 de base y 168 de IVA
	_, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, EligBase: dp("900"), EligVAT: dp("189"),
	})
	ve := requireCode(t, err, domain.CodeNonReimbursableExceeded)
	assert.Contains(t, ve.Message, "900.00")
	assert.Contains(t, ve.Message, "800.00")

	out, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, EligBase: dp("700"), EligVAT: dp("147"),
	})
	require.NoError(t, err)
	assert.True(t, out.Line.EligVATManual)
	require.NotNil(t, out.Recalculated)
	var recalculated *dto.BudgetRollupResponse
	for i := range out.Recalculated.BudgetLines {
		if out.Recalculated.BudgetLines[i].BudgetProxyLineID == e.proxyB {
			recalculated = &out.Recalculated.BudgetLines[i]
		}
	}
	require.NotNil(t, recalculated, "la línea B se recalcula en la misma operación")
	assertDec(t, "847", recalculated.SettlementsTotal, "settlements_total recalculado")

	b = budgetLine(t, f, e.implID, e.proxyB)
	assertDec(t, "847", b.SettlementsTotal, "settlements_total")
	assertDec(t, "121", b.NonReimbursableMinusSettled, "neramb_minus_settled")

	c := budgetLine(t, f, e.implID, e.proxyC)
	assertDec(t, "0", c.ContractTotal, "la línea C no recibe nada")
	assertDec(t, "400", c.NonReimbursableTotal, "500 × 0.8")
}

func TestSettlement_IVATopeSeparadoDeLaBase(t *testing.T) {
	f := newFixture(t)
	e := f.execution(t)

	_, err := f.settlements.CreateLine(context.Background(), e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, EligBase: dp("500"), EligVAT: dp("170"),
	})
	ve := requireCode(t, err, domain.CodeNonReimbursableExceeded)
	assert.Contains(t, ve.Message, "IVA")
}

func TestSettlement_AutorrellenoYPropuesta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	_, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, EligBase: dp("300"),
	})
	require.NoError(t, err)

	p, err := f.settlements.Propose(ctx, e.settlementID, e.docLine)
	require.NoError(t, err)
	assertDec(t, "500", p.EligBase, "800 − 300")
	assertDec(t, "105", p.EligVAT, "168 − 63")
	assert.False(t, p.EligVATManual)
	assertDec(t, "300", p.DocSettledBase, "doc_settled_base")

	auto, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{DocumentLineID: e.docLine})
	require.NoError(t, err)
	assertDec(t, "500", auto.Line.EligBase, "base autorrellenada")
	assertDec(t, "105", auto.Line.EligVAT, "IVA autorrellenado")
	assert.False(t, auto.Line.EligVATManual)

	// agotado: la propuesta nunca es negativa
	p, err = f.settlements.Propose(ctx, e.settlementID, e.docLine)
	require.NoError(t, err)
	assertDec(t, "0", p.EligBase, "nada pendiente")
}

func TestSettlement_TasaDeLaLineaDeDocumento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	doc, err := f.documents.CreateLine(ctx, e.docID, dto.CreateDocumentLineRequest{
		ContractLineID: e.contractLine, VATRate: dp("9"), EligBaseAmount: d("100"),
	}, false)
	require.NoError(t, err)

	p, err := f.settlements.Propose(ctx, e.settlementID, doc.Line.ID)
	require.NoError(t, err)
	assertDec(t, "9", p.VATRate, "tasa propuesta")

	out, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: doc.Line.ID, EligBase: dp("50"),
	})
	require.NoError(t, err)
	assertDec(t, "9", out.Line.VATRate, "sin tasa se hereda la de la línea de documento")
	assertDec(t, "4.5", out.Line.EligVAT, "50 × 9%")

	explicit, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, VATRate: dp("5"), EligBase: dp("100"),
	})
	require.NoError(t, err)
	assertDec(t, "5", explicit.Line.VATRate, "tasa explícita")
	assertDec(t, "5", explicit.Line.EligVAT, "100 × 5%")

	_, err = f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, VATRate: dp("-1"), EligBase: dp("1"),
	})
	requireCode(t, err, domain.CodeVATRateOutOfRange)
}

func TestSettlement_PanelesExcluyenLaPropiaLinea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	first, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{DocumentLineID: e.docLine, EligBase: dp("300")})
	require.NoError(t, err)
	_, err = f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{DocumentLineID: e.docLine, EligBase: dp("100")})
	require.NoError(t, err)

	line, err := f.settlements.GetLine(ctx, first.Line.ID)
	require.NoError(t, err)
	assertDec(t, "100", line.DocSettledBase, "solo la otra línea")
	assertDec(t, "700", line.DocDiffBase, "800 − 100")
	assertDec(t, "800", line.BudgetNerambBase, "plan elegible 1000 × 0.8")
	assertDec(t, "100", line.BudgetSettledBase, "budget_settled_base")
	assertDec(t, "0.8", line.NerambCoef, "neramb_coef")
	assert.Equal(t, "F-7", line.DocumentNumber)
	assert.Equal(t, e.proxyB, line.BudgetProxyLineID)

	s, err := f.settlements.GetByID(ctx, e.settlementID)
	require.NoError(t, err)
	require.Len(t, s.Lines, 2)
	assertDec(t, "400", s.AmountEligBaseTotal, "total de cabecera")
	assertDec(t, "242", s.AportValoare, "aport_valoare")
}

func TestSettlement_ActualizarExcluyeSuPropioImporte(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	l, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{DocumentLineID: e.docLine, EligBase: dp("800")})
	require.NoError(t, err)

	// 800 sustituye a 800: no se suma dos veces
	_, err = f.settlements.UpdateLine(ctx, l.Line.ID, dto.UpdateSettlementLineRequest{EligBase: dp("800")})
	require.NoError(t, err)

	_, err = f.settlements.UpdateLine(ctx, l.Line.ID, dto.UpdateSettlementLineRequest{EligBase: dp("800.01")})
	requireCode(t, err, domain.CodeNonReimbursableExceeded)
}

func TestDocumentLine_SoldTrasActualizarYBorrar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	_, err := f.documents.UpdateLine(ctx, e.docLine, dto.UpdateDocumentLineRequest{EligBaseAmount: dp("500")}, false)
	require.NoError(t, err)
	b := budgetLine(t, f, e.implID, e.proxyB)
	assertDec(t, "665.5", b.DocumentsTotal, "605 elegible + 60.5 no elegible")
	assertDec(t, "665.5", b.SoldTotal, "1331 − 665.5")

	_, err = f.documents.DeleteLine(ctx, e.docLine, false)
	require.NoError(t, err)
	b = budgetLine(t, f, e.implID, e.proxyB)
	assertDec(t, "0", b.DocumentsTotal, "sin documentos")
	assertDec(t, "1331", b.SoldTotal, "todo el plan disponible")
}

func TestDocumentLine_NoBajaDeLoDecontado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	_, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, EligBase: dp("700"), EligVAT: dp("147"),
	})
	require.NoError(t, err)

	// 100 × 0.8 = 80 no admite los 700 ya decontados
	_, err = f.documents.UpdateLine(ctx, e.docLine, dto.UpdateDocumentLineRequest{EligBaseAmount: dp("100")}, false)
	ve := requireCode(t, err, domain.CodeNonReimbursableExceeded)
	assert.Contains(t, ve.Message, "700.00")
	assert.Contains(t, ve.Message, "80.00")

	// tasa 0: el IVA decontado (147) deja de caber
	_, err = f.documents.UpdateLine(ctx, e.docLine, dto.UpdateDocumentLineRequest{VATRate: dp("0")}, false)
	requireCode(t, err, domain.CodeNonReimbursableExceeded)

	doc, err := f.documents.GetByID(ctx, e.docID)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	assertDec(t, "1000", doc.Lines[0].EligBaseAmount, "la edición rechazada no deja rastro")
	assertDec(t, "210", doc.Lines[0].EligVATAmount, "IVA intacto")

	// por encima de lo decontado sí se acepta, y lo no elegible no cuenta
	_, err = f.documents.UpdateLine(ctx, e.docLine, dto.UpdateDocumentLineRequest{EligBaseAmount: dp("875"), NeeligBaseAmount: dp("0")}, false)
	require.NoError(t, err)
}

func TestDocumentLine_ResetIVAPorDebajoDeLoDecontado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	_, err := f.documents.UpdateLine(ctx, e.docLine, dto.UpdateDocumentLineRequest{EligVATAmount: dp("500")}, false)
	require.NoError(t, err)
	_, err = f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, EligBase: dp("100"), EligVAT: dp("300"),
	})
	require.NoError(t, err, "500 × 0.8 = 400 admite 300 de IVA")

	// automático: 210 × 0.8 = 168 < 300
	_, err = f.documents.ResetLineVAT(ctx, e.docLine, false)
	ve := requireCode(t, err, domain.CodeNonReimbursableExceeded)
	assert.Contains(t, ve.Message, "300.00")

	doc, err := f.documents.GetByID(ctx, e.docID)
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	assert.True(t, doc.Lines[0].EligVATManual, "sigue en manual")
	assertDec(t, "500", doc.Lines[0].EligVATAmount, "IVA manual intacto")
}

// ──────────────────────────────────────────────────────────────────────────────
// Integridad referencial
// ──────────────────────────────────────────────────────────────────────────────

func TestContractLine_Duplicada(t *testing.T) {
	f := newFixture(t)
	implID, proxyB, proxyC := f.newImplementation(t, "F1")
	contractID := f.newContract(t, implID, "C-1")
	f.newContractLine(t, contractID, proxyB, "100")

	_, err := f.contracts.CreateLine(context.Background(), contractID, dto.CreateContractLineRequest{
		BudgetProxyLineID: proxyB, BaseAmount: d("5"),
	})
	requireCode(t, err, domain.CodeDuplicateReference)

	other := f.newContractLine(t, contractID, proxyC, "10")
	_, err = f.contracts.UpdateLine(context.Background(), other, dto.UpdateContractLineRequest{BudgetProxyLineID: sp(proxyB)})
	requireCode(t, err, domain.CodeDuplicateReference)
}

func TestContractLine_ReferenciaObligatoriaYTasa(t *testing.T) {
	f := newFixture(t)
	implID, proxyB, _ := f.newImplementation(t, "F1")
	contractID := f.newContract(t, implID, "C-1")

	_, err := f.contracts.CreateLine(context.Background(), contractID, dto.CreateContractLineRequest{BaseAmount: d("5")})
	requireCode(t, err, domain.CodeRequiredReference)

	_, err = f.contracts.CreateLine(context.Background(), contractID, dto.CreateContractLineRequest{
		BudgetProxyLineID: proxyB, BaseAmount: d("5"), VATRate: dp("101"),
	})
	requireCode(t, err, domain.CodeVATRateOutOfRange)
}

func TestContractLine_PresupuestoDeOtraImplementacion(t *testing.T) {
	f := newFixture(t)
	impl1, _, _ := f.newImplementation(t, "F1")
	_, proxyOther, _ := f.newImplementation(t, "F2")
	contractID := f.newContract(t, impl1, "C-1")

	_, err := f.contracts.CreateLine(context.Background(), contractID, dto.CreateContractLineRequest{
		BudgetProxyLineID: proxyOther, BaseAmount: d("5"),
	})
	requireCode(t, err, domain.CodeCrossImplementation)
}

func TestDocument_ContratoDeOtraImplementacion(t *testing.T) {
	f := newFixture(t)
	impl1, _, _ := f.newImplementation(t, "F1")
	impl2, _, _ := f.newImplementation(t, "F2")
	foreign := f.newContract(t, impl2, "C-2")

	_, err := f.documents.Create(context.Background(), impl1, dto.CreateDocumentRequest{
		ContractID: foreign, Number: "F-1", Date: "2025-04-02",
	}, false)
	requireCode(t, err, domain.CodeCrossImplementation)
}

func TestDocumentLine_LineaDeOtroContrato(t *testing.T) {
	f := newFixture(t)
	implID, proxyB, _ := f.newImplementation(t, "F1")
	c1 := f.newContract(t, implID, "C-1")
	c2 := f.newContract(t, implID, "C-2")
	foreignLine := f.newContractLine(t, c2, proxyB, "100")
	docID := f.newDocument(t, implID, c1, "F-1")

	_, err := f.documents.CreateLine(context.Background(), docID, dto.CreateDocumentLineRequest{
		ContractLineID: foreignLine, EligBaseAmount: d("10"),
	}, false)
	requireCode(t, err, domain.CodeContractMismatch)
}

func TestSettlementLine_DocumentoDeOtraImplementacion(t *testing.T) {
	f := newFixture(t)
	e := f.execution(t)
	impl2, _, _ := f.newImplementation(t, "F2")
	s2 := f.newSettlement(t, impl2, "D-9")

	_, err := f.settlements.CreateLine(context.Background(), s2, dto.CreateSettlementLineRequest{
		DocumentLineID: e.docLine, EligBase: dp("1"),
	})
	requireCode(t, err, domain.CodeCrossImplementation)
}

func TestDelete_ConDependientes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	err := f.contracts.Delete(ctx, e.contractID)
	ve := requireCode(t, err, domain.CodeHasDependents)
	assert.Contains(t, ve.Message, "1 líneas")

	_, err = f.contracts.DeleteLine(ctx, e.contractLine)
	ve = requireCode(t, err, domain.CodeHasDependents)
	assert.Contains(t, ve.Message, "1 líneas de documento")

	err = f.documents.Delete(ctx, e.docID)
	requireCode(t, err, domain.CodeHasDependents)

	l, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{DocumentLineID: e.docLine, EligBase: dp("10")})
	require.NoError(t, err)
	_, err = f.documents.DeleteLine(ctx, e.docLine, false)
	requireCode(t, err, domain.CodeHasDependents)
	err = f.settlements.Delete(ctx, e.settlementID)
	requireCode(t, err, domain.CodeHasDependents)

	// deshaciendo la cadena de abajo arriba todo se puede borrar
	_, err = f.settlements.DeleteLine(ctx, l.Line.ID)
	require.NoError(t, err)
	require.NoError(t, f.settlements.Delete(ctx, e.settlementID))
	_, err = f.documents.DeleteLine(ctx, e.docLine, false)
	require.NoError(t, err)
	require.NoError(t, f.documents.Delete(ctx, e.docID))
	_, err = f.contracts.DeleteLine(ctx, e.contractLine)
	require.NoError(t, err)
	require.NoError(t, f.contracts.Delete(ctx, e.contractID))

	_, err = f.contracts.GetByID(ctx, e.contractID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tope documento vs contrato
// ──────────────────────────────────────────────────────────────────────────────

func TestDocumentCeiling_LimiteYRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	implID, proxyB, _ := f.newImplementation(t, "F1")
	contractID := f.newContract(t, implID, "C-1")
	cl := f.newContractLine(t, contractID, proxyB, "100") // total 121
	docID := f.newDocument(t, implID, contractID, "F-1")

	exact, err := f.documents.CreateLine(ctx, docID, dto.CreateDocumentLineRequest{
		ContractLineID: cl, EligBaseAmount: d("100"),
	}, true)
	require.NoError(t, err, "igual al valor del contrato se acepta")
	require.NotNil(t, exact.Ceiling)
	assertDec(t, "121", exact.Ceiling.GrandTotal, "grand_total")
	assert.False(t, exact.Ceiling.Exceeded)

	_, err = f.documents.CreateLine(ctx, docID, dto.CreateDocumentLineRequest{
		ContractLineID: cl, NeeligBaseAmount: d("0.01"), NeeligVATAmount: dp("0"),
	}, true)
	ve := requireCode(t, err, domain.CodeCeilingExceeded)
	assert.Contains(t, ve.Message, "121.01")
	assert.Contains(t, ve.Message, "121.00")

	doc, err := f.documents.GetByID(ctx, docID)
	require.NoError(t, err)
	assert.Len(t, doc.Lines, 1, "la operación rechazada no deja rastro")
	assertDec(t, "121", doc.AmountTotal, "amount_total")

	// sin control explícito la misma escritura se acepta y el control la refleja
	_, err = f.documents.CreateLine(ctx, docID, dto.CreateDocumentLineRequest{
		ContractLineID: cl, NeeligBaseAmount: d("0.01"), NeeligVATAmount: dp("0"),
	}, false)
	require.NoError(t, err)
	c, err := f.documents.Ceiling(ctx, docID)
	require.NoError(t, err)
	assert.True(t, c.Exceeded)
}

func TestDocumentCeiling_ExcesoMenorQueUnCentimo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	implID, proxyB, _ := f.newImplementation(t, "F1")
	contractID := f.newContract(t, implID, "C-1")
	cl := f.newContractLine(t, contractID, proxyB, "100")
	docID := f.newDocument(t, implID, contractID, "F-1")

	_, err := f.documents.CreateLine(ctx, docID, dto.CreateDocumentLineRequest{ContractLineID: cl, EligBaseAmount: d("100")}, true)
	require.NoError(t, err)

	_, err = f.documents.CreateLine(ctx, docID, dto.CreateDocumentLineRequest{
		ContractLineID: cl, NeeligBaseAmount: d("0.00011"), NeeligVATAmount: dp("0"),
	}, true)
	ve := requireCode(t, err, domain.CodeCeilingExceeded)
	assert.Contains(t, ve.Message, "total documentado 121.00011")
	assert.Contains(t, ve.Message, "total contrato 121")
}

func TestDocumentLine_ResetIVAConControlDeContrato(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	implID, proxyB, _ := f.newImplementation(t, "F1")
	contractID := f.newContract(t, implID, "C-1")
	cl := f.newContractLine(t, contractID, proxyB, "100") // total 121
	docID := f.newDocument(t, implID, contractID, "F-1")

	line, err := f.documents.CreateLine(ctx, docID, dto.CreateDocumentLineRequest{
		ContractLineID: cl, EligBaseAmount: d("100"), EligVATAmount: dp("10"),
	}, true)
	require.NoError(t, err)
	_, err = f.documents.CreateLine(ctx, docID, dto.CreateDocumentLineRequest{
		ContractLineID: cl, NeeligBaseAmount: d("10"), NeeligVATAmount: dp("0"),
	}, true)
	require.NoError(t, err, "110 + 10 = 120")

	// automático: 121 + 10 = 131
	_, err = f.documents.ResetLineVAT(ctx, line.Line.ID, true)
	requireCode(t, err, domain.CodeCeilingExceeded)

	doc, err := f.documents.GetByID(ctx, docID)
	require.NoError(t, err)
	assertDec(t, "120", doc.AmountTotal, "el reset rechazado no deja rastro")

	out, err := f.documents.ResetLineVAT(ctx, line.Line.ID, false)
	require.NoError(t, err)
	assert.Nil(t, out.Ceiling)
	assertDec(t, "21", out.Line.EligVATAmount, "100 × 21%")
}

func TestDocument_CambioDeContratoConLineas(t *testing.T) {
	f := newFixture(t)
	e := f.execution(t)
	other := f.newContract(t, e.implID, "C-3")

	_, err := f.documents.Update(context.Background(), e.docID, dto.UpdateDocumentRequest{ContractID: sp(other)}, false)
	requireCode(t, err, domain.CodeInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// IVA automático / manual
// ──────────────────────────────────────────────────────────────────────────────

func TestContractLine_IVAManualYReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	implID, proxyB, _ := f.newImplementation(t, "F1")
	contractID := f.newContract(t, implID, "C-1")
	id := f.newContractLine(t, contractID, proxyB, "100")

	out, err := f.contracts.UpdateLine(ctx, id, dto.UpdateContractLineRequest{VATAmount: dp("20")})
	require.NoError(t, err)
	assert.True(t, out.Line.VATManual)

	out, err = f.contracts.UpdateLine(ctx, id, dto.UpdateContractLineRequest{BaseAmount: dp("200")})
	require.NoError(t, err)
	assertDec(t, "20", out.Line.VATAmount, "IVA manual congelado")

	out, err = f.contracts.ResetLineVAT(ctx, id)
	require.NoError(t, err)
	assert.False(t, out.Line.VATManual)
	assertDec(t, "42", out.Line.VATAmount, "200 × 21%")

	out, err = f.contracts.UpdateLine(ctx, id, dto.UpdateContractLineRequest{VATRate: dp("9")})
	require.NoError(t, err)
	assertDec(t, "18", out.Line.VATAmount, "recalculado con la nueva tasa")

	c, err := f.contracts.GetByID(ctx, contractID)
	require.NoError(t, err)
	assertDec(t, "218", c.AmountTotal, "total del contrato")
}

func TestDocumentLine_ResetAmbosGrupos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	_, err := f.documents.UpdateLine(ctx, e.docLine, dto.UpdateDocumentLineRequest{EligVATAmount: dp("1"), NeeligVATAmount: dp("1")}, false)
	require.NoError(t, err)

	out, err := f.documents.ResetLineVAT(ctx, e.docLine, false)
	require.NoError(t, err)
	assertDec(t, "210", out.Line.EligVATAmount, "elegible")
	assertDec(t, "10.5", out.Line.NeeligVATAmount, "no elegible")
	assert.False(t, out.Line.EligVATManual)
	assert.False(t, out.Line.NeeligVATManual)
	assert.Equal(t, "F-7 / 2025-04-02 / ACME - Línea 1000", out.Line.Name)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestBudgetLineDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)
	_, err := f.settlements.CreateLine(ctx, e.settlementID, dto.CreateSettlementLineRequest{DocumentLineID: e.docLine, EligBase: dp("100")})
	require.NoError(t, err)

	detail, err := f.impls.BudgetLineDetail(ctx, e.proxyB)
	require.NoError(t, err)
	assert.Len(t, detail.ContractLines, 2)
	assert.Len(t, detail.DocumentLines, 1)
	assert.Len(t, detail.SettlementLines, 1)
	assertDec(t, "121", detail.Line.SettlementsTotal, "100 + 21")
}

func TestSearchLinesYListados(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.execution(t)

	found, err := f.documents.SearchLines(ctx, repository.DocumentLineFilter{ImplementationID: e.implID, Search: "acme"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	none, err := f.documents.SearchLines(ctx, repository.DocumentLineFilter{ImplementationID: e.implID, Search: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, none)

	contracts, err := f.contracts.List(ctx, repository.ContractFilter{ImplementationID: e.implID, Search: "C-2"})
	require.NoError(t, err)
	require.Len(t, contracts.Items, 1)
	assertDec(t, "242", contracts.Items[0].AmountTotal, "200 + 42")
}

func TestStatement(t *testing.T) {
	f := newFixture(t)
	e := f.execution(t)

	st, err := f.statement.Statement(context.Background(), e.implID)
	require.NoError(t, err)
	assert.Equal(t, "PRJ-F1", st.Implementation.Code)
	assert.Len(t, st.BudgetLines, 2)
	assert.Len(t, st.Contracts, 2)
	assert.Len(t, st.Documents, 1)
	assert.Len(t, st.Settlements, 1)

	_, _, err = f.statement.ExportXLSX(context.Background(), e.implID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin exportador configurado")
}
