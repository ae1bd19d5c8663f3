package xlsx_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/infrastructure/xlsx"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func statement() *dto.StatementResponse {
	coef := d("0.2")
	return &dto.StatementResponse{
		Implementation: dto.ImplementationResponse{
			ID: "impl-1", Name: "Proyecto F1", Code: "PRJ-F1",
			BeneficiaryName: "Comuna Test", BeneficiaryTaxID: "RO123",
			State: "in_progress", AportCoef: &coef,
		},
		BudgetLines: []dto.BudgetLineResponse{{
			BudgetRollupResponse: dto.BudgetRollupResponse{
				BudgetProxyLineID: "bp-1", ContractTotal: d("121"), NonReimbursableTotal: d("968"),
			},
			Number: "1", Chapter: "4", Name: "Obras",
			EligibleBase: d("1000"), EligibleVAT: d("210"), EligibleTotal: d("1210"),
		}},
		Contracts: []dto.ContractResponse{{
			ID: "c-1", DisplayName: "C-1 Obras", Name: "Obras", Number: "C-1", Date: "2025-03-01",
			AmountBaseTotal: d("100"), AmountVATTotal: d("21"), AmountTotal: d("121"),
			Lines: []dto.ContractLineResponse{{
				ID: "cl-1", ContractID: "c-1", BudgetProxyLineID: "bp-1", Name: "Obra",
				BaseAmount: d("100"), VATRate: d("21"), VATAmount: d("21"), TotalAmount: d("121"),
			}},
		}},
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestExportStatement_SieteHojasEnOrden(t *testing.T) {
	data, err := xlsx.NewStatementExporter().ExportStatement(context.Background(), statement())
	require.NoError(t, err)

	f := open(t, data)
	assert.Equal(t, []string{
		xlsx.SheetBudget, xlsx.SheetContracts, xlsx.SheetDocuments, xlsx.SheetSettlements,
		xlsx.SheetContractLines, xlsx.SheetDocumentLines, xlsx.SheetSettlementLines,
	}, f.GetSheetList())
}

func TestExportStatement_CabeceraYFilas(t *testing.T) {
	data, err := xlsx.NewStatementExporter().ExportStatement(context.Background(), statement())
	require.NoError(t, err)
	f := open(t, data)

	// meta de la implementación en cada hoja
	assert.Equal(t, "Proyecto F1", cell(t, f, xlsx.SheetContracts, "B2"))
	assert.Equal(t, "RO123", cell(t, f, xlsx.SheetBudget, "B4"))

	// títulos = claves publicadas, en la fila 7
	assert.Equal(t, "nr_crt", cell(t, f, xlsx.SheetBudget, "A7"))
	assert.Equal(t, "budget_proxy_line_id", cell(t, f, xlsx.SheetBudget, "U7"))
	assert.Equal(t, "bp-1", cell(t, f, xlsx.SheetBudget, "U8"))
	assert.Equal(t, "Obras", cell(t, f, xlsx.SheetBudget, "D8"))

	raw, err := f.GetCellValue(xlsx.SheetBudget, "N8", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "121", raw, "contract_total como número")

	// fechas DD-MM-YYYY
	assert.Equal(t, "contract_date", cell(t, f, xlsx.SheetContracts, "E7"))
	assert.Equal(t, "01-03-2025", cell(t, f, xlsx.SheetContracts, "E8"))

	// las líneas de contrato llevan el contrato padre
	assert.Equal(t, "cl-1", cell(t, f, xlsx.SheetContractLines, "A8"))
	assert.Equal(t, "c-1", cell(t, f, xlsx.SheetContractLines, "B8"))
	assert.Equal(t, "C-1 Obras", cell(t, f, xlsx.SheetContractLines, "C8"))
}

func TestExportStatement_SinLineasDeDecontare_DejaAviso(t *testing.T) {
	data, err := xlsx.NewStatementExporter().ExportStatement(context.Background(), statement())
	require.NoError(t, err)
	f := open(t, data)

	assert.Equal(t, "settlement_line_id", cell(t, f, xlsx.SheetSettlementLines, "A7"))
	assert.Contains(t, cell(t, f, xlsx.SheetSettlementLines, "A8"), "Sin líneas de decontare")
	assert.Empty(t, cell(t, f, xlsx.SheetDocuments, "A8"), "las demás hojas vacías solo tienen títulos")
}

func TestExportStatement_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := xlsx.NewStatementExporter().ExportStatement(ctx, statement())
	assert.ErrorIs(t, err, context.Canceled)
}
