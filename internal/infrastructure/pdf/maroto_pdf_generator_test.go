package pdf_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Implementacion-api/internal/application/dto"
	"github.com/jhoicas/Implementacion-api/internal/infrastructure/pdf"
)

func TestGenerateSettlementPDF_GeneraDocumento(t *testing.T) {
	coef := decimal.RequireFromString("0.2")
	impl := &dto.ImplementationResponse{
		Name: "Proyecto F1", Code: "PRJ-F1", BeneficiaryName: "Comuna Test",
		BeneficiaryTaxID: "RO123", Currency: "RON", AportCoef: &coef,
	}
	s := &dto.SettlementResponse{
		Number: "D-1", Date: "2025-05-10", Notes: "primera cerere",
		AmountEligBaseTotal: decimal.RequireFromString("80"),
		AmountEligVATTotal:  decimal.RequireFromString("16.8"),
		AmountTotal:         decimal.RequireFromString("96.8"),
		Lines: []dto.SettlementLineResponse{{
			DocumentNumber: "F-1", DocumentDate: "2025-04-01", DocumentLineName: "Obra",
			EligBase: decimal.RequireFromString("80"), EligVAT: decimal.RequireFromString("16.8"),
			TotalAmount: decimal.RequireFromString("96.8"),
			SettlementPanelsResponse: dto.SettlementPanelsResponse{
				BudgetDiffTotal: decimal.RequireFromString("-3.2"),
			},
		}},
	}

	data, err := pdf.NewMarotoPDFGenerator().GenerateSettlementPDF(context.Background(), impl, s)
	require.NoError(t, err)
	require.Greater(t, len(data), 4)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerateSettlementPDF_SinDatos_Error(t *testing.T) {
	_, err := pdf.NewMarotoPDFGenerator().GenerateSettlementPDF(context.Background(), nil, &dto.SettlementResponse{})
	assert.Error(t, err)
}
