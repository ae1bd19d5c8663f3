package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSettlementRequest body para POST /api/implementations/:id/settlements.
type CreateSettlementRequest struct {
	Number string `json:"settlement_number" validate:"required,max=100"`
	Date   string `json:"settlement_date" validate:"required,datetime=2006-01-02"`
	Notes  string `json:"notes"`
}

// UpdateSettlementRequest body para PATCH /api/settlements/:id.
type UpdateSettlementRequest struct {
	Number *string `json:"settlement_number" validate:"omitempty,min=1,max=100"`
	Date   *string `json:"settlement_date" validate:"omitempty,datetime=2006-01-02"`
	Notes  *string `json:"notes"`
}

// SettlementResponse decontare con totales y líneas.
type SettlementResponse struct {
	ID                  string                   `json:"id"`
	ImplementationID    string                   `json:"implementation_id"`
	DisplayName         string                   `json:"display_name"`
	Number              string                   `json:"settlement_number"`
	Date                string                   `json:"settlement_date"`
	Notes               string                   `json:"notes,omitempty"`
	AportValoare        decimal.Decimal          `json:"aport_valoare"`
	AmountEligBaseTotal decimal.Decimal          `json:"amount_elig_base_total"`
	AmountEligVATTotal  decimal.Decimal          `json:"amount_elig_vat_total"`
	AmountTotal         decimal.Decimal          `json:"amount_total"`
	Lines               []SettlementLineResponse `json:"lines"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
}

// SettlementListResponse lista paginada de decontări.
type SettlementListResponse struct {
	Items []SettlementResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// CreateSettlementLineRequest body para POST /api/settlements/:id/lines.
// Sin importes se rellena con lo pendiente de la línea de documento.
type CreateSettlementLineRequest struct {
	DocumentLineID string           `json:"document_line_id"`
	VATRate        *decimal.Decimal `json:"vat_rate"`
	EligBase       *decimal.Decimal `json:"elig_base"`
	EligVAT        *decimal.Decimal `json:"elig_vat"`
}

// UpdateSettlementLineRequest body para PATCH /api/settlement-lines/:id.
type UpdateSettlementLineRequest struct {
	DocumentLineID *string          `json:"document_line_id"`
	VATRate        *decimal.Decimal `json:"vat_rate"`
	EligBase       *decimal.Decimal `json:"elig_base"`
	EligVAT        *decimal.Decimal `json:"elig_vat"`
}

// SettlementPanelsResponse paneles de documento y de presupuesto de una línea de decontare.
type SettlementPanelsResponse struct {
	SettlementLineID   string          `json:"settlement_line_id,omitempty"`
	DocEligBase        decimal.Decimal `json:"doc_elig_base"`
	DocEligVAT         decimal.Decimal `json:"doc_elig_vat"`
	DocNerambBase      decimal.Decimal `json:"doc_neramb_base"`
	DocNerambVAT       decimal.Decimal `json:"doc_neramb_vat"`
	DocSettledBase     decimal.Decimal `json:"doc_settled_base"`
	DocSettledVAT      decimal.Decimal `json:"doc_settled_vat"`
	DocDiffBase        decimal.Decimal `json:"doc_diff_base"`
	DocDiffVAT         decimal.Decimal `json:"doc_diff_vat"`
	BudgetEligBase     decimal.Decimal `json:"budget_elig_base"`
	BudgetEligVAT      decimal.Decimal `json:"budget_elig_vat"`
	BudgetNerambBase   decimal.Decimal `json:"budget_neramb_base"`
	BudgetNerambVAT    decimal.Decimal `json:"budget_neramb_vat"`
	BudgetSettledBase  decimal.Decimal `json:"budget_settled_base"`
	BudgetSettledVAT   decimal.Decimal `json:"budget_settled_vat"`
	BudgetSettledTotal decimal.Decimal `json:"budget_settled_total"`
	BudgetDiffBase     decimal.Decimal `json:"budget_diff_base"`
	BudgetDiffVAT      decimal.Decimal `json:"budget_diff_vat"`
	BudgetDiffTotal    decimal.Decimal `json:"budget_diff_total"`
}

// SettlementLineResponse línea de decontare con sus paneles.
type SettlementLineResponse struct {
	ID                string          `json:"id"`
	SettlementID      string          `json:"settlement_id"`
	DocumentLineID    string          `json:"document_line_id"`
	DocumentLineName  string          `json:"document_line_name,omitempty"`
	DocumentID        string          `json:"document_id,omitempty"`
	DocumentNumber    string          `json:"document_number,omitempty"`
	DocumentDate      string          `json:"document_date,omitempty"`
	IssuerName        string          `json:"issuer_name,omitempty"`
	BudgetProxyLineID string          `json:"budget_proxy_line_id,omitempty"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	EligBase          decimal.Decimal `json:"elig_base"`
	EligVAT           decimal.Decimal `json:"elig_vat"`
	EligVATManual     bool            `json:"elig_vat_manual"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	NerambCoef        decimal.Decimal `json:"neramb_coef"`
	SettlementPanelsResponse
}

// SettlementLineMutationResponse línea modificada y los valores recalculados.
type SettlementLineMutationResponse struct {
	Line         SettlementLineResponse `json:"line"`
	Recalculated *RecalculatedResponse  `json:"recalculated,omitempty"`
}

// SettlementProposalResponse importes propuestos al elegir una línea de documento.
type SettlementProposalResponse struct {
	DocumentLineID string          `json:"document_line_id"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	EligBase       decimal.Decimal `json:"elig_base"`
	EligVAT        decimal.Decimal `json:"elig_vat"`
	EligVATManual  bool            `json:"elig_vat_manual"`
	SettlementPanelsResponse
}
