package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateDocumentRequest body para POST /api/implementations/:id/documents.
type CreateDocumentRequest struct {
	ContractID string `json:"contract_id"`
	Type       string `json:"document_type" validate:"omitempty,oneof=invoice payment bank payroll travel taxes other"`
	Number     string `json:"document_number" validate:"required,max=100"`
	Date       string `json:"document_date" validate:"required,datetime=2006-01-02"`
	IssuerName string `json:"issuer_name"`
	Notes      string `json:"notes"`
}

// UpdateDocumentRequest body para PATCH /api/documents/:id.
type UpdateDocumentRequest struct {
	ContractID *string `json:"contract_id"`
	Type       *string `json:"document_type" validate:"omitempty,oneof=invoice payment bank payroll travel taxes other"`
	Number     *string `json:"document_number" validate:"omitempty,min=1,max=100"`
	Date       *string `json:"document_date" validate:"omitempty,datetime=2006-01-02"`
	IssuerName *string `json:"issuer_name"`
	Notes      *string `json:"notes"`
}

// DocumentResponse documento con totales y líneas.
type DocumentResponse struct {
	ID                    string                 `json:"id"`
	ImplementationID      string                 `json:"implementation_id"`
	ContractID            string                 `json:"contract_id"`
	ContractName          string                 `json:"contract_name,omitempty"`
	DisplayName           string                 `json:"display_name"`
	Type                  string                 `json:"document_type"`
	Number                string                 `json:"document_number"`
	Date                  string                 `json:"document_date"`
	IssuerName            string                 `json:"issuer_name,omitempty"`
	Notes                 string                 `json:"notes,omitempty"`
	AmountEligBaseTotal   decimal.Decimal        `json:"amount_elig_base_total"`
	AmountEligVATTotal    decimal.Decimal        `json:"amount_elig_vat_total"`
	AmountNeeligBaseTotal decimal.Decimal        `json:"amount_neelig_base_total"`
	AmountNeeligVATTotal  decimal.Decimal        `json:"amount_neelig_vat_total"`
	AmountTotal           decimal.Decimal        `json:"amount_total"`
	Lines                 []DocumentLineResponse `json:"lines"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// DocumentListResponse lista paginada de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// DocumentCeilingResponse sumas del control documento vs contrato.
type DocumentCeilingResponse struct {
	DocumentID    string          `json:"document_id"`
	ContractID    string          `json:"contract_id"`
	CurrentTotal  decimal.Decimal `json:"current_total"`
	OtherTotal    decimal.Decimal `json:"other_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	ContractTotal decimal.Decimal `json:"contract_total"`
	Exceeded      bool            `json:"exceeded"`
}

// CreateDocumentLineRequest body para POST /api/documents/:id/lines.
type CreateDocumentLineRequest struct {
	ContractLineID   string           `json:"contract_line_id"`
	VATRate          *decimal.Decimal `json:"vat_rate"`
	EligBaseAmount   decimal.Decimal  `json:"elig_base_amount"`
	EligVATAmount    *decimal.Decimal `json:"elig_vat_amount"`
	NeeligBaseAmount decimal.Decimal  `json:"neelig_base_amount"`
	NeeligVATAmount  *decimal.Decimal `json:"neelig_vat_amount"`
	Notes            string           `json:"notes"`
}

// UpdateDocumentLineRequest body para PATCH /api/document-lines/:id.
type UpdateDocumentLineRequest struct {
	ContractLineID   *string          `json:"contract_line_id"`
	VATRate          *decimal.Decimal `json:"vat_rate"`
	EligBaseAmount   *decimal.Decimal `json:"elig_base_amount"`
	EligVATAmount    *decimal.Decimal `json:"elig_vat_amount"`
	NeeligBaseAmount *decimal.Decimal `json:"neelig_base_amount"`
	NeeligVATAmount  *decimal.Decimal `json:"neelig_vat_amount"`
	Notes            *string          `json:"notes"`
}

// DocumentLineResponse línea de documento.
type DocumentLineResponse struct {
	ID                string          `json:"id"`
	DocumentID        string          `json:"document_id"`
	ContractLineID    string          `json:"contract_line_id"`
	BudgetProxyLineID string          `json:"budget_proxy_line_id,omitempty"`
	Name              string          `json:"name"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	EligBaseAmount    decimal.Decimal `json:"elig_base_amount"`
	EligVATAmount     decimal.Decimal `json:"elig_vat_amount"`
	EligVATManual     bool            `json:"elig_vat_manual"`
	EligTotalAmount   decimal.Decimal `json:"elig_total_amount"`
	NeeligBaseAmount  decimal.Decimal `json:"neelig_base_amount"`
	NeeligVATAmount   decimal.Decimal `json:"neelig_vat_amount"`
	NeeligVATManual   bool            `json:"neelig_vat_manual"`
	NeeligTotalAmount decimal.Decimal `json:"neelig_total_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Notes             string          `json:"notes,omitempty"`
}

// DocumentLineMutationResponse línea modificada, control de tope (si se pidió) y recálculo.
type DocumentLineMutationResponse struct {
	Line         DocumentLineResponse     `json:"line"`
	Ceiling      *DocumentCeilingResponse `json:"ceiling,omitempty"`
	Recalculated *RecalculatedResponse    `json:"recalculated,omitempty"`
}
