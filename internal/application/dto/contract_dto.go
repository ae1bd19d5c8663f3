package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateContractRequest body para POST /api/implementations/:id/contracts.
type CreateContractRequest struct {
	Name          string `json:"contract_name" validate:"required,max=255"`
	Number        string `json:"contract_number" validate:"required,max=100"`
	Date          string `json:"contract_date" validate:"required,datetime=2006-01-02"`
	Type          string `json:"contract_type" validate:"omitempty,oneof=works services supplies other"`
	AwardState    string `json:"award_state" validate:"omitempty,oneof=draft awarded signed cancel"`
	ProcedureType string `json:"procedure_type" validate:"omitempty,oneof=direct simplified open other"`
	SEAPNumber    string `json:"seap_number"`
	SEAPDate      string `json:"seap_date" validate:"omitempty,datetime=2006-01-02"`
	SupplierName  string `json:"supplier_name"`
	StartDate     string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ActivityID    string `json:"activity_id"`
	AcquisitionID string `json:"acquisition_id"`
}

// UpdateContractRequest body para PATCH /api/contracts/:id. Campos nil no cambian;
// cadena vacía en fechas o referencias opcionales las borra.
type UpdateContractRequest struct {
	Name          *string `json:"contract_name" validate:"omitempty,min=1,max=255"`
	Number        *string `json:"contract_number" validate:"omitempty,min=1,max=100"`
	Date          *string `json:"contract_date" validate:"omitempty,datetime=2006-01-02"`
	Type          *string `json:"contract_type" validate:"omitempty,oneof=works services supplies other"`
	AwardState    *string `json:"award_state" validate:"omitempty,oneof=draft awarded signed cancel"`
	ProcedureType *string `json:"procedure_type" validate:"omitempty,oneof=direct simplified open other"`
	SEAPNumber    *string `json:"seap_number"`
	SEAPDate      *string `json:"seap_date"`
	SupplierName  *string `json:"supplier_name"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
	ActivityID    *string `json:"activity_id"`
	AcquisitionID *string `json:"acquisition_id"`
}

// ContractResponse contrato con totales y líneas.
type ContractResponse struct {
	ID               string                 `json:"id"`
	ImplementationID string                 `json:"implementation_id"`
	DisplayName      string                 `json:"display_name"`
	Name             string                 `json:"contract_name"`
	Number           string                 `json:"contract_number"`
	Date             string                 `json:"contract_date"`
	Type             string                 `json:"contract_type"`
	AwardState       string                 `json:"award_state"`
	ProcedureType    string                 `json:"procedure_type"`
	SEAPNumber       string                 `json:"seap_number,omitempty"`
	SEAPDate         string                 `json:"seap_date,omitempty"`
	SupplierName     string                 `json:"supplier_name,omitempty"`
	StartDate        string                 `json:"start_date,omitempty"`
	EndDate          string                 `json:"end_date,omitempty"`
	ActivityID       string                 `json:"activity_id,omitempty"`
	AcquisitionID    string                 `json:"acquisition_id,omitempty"`
	AmountBaseTotal  decimal.Decimal        `json:"amount_base_total"`
	AmountVATTotal   decimal.Decimal        `json:"amount_vat_total"`
	AmountTotal      decimal.Decimal        `json:"amount_total"`
	Lines            []ContractLineResponse `json:"lines"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// ContractListResponse lista paginada de contratos.
type ContractListResponse struct {
	Items []ContractResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// CreateContractLineRequest body para POST /api/contracts/:id/lines.
// VATAmount presente fija el IVA en modo manual; ausente se calcula.
type CreateContractLineRequest struct {
	BudgetProxyLineID string           `json:"budget_proxy_line_id"`
	Name              string           `json:"name"`
	BaseAmount        decimal.Decimal  `json:"base_amount"`
	VATRate           *decimal.Decimal `json:"vat_rate"`
	VATAmount         *decimal.Decimal `json:"vat_amount"`
}

// UpdateContractLineRequest body para PATCH /api/contract-lines/:id.
type UpdateContractLineRequest struct {
	BudgetProxyLineID *string          `json:"budget_proxy_line_id"`
	Name              *string          `json:"name"`
	BaseAmount        *decimal.Decimal `json:"base_amount"`
	VATRate           *decimal.Decimal `json:"vat_rate"`
	VATAmount         *decimal.Decimal `json:"vat_amount"`
}

// ContractLineResponse línea de contrato.
type ContractLineResponse struct {
	ID                string          `json:"id"`
	ContractID        string          `json:"contract_id"`
	BudgetProxyLineID string          `json:"budget_proxy_line_id"`
	BudgetLineName    string          `json:"budget_proxy_line_name,omitempty"`
	Name              string          `json:"name"`
	BaseAmount        decimal.Decimal `json:"base_amount"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	VATAmount         decimal.Decimal `json:"vat_amount"`
	VATManual         bool            `json:"vat_manual"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
}

// ContractLineMutationResponse línea modificada y los valores recalculados.
type ContractLineMutationResponse struct {
	Line         ContractLineResponse  `json:"line"`
	Recalculated *RecalculatedResponse `json:"recalculated,omitempty"`
}
