package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateImplementationRequest body para POST /api/implementations.
// Las fechas van en formato YYYY-MM-DD; vacías se toman de la financiación.
type CreateImplementationRequest struct {
	FundingProjectID  string `json:"funding_project_id" validate:"required"`
	ResponsibleUserID string `json:"responsible_user_id"`
	StartDate         string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate           string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Description       string `json:"description"`
	Currency          string `json:"currency" validate:"omitempty,len=3"`
}

// UpdateImplementationRequest body para PATCH /api/implementations/:id.
// FundingProjectID solo se acepta para rechazar el cambio con un error explícito.
type UpdateImplementationRequest struct {
	FundingProjectID  *string `json:"funding_project_id"`
	ResponsibleUserID *string `json:"responsible_user_id"`
	StartDate         *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate           *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Description       *string `json:"description"`
	State             *string `json:"state" validate:"omitempty,oneof=draft in_progress done cancel"`
}

// ImplementationResponse implementación con los datos reflejados de la financiación.
type ImplementationResponse struct {
	ID                string           `json:"id"`
	FundingProjectID  string           `json:"funding_project_id"`
	Name              string           `json:"name"`
	Code              string           `json:"code"`
	BeneficiaryName   string           `json:"beneficiar_name"`
	BeneficiaryTaxID  string           `json:"beneficiar_cui"`
	ResponsibleUserID string           `json:"responsible_user_id,omitempty"`
	StartDate         string           `json:"start_date,omitempty"`
	EndDate           string           `json:"end_date,omitempty"`
	Description       string           `json:"description,omitempty"`
	State             string           `json:"state"`
	Currency          string           `json:"currency"`
	AportCoef         *decimal.Decimal `json:"aport_coef,omitempty"`
	AportValoare      decimal.Decimal  `json:"aport_valoare"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ImplementationListResponse lista paginada de implementaciones.
type ImplementationListResponse struct {
	Items []ImplementationResponse `json:"items"`
	Page  PageResponse             `json:"page"`
}

// SyncResponse resultado de una sincronización con la financiación.
type SyncResponse struct {
	ImplementationID string   `json:"implementation_id"`
	Created          int      `json:"created"`
	CreatedIDs       []string `json:"created_ids"`
}

// BudgetLineResponse línea de presupuesto de la implementación con sus acumulados.
type BudgetLineResponse struct {
	BudgetRollupResponse
	FundingBudgetLineID string          `json:"funding_budget_line_id"`
	Number              string          `json:"nr_crt"`
	Chapter             string          `json:"chapter"`
	Subchapter          string          `json:"subchapter"`
	Name                string          `json:"name"`
	EligibleBase        decimal.Decimal `json:"chelt_elig_baza"`
	EligibleVAT         decimal.Decimal `json:"chelt_elig_tva"`
	EligibleTotal       decimal.Decimal `json:"total_eligibil"`
	NonEligibleBase     decimal.Decimal `json:"chelt_neelig_baza"`
	NonEligibleVAT      decimal.Decimal `json:"chelt_neelig_tva"`
	NonEligibleTotal    decimal.Decimal `json:"total_neeligibil"`
	PlannedTotal        decimal.Decimal `json:"total"`
}

// BudgetRollupResponse acumulados del motor para una línea de presupuesto.
type BudgetRollupResponse struct {
	BudgetProxyLineID           string          `json:"budget_proxy_line_id"`
	ContractBaseTotal           decimal.Decimal `json:"contract_base_total"`
	ContractVATTotal            decimal.Decimal `json:"contract_vat_total"`
	ContractTotal               decimal.Decimal `json:"contract_total"`
	DocumentsEligibleTotal      decimal.Decimal `json:"documents_elig_total"`
	DocumentsNonEligibleTotal   decimal.Decimal `json:"documents_neelig_total"`
	DocumentsTotal              decimal.Decimal `json:"documents_total"`
	SoldTotal                   decimal.Decimal `json:"sold_total"`
	NonReimbursableTotal        decimal.Decimal `json:"neramb_total"`
	SettlementsTotal            decimal.Decimal `json:"settlements_total"`
	NonReimbursableMinusSettled decimal.Decimal `json:"neramb_minus_settled"`
}

// BudgetLineDetailResponse detalle de una línea de presupuesto: qué contratos, documentos y
// decontări se le imputan.
type BudgetLineDetailResponse struct {
	Line            BudgetLineResponse       `json:"line"`
	ContractLines   []ContractLineResponse   `json:"contract_lines"`
	DocumentLines   []DocumentLineResponse   `json:"document_lines"`
	SettlementLines []SettlementLineResponse `json:"settlement_lines"`
}

// AcquisitionLineResponse adquisición de la implementación con lo contratado.
type AcquisitionLineResponse struct {
	ID                   string          `json:"id"`
	FundingAcquisitionID string          `json:"funding_acquisition_id"`
	Sequence             int             `json:"sequence"`
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	DateStart            string          `json:"date_start,omitempty"`
	DateEnd              string          `json:"date_end,omitempty"`
	PlannedBase          decimal.Decimal `json:"planned_base"`
	PlannedVAT           decimal.Decimal `json:"planned_vat"`
	ContractedBase       decimal.Decimal `json:"contracted_base"`
	ContractedVAT        decimal.Decimal `json:"contracted_vat"`
	ContractedTotal      decimal.Decimal `json:"contracted_total"`
}

// ActivityLineResponse actividad de la implementación con las fechas de sus contratos.
type ActivityLineResponse struct {
	ID                string `json:"id"`
	FundingActivityID string `json:"funding_activity_id"`
	Sequence          int    `json:"sequence"`
	Name              string `json:"name"`
	PlannedStart      string `json:"planned_start,omitempty"`
	PlannedEnd        string `json:"planned_end,omitempty"`
	ContractStart     string `json:"contract_start,omitempty"`
	ContractEnd       string `json:"contract_end,omitempty"`
}

// RecalculatedResponse valores recalculados en la misma transacción de una mutación.
type RecalculatedResponse struct {
	Nodes            []string                   `json:"nodes"`
	BudgetLines      []BudgetRollupResponse     `json:"budget_lines,omitempty"`
	SettlementPanels []SettlementPanelsResponse `json:"settlement_panels,omitempty"`
}
