package dto

// StatementResponse situación completa de una implementación: presupuesto con acumulados,
// contratos, documentos y decontări con sus líneas. Es la fuente de la exportación a hoja de cálculo.
type StatementResponse struct {
	Implementation ImplementationResponse `json:"implementation"`
	BudgetLines    []BudgetLineResponse   `json:"budget_lines"`
	Contracts      []ContractResponse     `json:"contracts"`
	Documents      []DocumentResponse     `json:"documents"`
	Settlements    []SettlementResponse   `json:"settlements"`
}
