package entity

// DocumentLineRef línea de documento con las claves resueltas a través del contrato.
// Es la forma en que los repositorios devuelven los barridos agrupados.
type DocumentLineRef struct {
	Line              *DocumentLine
	ImplementationID  string
	DocumentID        string
	ContractID        string
	BudgetProxyLineID string
}

// SettlementLineRef línea de decontare con las claves resueltas hasta la línea de presupuesto.
type SettlementLineRef struct {
	Line              *SettlementLine
	ImplementationID  string
	DocumentLineID    string
	BudgetProxyLineID string
}
