package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de contrato.
const (
	ContractTypeWorks    = "works"
	ContractTypeServices = "services"
	ContractTypeSupplies = "supplies"
	ContractTypeOther    = "other"
)

// Estados de adjudicación.
const (
	AwardStateDraft   = "draft"
	AwardStateAwarded = "awarded"
	AwardStateSigned  = "signed"
	AwardStateCancel  = "cancel"
)

// Tipos de procedimiento de contratación.
const (
	ProcedureDirect     = "direct"
	ProcedureSimplified = "simplified"
	ProcedureOpen       = "open"
	ProcedureOther      = "other"
)

// Contract cabecera de contrato de una implementación.
type Contract struct {
	ID               string
	ImplementationID string
	Name             string
	Number           string
	Date             time.Time
	Type             string
	AwardState       string
	ProcedureType    string
	SEAPNumber       string
	SEAPDate         *time.Time
	SupplierName     string
	StartDate        *time.Time
	EndDate          *time.Time
	ActivityID       string // opcional, actividad de la financiación
	AcquisitionID    string // opcional, adquisición de la financiación
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisplayName "Nombre (Número)".
func (c *Contract) DisplayName() string {
	switch {
	case c.Name != "" && c.Number != "":
		return fmt.Sprintf("%s (%s)", c.Name, c.Number)
	case c.Name != "":
		return c.Name
	case c.Number != "":
		return c.Number
	}
	return "(sin número)"
}

// ContractLine importe de un contrato imputado a una línea del presupuesto.
// Como máximo una línea por (contrato, línea de presupuesto).
type ContractLine struct {
	ID                string
	ContractID        string
	BudgetProxyLineID string
	Name              string
	VATRate           decimal.Decimal
	Amount            TaxedAmount
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Total base + IVA.
func (l *ContractLine) Total() decimal.Decimal {
	return l.Amount.Total()
}

// DisplayName nombre de la línea o un identificador de respaldo.
func (l *ContractLine) DisplayName() string {
	if l.Name != "" {
		return l.Name
	}
	return "Línea " + l.ID
}

// ContractTotals totales de cabecera derivados de las líneas.
type ContractTotals struct {
	Base  decimal.Decimal
	VAT   decimal.Decimal
	Total decimal.Decimal
}

// SumContractLines suma base, IVA y total de las líneas.
func SumContractLines(lines []*ContractLine) ContractTotals {
	t := ContractTotals{Base: decimal.Zero, VAT: decimal.Zero, Total: decimal.Zero}
	for _, l := range lines {
		t.Base = t.Base.Add(l.Amount.Base)
		t.VAT = t.VAT.Add(l.Amount.VAT)
	}
	t.Total = t.Base.Add(t.VAT)
	return t
}
