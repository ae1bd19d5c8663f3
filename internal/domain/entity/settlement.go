package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement solicitud de reembolso (decontare) de una implementación.
type Settlement struct {
	ID               string
	ImplementationID string
	Number           string
	Date             time.Time
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisplayName "Número / Fecha".
func (s *Settlement) DisplayName() string {
	return joinNonEmpty(" / ", s.Number, formatDate(s.Date))
}

// SettlementLine importe elegible solicitado sobre una línea de documento.
type SettlementLine struct {
	ID             string
	SettlementID   string
	DocumentLineID string
	VATRate        decimal.Decimal
	Amount         TaxedAmount
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Total base + IVA solicitados.
func (l *SettlementLine) Total() decimal.Decimal {
	return l.Amount.Total()
}

// SettlementTotals totales de cabecera.
type SettlementTotals struct {
	EligibleBase decimal.Decimal
	EligibleVAT  decimal.Decimal
	Total        decimal.Decimal
}

// SumSettlementLines suma los importes solicitados.
func SumSettlementLines(lines []*SettlementLine) SettlementTotals {
	t := SettlementTotals{EligibleBase: decimal.Zero, EligibleVAT: decimal.Zero}
	for _, l := range lines {
		t.EligibleBase = t.EligibleBase.Add(l.Amount.Base)
		t.EligibleVAT = t.EligibleVAT.Add(l.Amount.VAT)
	}
	t.Total = t.EligibleBase.Add(t.EligibleVAT)
	return t
}

// DocumentPanel situación de la línea de documento vista desde una línea de decontare.
// Settled excluye el importe de la propia línea.
type DocumentPanel struct {
	EligibleBase        decimal.Decimal
	EligibleVAT         decimal.Decimal
	NonReimbursableBase decimal.Decimal
	NonReimbursableVAT  decimal.Decimal
	SettledBase         decimal.Decimal
	SettledVAT          decimal.Decimal
	RemainingBase       decimal.Decimal
	RemainingVAT        decimal.Decimal
}

// BudgetPanel situación de la línea de presupuesto vista desde una línea de decontare.
type BudgetPanel struct {
	EligibleBase        decimal.Decimal
	EligibleVAT         decimal.Decimal
	NonReimbursableBase decimal.Decimal
	NonReimbursableVAT  decimal.Decimal
	SettledBase         decimal.Decimal
	SettledVAT          decimal.Decimal
	SettledTotal        decimal.Decimal
	RemainingBase       decimal.Decimal
	RemainingVAT        decimal.Decimal
	RemainingTotal      decimal.Decimal
}

// BudgetRollup acumulados de una línea de presupuesto de la implementación.
type BudgetRollup struct {
	ContractBase                decimal.Decimal
	ContractVAT                 decimal.Decimal
	ContractTotal               decimal.Decimal
	DocumentsEligible           decimal.Decimal
	DocumentsNonEligible        decimal.Decimal
	DocumentsTotal              decimal.Decimal
	Balance                     decimal.Decimal
	NonReimbursableTotal        decimal.Decimal
	SettledTotal                decimal.Decimal
	NonReimbursableMinusSettled decimal.Decimal
}

// ZeroBudgetRollup acumulados a cero.
func ZeroBudgetRollup() BudgetRollup {
	z := decimal.Zero
	return BudgetRollup{z, z, z, z, z, z, z, z, z, z}
}
