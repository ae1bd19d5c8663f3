package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundingStatusContracted único estado del proyecto de financiación que admite implementación.
const FundingStatusContracted = "contracted"

// FundingProject proyecto de financiación (datos maestros externos, solo lectura).
type FundingProject struct {
	ID               string
	Code             string
	Name             string
	Beneficiary      string
	BeneficiaryTaxID string
	Status           string
	// ContributionCoefficient coeficiente de aporte propio; nil = no definido (se trata como 0).
	ContributionCoefficient *decimal.Decimal
	// ContributionValue valor del aporte propio declarado en la financiación.
	ContributionValue decimal.Decimal
	SigningDate       *time.Time
	EndDate           *time.Time
}

// NonReimbursableCoefficient devuelve max(0, 1 − coeficiente de aporte).
func (p *FundingProject) NonReimbursableCoefficient() decimal.Decimal {
	if p == nil {
		return decimal.NewFromInt(1)
	}
	return NonReimbursableCoefficient(p.ContributionCoefficient)
}

// NonReimbursableCoefficient max(0, 1 − coef) con coef nil tratado como 0.
func NonReimbursableCoefficient(coef *decimal.Decimal) decimal.Decimal {
	c := decimal.Zero
	if coef != nil {
		c = *coef
	}
	return decimal.Max(decimal.Zero, decimal.NewFromInt(1).Sub(c))
}

// BudgetLine línea del presupuesto aprobado (deviz) de la financiación. Solo lectura.
type BudgetLine struct {
	ID               string
	FundingProjectID string
	Number           string
	Chapter          string
	Subchapter       string
	Name             string
	EligibleBase     decimal.Decimal
	EligibleVAT      decimal.Decimal
	NonEligibleBase  decimal.Decimal
	NonEligibleVAT   decimal.Decimal
}

// EligibleTotal base + IVA elegible.
func (l *BudgetLine) EligibleTotal() decimal.Decimal {
	return l.EligibleBase.Add(l.EligibleVAT)
}

// NonEligibleTotal base + IVA no elegible.
func (l *BudgetLine) NonEligibleTotal() decimal.Decimal {
	return l.NonEligibleBase.Add(l.NonEligibleVAT)
}

// PlannedTotal total planificado (elegible + no elegible).
func (l *BudgetLine) PlannedTotal() decimal.Decimal {
	return l.EligibleTotal().Add(l.NonEligibleTotal())
}

// Activity actividad planificada en la financiación.
type Activity struct {
	ID               string
	FundingProjectID string
	Sequence         int
	Name             string
	DateStart        *time.Time
	DateEnd          *time.Time
}

// Acquisition adquisición planificada en la financiación.
type Acquisition struct {
	ID               string
	FundingProjectID string
	Sequence         int
	Code             string
	Name             string
	DateStart        *time.Time
	DateEnd          *time.Time
	Base             decimal.Decimal
	VAT              decimal.Decimal
}
