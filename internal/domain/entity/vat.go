package entity

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Currency moneda única de una implementación. Places es la precisión usada al redondear
// el IVA calculado automáticamente.
type Currency struct {
	Code   string
	Places int32
}

// NewCurrency devuelve la moneda con la precisión estándar de dos decimales.
func NewCurrency(code string) Currency {
	return Currency{Code: code, Places: 2}
}

// ComputeVAT devuelve base × tasa / 100 redondeado a la precisión de la moneda.
func ComputeVAT(base, rate decimal.Decimal, cur Currency) decimal.Decimal {
	return base.Mul(rate).Div(hundred).Round(cur.Places)
}

// ValidateVATRate exige una tasa de IVA dentro de [0, 100].
func ValidateVATRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return domain.NewValidationError(domain.CodeVATRateOutOfRange,
			"la tasa de IVA debe estar entre 0 y 100 (recibido %s)", rate.String())
	}
	return nil
}

// TaxedAmount par base/IVA con modo automático o manual.
// En modo automático el IVA se recalcula cuando cambia la base o la tasa;
// una escritura explícita del IVA lo pasa a manual y congela el recálculo.
type TaxedAmount struct {
	Base      decimal.Decimal
	VAT       decimal.Decimal
	VATManual bool
}

// SetBase fija la base y recalcula el IVA si el grupo está en automático.
func (t *TaxedAmount) SetBase(base, rate decimal.Decimal, cur Currency) {
	t.Base = base
	t.Recompute(rate, cur)
}

// SetVAT fija el IVA a mano.
func (t *TaxedAmount) SetVAT(vat decimal.Decimal) {
	t.VAT = vat
	t.VATManual = true
}

// Recompute aplica base × tasa / 100 salvo en modo manual.
func (t *TaxedAmount) Recompute(rate decimal.Decimal, cur Currency) {
	if t.VATManual {
		return
	}
	t.VAT = ComputeVAT(t.Base, rate, cur)
}

// ResetAuto vuelve al modo automático y recalcula una vez.
func (t *TaxedAmount) ResetAuto(rate decimal.Decimal, cur Currency) {
	t.VATManual = false
	t.Recompute(rate, cur)
}

// Total base + IVA.
func (t TaxedAmount) Total() decimal.Decimal {
	return t.Base.Add(t.VAT)
}

// AmountChange cambios opcionales sobre un grupo base/IVA (nil = sin cambio).
type AmountChange struct {
	Base *decimal.Decimal
	VAT  *decimal.Decimal
}

// Apply aplica primero la base (con recálculo automático) y después el IVA explícito.
// rateChanged indica que la tasa de la línea cambió en la misma operación.
func (c AmountChange) Apply(t *TaxedAmount, rate decimal.Decimal, rateChanged bool, cur Currency) {
	switch {
	case c.Base != nil:
		t.SetBase(*c.Base, rate, cur)
	case rateChanged:
		t.Recompute(rate, cur)
	}
	if c.VAT != nil {
		t.SetVAT(*c.VAT)
	}
}
