package execution

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Implementacion-api/internal/domain/entity"
)

// Tolerance margen absoluto de las comparaciones de topes.
var Tolerance = decimal.New(1, -4)

// DocumentCeiling sumas del control documento vs contrato.
type DocumentCeiling struct {
	Current       decimal.Decimal // líneas de este documento
	Other         decimal.Decimal // líneas de los demás documentos del mismo contrato
	Grand         decimal.Decimal
	ContractTotal decimal.Decimal
}

// Exceeded indica si el total documentado supera el total del contrato más la tolerancia.
func (c DocumentCeiling) Exceeded() bool {
	return c.Grand.GreaterThan(c.ContractTotal.Add(Tolerance))
}

// NewDocumentCeiling calcula el control a partir de las líneas del documento, las de los demás
// documentos del contrato y las líneas del contrato.
func NewDocumentCeiling(current, other []*entity.DocumentLine, contractLines []*entity.ContractLine) DocumentCeiling {
	c := DocumentCeiling{Current: decimal.Zero, Other: decimal.Zero}
	for _, l := range current {
		c.Current = c.Current.Add(l.Total())
	}
	for _, l := range other {
		c.Other = c.Other.Add(l.Total())
	}
	c.Grand = c.Current.Add(c.Other)
	c.ContractTotal = entity.SumContractLines(contractLines).Total
	return c
}

// NonReimbursableCeiling sumas del control decontare vs parte no reembolsable. Base e IVA se
// comprueban por separado.
type NonReimbursableCeiling struct {
	MaxBase decimal.Decimal
	MaxVAT  decimal.Decimal
	SumBase decimal.Decimal
	SumVAT  decimal.Decimal
}

// BaseExceeded la base solicitada supera el máximo.
func (c NonReimbursableCeiling) BaseExceeded() bool {
	return c.SumBase.GreaterThan(c.MaxBase.Add(Tolerance))
}

// VATExceeded el IVA solicitado supera el máximo.
func (c NonReimbursableCeiling) VATExceeded() bool {
	return c.SumVAT.GreaterThan(c.MaxVAT.Add(Tolerance))
}

// NewNonReimbursableCeiling suma lo propuesto a lo solicitado por las demás líneas de decontare
// de la misma línea de documento (excluida la propia, por ID) y lo compara con
// elegible × coeficiente no reembolsable.
func NewNonReimbursableCeiling(
	docLine *entity.DocumentLine,
	nonReimbCoef decimal.Decimal,
	proposed entity.TaxedAmount,
	siblings []*entity.SettlementLine,
	ownID string,
) NonReimbursableCeiling {
	otherBase, otherVAT := sumExcluding(siblings, ownID)
	return NonReimbursableCeiling{
		MaxBase: docLine.Eligible.Base.Mul(nonReimbCoef),
		MaxVAT:  docLine.Eligible.VAT.Mul(nonReimbCoef),
		SumBase: proposed.Base.Add(otherBase),
		SumVAT:  proposed.VAT.Add(otherVAT),
	}
}
